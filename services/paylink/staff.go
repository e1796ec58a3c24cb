package paylink

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// StaffAccount is a locally configured staff login, only used when the
// service logs into the auction site with its own admin credentials.
type StaffAccount struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

const defaultRole = "staff"

// HashPassword returns the bcrypt hash stored in a StaffAccount.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func findAccount(accounts []StaffAccount, username string) (StaffAccount, bool) {
	for _, account := range accounts {
		if subtle.ConstantTimeCompare(
			[]byte(strings.ToLower(account.Username)),
			[]byte(strings.ToLower(username)),
		) == 1 {
			return account, true
		}
	}
	return StaffAccount{}, false
}

func checkAccount(accounts []StaffAccount, username, password string) (StaffAccount, bool) {
	account, ok := findAccount(accounts, username)
	if !ok {
		return StaffAccount{}, false
	}
	err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password))
	if err != nil {
		return StaffAccount{}, false
	}
	if account.Role == "" {
		account.Role = defaultRole
	}
	return account, true
}
