package paymentform

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	ErrInvalidKey = errors.New("encryption key must be 32 bytes of hex")
	errCorrupt    = errors.New("sealed value is corrupt")
)

// Sealer encrypts account numbers at rest with secretbox, sealed values are
// the nonce followed by the box.
type Sealer struct {
	key [32]byte
}

func NewSealer(hexKey string) (Sealer, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil || len(raw) != 32 {
		return Sealer{}, ErrInvalidKey
	}
	var s Sealer
	copy(s.key[:], raw)
	return s, nil
}

// GenerateKey returns a new random key in the form NewSealer expects.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, key)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

func (s Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	_, err := io.ReadFull(rand.Reader, nonce[:])
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

func (s Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errCorrupt
	}
	return plaintext, nil
}
