package paymentform

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"payform-backend/services/paymentform/db"
)

// ErrInvalidSubmission is matched by every ValidationError.
var ErrInvalidSubmission = errors.New("invalid submission")

// ValidationError names the submitted field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidSubmission
}

const MaxCheckImageSize = 5 << 20

const (
	AccountChecking = "checking"
	AccountSavings  = "savings"
)

// Submission is what a seller fills into the payment form.
type Submission struct {
	Method         string `json:"method"`
	EntityName     string `json:"entityName"`
	RoutingNumber  string `json:"routingNumber"`
	AccountNumber  string `json:"accountNumber"`
	AccountType    string `json:"accountType"`
	CheckImage     string `json:"checkImage"`
	TermsAgreement bool   `json:"termsAgreement"`
}

type validSubmission struct {
	method         db.Method
	entityName     string
	routingNumber  string
	accountNumber  string
	accountType    string
	checkImage     []byte
	checkImageType string
}

var (
	routingPattern = regexp.MustCompile(`^\d{9}$`)
	accountPattern = regexp.MustCompile(`^\d{4,17}$`)
	dataUrlPrefix  = regexp.MustCompile(`^data:[^;,]*(?:;[^,]*)?,`)
)

// ValidRoutingNumber reports whether s is 9 digits with a valid ABA checksum.
func ValidRoutingNumber(s string) bool {
	if !routingPattern.MatchString(s) {
		return false
	}
	weights := [3]int{3, 7, 1}
	sum := 0
	for i, r := range s {
		sum += int(r-'0') * weights[i%3]
	}
	return sum%10 == 0
}

// digits strips the separators people type into account numbers.
func digits(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

func decodeCheckImage(encoded string) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	encoded = dataUrlPrefix.ReplaceAllString(encoded, "")
	if encoded == "" {
		return nil, "", ValidationError{Field: "checkImage", Message: "A photo of a voided check is required."}
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxCheckImageSize+3 {
		return nil, "", ValidationError{Field: "checkImage", Message: "The check image must be smaller than 5 MB."}
	}
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", ValidationError{Field: "checkImage", Message: "The check image could not be read."}
	}
	if len(image) == 0 {
		return nil, "", ValidationError{Field: "checkImage", Message: "A photo of a voided check is required."}
	}
	if len(image) > MaxCheckImageSize {
		return nil, "", ValidationError{Field: "checkImage", Message: "The check image must be smaller than 5 MB."}
	}
	contentType := http.DetectContentType(image)
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		return nil, "", ValidationError{Field: "checkImage", Message: "The check image must be a picture or a pdf."}
	}
	return image, contentType, nil
}

func (s Submission) validate() (validSubmission, error) {
	if !s.TermsAgreement {
		return validSubmission{}, ValidationError{Field: "termsAgreement", Message: "You must agree to the terms to continue."}
	}

	method := db.Method(strings.ToLower(strings.TrimSpace(s.Method)))
	switch method {
	case db.METHOD_MANUAL:
		entityName := strings.TrimSpace(s.EntityName)
		if entityName == "" {
			return validSubmission{}, ValidationError{Field: "entityName", Message: "The name on the account is required."}
		}
		if len(entityName) > 120 {
			return validSubmission{}, ValidationError{Field: "entityName", Message: "The name on the account is too long."}
		}
		routing := digits(s.RoutingNumber)
		if !ValidRoutingNumber(routing) {
			return validSubmission{}, ValidationError{Field: "routingNumber", Message: "The routing number is not valid."}
		}
		account := digits(s.AccountNumber)
		if !accountPattern.MatchString(account) {
			return validSubmission{}, ValidationError{Field: "accountNumber", Message: "The account number must be 4 to 17 digits."}
		}
		accountType := strings.ToLower(strings.TrimSpace(s.AccountType))
		if accountType != AccountChecking && accountType != AccountSavings {
			return validSubmission{}, ValidationError{Field: "accountType", Message: "The account type must be checking or savings."}
		}
		return validSubmission{
			method:        method,
			entityName:    entityName,
			routingNumber: routing,
			accountNumber: account,
			accountType:   accountType,
		}, nil
	case db.METHOD_CHECK:
		image, contentType, err := decodeCheckImage(s.CheckImage)
		if err != nil {
			return validSubmission{}, err
		}
		return validSubmission{
			method:         method,
			entityName:     strings.TrimSpace(s.EntityName),
			checkImage:     image,
			checkImageType: contentType,
		}, nil
	case "":
		return validSubmission{}, ValidationError{Field: "method", Message: "Please choose how you would like to provide your banking details."}
	default:
		return validSubmission{}, ValidationError{Field: "method", Message: fmt.Sprintf("Unknown method %q.", s.Method)}
	}
}
