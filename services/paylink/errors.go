package paylink

import (
	"errors"
	"fmt"

	"payform-backend/lib/scrapers/auctionsite"
)

var (
	// ErrSessionExpired is returned for tokens that are expired or were not
	// signed by us and for auction site sessions that could not be restored.
	ErrSessionExpired = errors.New("session expired")
	// ErrExtractionFailed is matched by every ExtractionError.
	ErrExtractionFailed = errors.New("could not retrieve seller details")
	// ErrNotifyFailed is returned when a link was issued but the email
	// carrying it could not be sent.
	ErrNotifyFailed = errors.New("could not send payment link email")
	// ErrInvalidInput is returned for requests missing required values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfig is returned by constructors given an unusable configuration.
	ErrConfig = errors.New("invalid configuration")
	// ErrAdminLogin is returned in admin mode when the configured admin
	// account could not log into the auction site, the staff member's own
	// credentials are not involved.
	ErrAdminLogin = errors.New("admin account could not log into the auction site")

	ErrAuthFailure = auctionsite.ErrAuthFailure
)

const (
	ExtractionFetch = "fetch"
	ExtractionParse = "parse"
)

// ExtractionError is returned when no usable seller details came out of a
// statement, Reason says whether the statement could not be fetched or
// could not be parsed.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", ErrExtractionFailed.Error(), e.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", ErrExtractionFailed.Error(), e.Reason, e.Err.Error())
}

func (e ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

func (e ExtractionError) Unwrap() error {
	return e.Err
}
