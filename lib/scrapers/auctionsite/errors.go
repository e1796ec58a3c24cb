package auctionsite

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuthFailure is matched by every AuthFailure.
var ErrAuthFailure = errors.New("auction site login failed")

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("statement not found")

// AuthFailure is returned when the auction site rejects a login, Reason is
// the site's own message when it gave one.
type AuthFailure struct {
	Reason string
}

func (e AuthFailure) Error() string {
	if e.Reason == "" {
		return ErrAuthFailure.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAuthFailure.Error(), e.Reason)
}

func (e AuthFailure) Is(target error) bool {
	return target == ErrAuthFailure
}

// NotFoundError is returned when no candidate url produced a statement,
// TriedUrls lists every url that was requested in order.
type NotFoundError struct {
	TriedUrls []string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s (tried %s)", ErrNotFound.Error(), strings.Join(e.TriedUrls, ", "))
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
