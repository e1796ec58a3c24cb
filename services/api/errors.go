package api

import (
	"errors"
	"net/http"

	"payform-backend/lib/scrapers/auctionsite"
	"payform-backend/services/paylink"
	"payform-backend/services/paymentform"
)

const (
	msgSessionExpired = "Your session has expired, please log in again."
	msgNoSellerData   = "Could not retrieve seller details, please verify the auction code and seller id."
	msgInvalidLink    = "Invalid or expired payment link."
	msgAlreadyUsed    = "This payment link has already been used. Please contact our office if you need to change your details."
	msgServerError    = "Something went wrong, please try again."
	msgAdminLogin     = "The payment system could not log into the auction site, please contact an administrator."
)

type errorResponse struct {
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	ShareUrl string `json:"shareUrl,omitempty"`
}

// staffError maps an error from a staff facing operation to its response.
func staffError(err error) (int, errorResponse) {
	var authFailure auctionsite.AuthFailure
	switch {
	case errors.Is(err, paylink.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Message: err.Error()}
	case errors.Is(err, paylink.ErrAdminLogin):
		return http.StatusInternalServerError, errorResponse{Message: msgAdminLogin}
	case errors.As(err, &authFailure):
		message := "Invalid credentials."
		if authFailure.Reason != "" {
			message = "Invalid credentials: " + authFailure.Reason
		}
		return http.StatusUnauthorized, errorResponse{Message: message}
	case errors.Is(err, paylink.ErrSessionExpired):
		return http.StatusUnauthorized, errorResponse{Message: msgSessionExpired}
	case errors.Is(err, paylink.ErrExtractionFailed):
		return http.StatusNotFound, errorResponse{Message: msgNoSellerData}
	default:
		return http.StatusInternalServerError, errorResponse{Message: msgServerError}
	}
}

// sellerError maps an error from a seller facing operation to its
// response, token problems never reveal any detail.
func sellerError(err error) (int, errorResponse) {
	var validationErr paymentform.ValidationError
	switch {
	case errors.Is(err, paylink.ErrSessionExpired):
		return http.StatusNotFound, errorResponse{Message: msgInvalidLink}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, errorResponse{Message: validationErr.Message, Field: validationErr.Field}
	case errors.Is(err, paymentform.ErrAlreadySubmitted):
		return http.StatusConflict, errorResponse{Message: msgAlreadyUsed}
	default:
		return http.StatusInternalServerError, errorResponse{Message: msgServerError}
	}
}
