package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tripmate/tripmate-api/internal/service"
)

// errorResponse is the envelope every failed request returns.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	UserID     string `json:"userId,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{
		StatusCode: statusCode,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       r.URL.Path,
		Error:      code,
		Message:    message,
	})
}

// writeServiceError maps known service errors onto HTTP statuses; anything
// unrecognized is a 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var notVerified *service.EmailNotVerifiedError
	if errors.As(err, &notVerified) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			StatusCode: http.StatusUnauthorized,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Path:       r.URL.Path,
			Error:      "EMAIL_NOT_VERIFIED",
			Message:    "Please verify your email before logging in.",
			UserID:     notVerified.UserID,
		})
		return
	}

	var mismatch *service.OTPMismatchError
	if errors.As(err, &mismatch) {
		writeError(w, r, http.StatusBadRequest, "INVALID_OTP", mismatch.Error())
		return
	}

	var cooldown *service.ResendCooldownError
	if errors.As(err, &cooldown) {
		writeError(w, r, http.StatusBadRequest, "RESEND_COOLDOWN", cooldown.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, r, http.StatusConflict, "EMAIL_TAKEN", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, service.ErrInvalidRefreshToken):
		writeError(w, r, http.StatusForbidden, "INVALID_REFRESH_TOKEN", err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTourNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrNotTourOwner),
		errors.Is(err, service.ErrNotBookingOwner),
		errors.Is(err, service.ErrNotPostOwner),
		errors.Is(err, service.ErrNotCommentOwner),
		errors.Is(err, service.ErrNotNotificationOwner):
		writeError(w, r, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, service.ErrTourFullyBooked),
		errors.Is(err, service.ErrDuplicateBooking),
		errors.Is(err, service.ErrTourAlreadyStarted),
		errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, service.ErrBookingCompleted),
		errors.Is(err, service.ErrPaymentConfirmed),
		errors.Is(err, service.ErrBookingNotPayable),
		errors.Is(err, service.ErrTourHasBookings),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrTooManyOTPAttempts),
		errors.Is(err, service.ErrSuggestionTooShort):
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case strings.Contains(err.Error(), "validation failed"):
		writeError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

func parsePagination(r *http.Request, defaultLimit int) (page, limit int) {
	page = 1
	limit = defaultLimit

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return page, limit
}
