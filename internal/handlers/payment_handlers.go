package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/tripmate/tripmate-api/internal/service"
	"github.com/tripmate/tripmate-api/pkg/logger"
)

const webhookBodyLimit = 65536

// PaymentWebhook receives provider callbacks. The signature is verified
// before anything is trusted; a succeeded intent confirms its booking.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Unable to read request body")
		return
	}

	event, err := h.provider.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.WarnContext(r.Context(), "Rejected payment webhook", "error", err)
		writeError(w, r, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		if event.BookingID == "" {
			logger.WarnContext(r.Context(), "Payment intent without booking id", "intent_id", event.IntentID)
			break
		}
		_, err := h.bookingService.ConfirmPayment(r.Context(), event.BookingID)
		// Redelivered events land on an already confirmed booking
		if err != nil && !errors.Is(err, service.ErrPaymentConfirmed) {
			logger.ErrorContext(r.Context(), "Failed to confirm payment from webhook",
				"error", err, "booking_id", event.BookingID, "intent_id", event.IntentID)
			// 500 makes the provider retry the delivery
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process payment")
			return
		}
	case "payment_intent.payment_failed":
		logger.InfoContext(r.Context(), "Payment failed",
			"booking_id", event.BookingID, "intent_id", event.IntentID)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
