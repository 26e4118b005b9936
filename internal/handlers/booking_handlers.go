package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tripmate/tripmate-api/internal/domain"
)

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	booking, err := h.bookingService.Create(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	booking, err := h.bookingService.Get(r.Context(), chi.URLParam(r, "id"), claims.Sub, claims.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// ListBookings returns every booking for admins and the caller's own
// bookings for everyone else.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	query := parseBookingQuery(r)

	var page *domain.Page[domain.Booking]
	var err error
	if claims.Role == domain.RoleAdmin {
		page, err = h.bookingService.List(r.Context(), query)
	} else {
		page, err = h.bookingService.ListMine(r.Context(), claims.Sub, query)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	page, err := h.bookingService.ListMine(r.Context(), claims.Sub, parseBookingQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.UpdateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	booking, err := h.bookingService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), claims.Sub, claims.Role, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	booking, err := h.bookingService.Cancel(r.Context(), chi.URLParam(r, "id"), claims.Sub, claims.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (h *Handlers) ConfirmBookingPayment(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookingService.ConfirmPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (h *Handlers) CreateBookingPaymentIntent(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	intent, err := h.bookingService.CreatePaymentIntent(r.Context(), chi.URLParam(r, "id"), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, intent)
}

func (h *Handlers) BookingStatistics(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	stats, err := h.bookingService.Statistics(r.Context(), claims.Sub, claims.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func parseBookingQuery(r *http.Request) *domain.BookingQuery {
	q := r.URL.Query()
	page, limit := parsePagination(r, 10)

	query := &domain.BookingQuery{Page: page, Limit: limit}

	if v := q.Get("status"); v != "" {
		status := domain.BookingStatus(v)
		query.Status = &status
	}
	if v := q.Get("paymentStatus"); v != "" {
		status := domain.PaymentStatus(v)
		query.PaymentStatus = &status
	}
	if v := q.Get("fromDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query.FromDate = &t
		}
	}
	if v := q.Get("toDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query.ToDate = &t
		}
	}

	return query
}
