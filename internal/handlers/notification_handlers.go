package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tripmate/tripmate-api/internal/domain"
)

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	q := r.URL.Query()
	page, limit := parsePagination(r, 20)

	query := &domain.NotificationQuery{
		Type:  domain.NotificationType(q.Get("type")),
		Page:  page,
		Limit: limit,
	}
	if v := q.Get("isRead"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			query.IsRead = &b
		}
	}

	result, err := h.notificationService.List(r.Context(), claims.Sub, query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetNotification(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	notification, err := h.notificationService.Get(r.Context(), chi.URLParam(r, "id"), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, notification)
}

func (h *Handlers) NotificationStats(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	stats, err := h.notificationService.Stats(r.Context(), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	count, err := h.notificationService.UnreadCount(r.Context(), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

// MarkNotificationsRead marks the given ids read, or everything when no ids
// are sent.
func (h *Handlers) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.MarkReadRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
			return
		}
	}

	count, err := h.notificationService.MarkRead(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": count})
}

func (h *Handlers) MarkNotificationUnread(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	if err := h.notificationService.MarkUnread(r.Context(), chi.URLParam(r, "id"), claims.Sub); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as unread"})
}

func (h *Handlers) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	if err := h.notificationService.Delete(r.Context(), chi.URLParam(r, "id"), claims.Sub); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

func (h *Handlers) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	count, err := h.notificationService.ClearAll(r.Context(), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}
