package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tripmate/tripmate-api/internal/domain"
)

func (h *Handlers) ListTours(w http.ResponseWriter, r *http.Request) {
	query := parseTourQuery(r)

	page, err := h.tourService.List(r.Context(), query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetTour(w http.ResponseWriter, r *http.Request) {
	tour, err := h.tourService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tour)
}

func (h *Handlers) CreateTour(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.CreateTourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	tour, err := h.tourService.Create(r.Context(), claims.Sub, claims.Role, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tour)
}

func (h *Handlers) UpdateTour(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.UpdateTourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	tour, err := h.tourService.Update(r.Context(), chi.URLParam(r, "id"), claims.Sub, claims.Role, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tour)
}

func (h *Handlers) DeleteTour(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	if err := h.tourService.Delete(r.Context(), chi.URLParam(r, "id"), claims.Sub, claims.Role); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Tour deleted successfully"})
}

func (h *Handlers) TourCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.tourService.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

func (h *Handlers) TourSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.tourService.Suggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestions)
}

func (h *Handlers) TourStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tourService.Statistics(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) TourAvailability(w http.ResponseWriter, r *http.Request) {
	availability, err := h.tourService.Availability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, availability)
}

func parseTourQuery(r *http.Request) *domain.TourQuery {
	q := r.URL.Query()
	page, limit := parsePagination(r, 10)

	query := &domain.TourQuery{
		Search:    q.Get("search"),
		Category:  q.Get("category"),
		Location:  q.Get("location"),
		Page:      page,
		Limit:     limit,
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if v := q.Get("minPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			query.MinPrice = &f
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			query.MaxPrice = &f
		}
	}

	return query
}
