package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tripmate/tripmate-api/internal/domain"
)

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	post, err := h.socialService.CreatePost(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.socialService.GetPost(r.Context(), chi.URLParam(r, "id"), viewerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := parsePagination(r, 10)

	query := &domain.PostQuery{
		Search:    q.Get("search"),
		UserID:    q.Get("userId"),
		Page:      page,
		Limit:     limit,
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	result, err := h.socialService.ListPosts(r.Context(), viewerID(r), query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListUserPosts is the profile feed, a fixed-author view over ListPosts.
func (h *Handlers) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, 10)

	query := &domain.PostQuery{
		UserID:    chi.URLParam(r, "userId"),
		Page:      page,
		Limit:     limit,
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}

	result, err := h.socialService.ListPosts(r.Context(), viewerID(r), query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	post, err := h.socialService.UpdatePost(r.Context(), chi.URLParam(r, "id"), claims.Sub, claims.Role, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	if err := h.socialService.DeletePost(r.Context(), chi.URLParam(r, "id"), claims.Sub, claims.Role); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

// LikePost toggles the caller's like on a post.
func (h *Handlers) LikePost(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	result, err := h.socialService.ToggleLike(r.Context(), chi.URLParam(r, "id"), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	comment, err := h.socialService.CreateComment(r.Context(), chi.URLParam(r, "id"), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, 10)

	result, err := h.socialService.ListComments(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	if err := h.socialService.DeleteComment(r.Context(), chi.URLParam(r, "id"), claims.Sub, claims.Role); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted successfully"})
}
