package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tripmate/tripmate-api/internal/domain"
)

// Register starts the sign up flow and emails a verification code.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// VerifyOTP checks the emailed code and returns the first token pair.
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	resp, err := h.authService.VerifyOTP(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResendOTP issues a fresh verification code, honoring the cooldown.
func (h *Handlers) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	resp, err := h.authService.ResendOTP(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "refreshToken is required")
		return
	}

	resp, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout revokes the presented refresh token. Revoking a token that is
// already gone still succeeds.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	if err := h.authService.Logout(r.Context(), claims.Sub, req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	user, err := h.authService.GetUser(r.Context(), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON format")
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user.ToUserInfo())
}
