package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zionnet/newsflow/internal/identity"
)

// PreferencesHandler exposes stored user preferences.
type PreferencesHandler struct {
	repo   identity.UserRepository
	logger *zap.Logger
}

func NewPreferencesHandler(repo identity.UserRepository, logger *zap.Logger) *PreferencesHandler {
	return &PreferencesHandler{repo: repo, logger: logger}
}

// Get handles GET /users/{id}/preferences
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":          u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"preferences": u.Preferences,
	})
}

type updatePreferencesRequest struct {
	Preferences []string `json:"preferences"`
}

// Update handles PUT /users/{id}/preferences/update
func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.repo.UpdatePreferences(r.Context(), id, req.Preferences); err != nil {
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":     "Preferences updated successfully",
		"user_id":     id,
		"preferences": req.Preferences,
	})
}
