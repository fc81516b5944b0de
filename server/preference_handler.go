package server

import (
	"encoding/json"
	"net/http"
	"time"

	"coinpulse/logger"
	"coinpulse/model"
)

// PreferencesRequest represents the preference save request body.
type PreferencesRequest struct {
	Assets       []string `json:"assets"`
	InvestorType string   `json:"investorType"`
	Content      []string `json:"content"`
}

// SavePreferencesHandler replaces the authenticated user's preference record.
func (h *APIHandler) SavePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Assets) == 0 {
		respondError(w, http.StatusBadRequest, "assets must be a non-empty array")
		return
	}
	if req.InvestorType == "" {
		respondError(w, http.StatusBadRequest, "investorType is required")
		return
	}
	if len(req.Content) == 0 {
		respondError(w, http.StatusBadRequest, "content must be a non-empty array")
		return
	}

	pref := &model.Preference{
		UserID:       userID,
		Assets:       req.Assets,
		InvestorType: req.InvestorType,
		Content:      req.Content,
		UpdatedAt:    time.Now().UTC(),
	}

	if err := h.prefRepo.Save(r.Context(), pref); err != nil {
		logger.Error("[Preferences] failed to save", logger.ErrorField(err), logger.Int64("userID", userID))
		respondError(w, http.StatusInternalServerError, "Failed to save preferences")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Preferences saved",
		"updatedAt": pref.UpdatedAt.Format(time.RFC3339),
	})
}

// GetPreferencesHandler returns the stored preferences, or null when the
// user never saved any.
func (h *APIHandler) GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	pref, err := h.prefRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		logger.Error("[Preferences] failed to load", logger.ErrorField(err), logger.Int64("userID", userID))
		respondError(w, http.StatusInternalServerError, "Failed to load preferences")
		return
	}

	if pref == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"preferences": nil})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"preferences": pref})
}
