package server

import (
	"encoding/json"
	"net/http"
	"time"

	"coinpulse/logger"
	"coinpulse/model"
)

// VoteRequest represents the vote request body.
type VoteRequest struct {
	Section string `json:"section"`
	Vote    string `json:"vote"`
}

// VoteHandler records up/down feedback for a dashboard section. A "none"
// vote clears any stored vote and is idempotent.
func (h *APIHandler) VoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !model.IsValidSection(req.Section) {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid section",
			"allowed": model.AllowedSections,
		})
		return
	}
	if !model.IsValidVote(req.Vote) {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid vote",
			"allowed": model.AllowedVotes,
		})
		return
	}

	updatedAt := time.Now().UTC()

	if req.Vote == model.VoteNone {
		if err := h.voteRepo.ClearVote(r.Context(), userID, req.Section); err != nil {
			logger.Error("[Vote] failed to clear", logger.ErrorField(err), logger.Int64("userID", userID))
			respondError(w, http.StatusInternalServerError, "Failed to clear vote")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"message":   "Vote cleared",
			"section":   req.Section,
			"vote":      req.Vote,
			"updatedAt": updatedAt.Format(time.RFC3339),
		})
		return
	}

	vote := &model.Vote{
		UserID:    userID,
		Section:   req.Section,
		Vote:      req.Vote,
		UpdatedAt: updatedAt,
	}
	if err := h.voteRepo.SetVote(r.Context(), vote); err != nil {
		logger.Error("[Vote] failed to save", logger.ErrorField(err), logger.Int64("userID", userID))
		respondError(w, http.StatusInternalServerError, "Failed to save vote")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Vote saved",
		"section":   req.Section,
		"vote":      req.Vote,
		"updatedAt": updatedAt.Format(time.RFC3339),
	})
}

// GetVotesHandler returns the authenticated user's current votes keyed by
// section, so the dashboard can restore its feedback buttons.
func (h *APIHandler) GetVotesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	votes, err := h.voteRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		logger.Error("[Vote] failed to list", logger.ErrorField(err), logger.Int64("userID", userID))
		respondError(w, http.StatusInternalServerError, "Failed to load votes")
		return
	}

	bySection := make(map[string]string, len(votes))
	for _, v := range votes {
		bySection[v.Section] = v.Vote
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"votes": bySection})
}
