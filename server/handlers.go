package server

import (
	"encoding/json"
	"net/http"

	"coinpulse/config"
	"coinpulse/core/market"
	"coinpulse/logger"
	"coinpulse/repository"
)

// APIHandler handles all API requests.
type APIHandler struct {
	userRepo       repository.UserRepository
	prefRepo       repository.PreferenceRepository
	voteRepo       repository.VoteRepository
	priceService   *market.PriceService
	newsService    *market.NewsService
	insightService *market.InsightService
	memeService    *market.MemeService
	cfg            *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	prefRepo repository.PreferenceRepository,
	voteRepo repository.VoteRepository,
	priceService *market.PriceService,
	newsService *market.NewsService,
	insightService *market.InsightService,
	memeService *market.MemeService,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:       userRepo,
		prefRepo:       prefRepo,
		voteRepo:       voteRepo,
		priceService:   priceService,
		newsService:    newsService,
		insightService: insightService,
		memeService:    memeService,
		cfg:            cfg,
	}
}

// respondJSON writes v as a JSON response body.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// respondError writes a machine-readable error body.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Server is running",
	})
}
