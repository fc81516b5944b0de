package server

import (
	"errors"
	"net/http"
	"strings"

	"coinpulse/core/market"
	"coinpulse/logger"
)

// PricesHandler returns quotes for the requested assets. Public: the
// dashboard shows a price ticker before login.
func (h *APIHandler) PricesHandler(w http.ResponseWriter, r *http.Request) {
	assetsParam := strings.TrimSpace(r.URL.Query().Get("assets"))
	if assetsParam == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Missing assets query param",
			"example": "/api/prices?assets=BTC,ETH",
		})
		return
	}

	resp, err := h.priceService.GetPrices(r.Context(), strings.Split(assetsParam, ","))
	if err != nil {
		if errors.Is(err, market.ErrNoSupportedAssets) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":     "No supported assets provided",
				"supported": market.SupportedSymbols(),
			})
			return
		}
		logger.Error("[Prices] unexpected failure", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// NewsHandler returns the latest headlines. Upstream failures never surface
// here; the service degrades to stale cache or the static fallback.
func (h *APIHandler) NewsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.newsService.GetNews(r.Context()))
}

// InsightHandler generates a personalized market insight from the user's
// stored preferences.
func (h *APIHandler) InsightHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if h.cfg.HFToken == "" {
		respondError(w, http.StatusInternalServerError, "Missing HF_TOKEN in server .env")
		return
	}

	assetsTxt := "BTC, ETH"
	investorTxt := "General"

	pref, err := h.prefRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		logger.Warn("[Insight] failed to load preferences, using defaults",
			logger.ErrorField(err), logger.Int64("userID", userID))
	} else if pref != nil {
		if len(pref.Assets) > 0 {
			assetsTxt = strings.Join(pref.Assets, ", ")
		}
		if pref.InvestorType != "" {
			investorTxt = pref.InvestorType
		}
	}

	insight, err := h.insightService.Generate(r.Context(), assetsTxt, investorTxt)
	if err != nil {
		var provErr *market.ProviderError
		if errors.As(err, &provErr) {
			respondJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":       "AI provider error",
				"triedModels": provErr.TriedModels,
				"lastError": map[string]interface{}{
					"model":   provErr.LastModel,
					"message": provErr.LastErr.Error(),
				},
			})
			return
		}
		logger.Error("[Insight] generation failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, insight)
}

// MemeHandler returns one meme from the current rotation.
func (h *APIHandler) MemeHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.memeService.Random())
}
