package handler

import (
	"encoding/json"
	"net/http"

	"github.com/payops/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

// GET /v1/exchange-rate
func getExchangeRateHandler(rates *service.RateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rates.Current())
	}
}

// PUT /v1/exchange-rate/override
func setRateOverrideHandler(rates *service.RateManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Rate float64 `json:"rate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := rates.SetOverride(req.Rate); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rates.Current())
	}
}

// DELETE /v1/exchange-rate/override
func clearRateOverrideHandler(rates *service.RateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rates.ClearOverride()
		writeJSON(w, http.StatusOK, rates.Current())
	}
}
