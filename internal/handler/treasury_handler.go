package handler

import (
	"net/http"

	"github.com/payops/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

// GET /v1/treasury/truewallet?access_token=...
func trueWalletStatusHandler(svc *service.Treasury, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/treasury/truewallet")
		defer span.End()

		token := r.URL.Query().Get("access_token")
		status, err := svc.TrueWalletStatus(ctx, token)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// GET /v1/treasury/okx/balance
func okxBalanceHandler(svc *service.Treasury, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/treasury/okx/balance")
		defer span.End()

		balances, err := svc.OKXBalance(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
	}
}
