package handler

import (
	"net/http"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

// accountView decorates a BankAccount with its display label.
type accountView struct {
	domain.BankAccount
	APITypeLabel string `json:"api_type_label"`
}

type banksListResponse struct {
	Domain   domain.Domain        `json:"domain"`
	State    domain.SnapshotState `json:"state"`
	Error    string               `json:"error,omitempty"`
	Accounts []accountView        `json:"accounts"`
}

// GET /v1/banks/summary
func banksSummaryHandler(agg *service.Aggregator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/banks/summary")
		defer span.End()

		result, err := agg.Overview(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// GET /v1/banks?domain=...&search=&status=&withdraw=&api_type=&wallet_app=&bank_name=
func banksListHandler(agg *service.Aggregator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/banks")
		defer span.End()

		domainURL := r.URL.Query().Get("domain")
		if domainURL == "" {
			writeError(w, http.StatusBadRequest, "domain is required")
			return
		}

		criteria := domain.FilterCriteria{
			Search:         r.URL.Query().Get("search"),
			Status:         queryInt(r, "status"),
			StatusWithdraw: queryInt(r, "withdraw"),
			BankName:       r.URL.Query().Get("bank_name"),
			WalletApp:      r.URL.Query().Get("wallet_app") == "true",
		}
		if v := queryInt(r, "api_type"); v != nil {
			t := domain.APIType(*v)
			criteria.APIType = &t
		} else if criteria.WalletApp {
			// wallet_app alone implies the api_type=1 carve-out
			t := domain.APITypeBankingApp
			criteria.APIType = &t
		}

		snap, err := agg.DomainAccounts(ctx, domainURL, criteria)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := banksListResponse{
			Domain:   snap.Domain,
			State:    snap.State,
			Error:    snap.Error,
			Accounts: make([]accountView, 0, len(snap.Accounts)),
		}
		for _, acc := range snap.Accounts {
			resp.Accounts = append(resp.Accounts, accountView{
				BankAccount:  acc,
				APITypeLabel: acc.APITypeLabel(),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
