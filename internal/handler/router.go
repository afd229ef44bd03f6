package handler

import (
	"net/http"

	"github.com/payops/dashboard-bff-go/internal/infra/observability"
	"github.com/payops/dashboard-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// fetchSources are the external sources reported on the metrics snapshot.
var fetchSources = []string{"banks", "report", "truewallet", "okx"}

// Services groups everything the router exposes.
type Services struct {
	Aggregator *service.Aggregator
	Reconciler *service.Reconciler
	Rates      *service.RateManager
	Treasury   *service.Treasury
	Domains    *service.DomainsService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract defined for the operations dashboard.
func NewRouter(svcs Services, metrics *observability.Metrics, jwtSecret string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(jwtSecret, logger))

		// Bank aggregation
		r.Get("/banks/summary", banksSummaryHandler(svcs.Aggregator, logger))
		r.Get("/banks", banksListHandler(svcs.Aggregator, logger))

		// Domain registry
		r.Get("/domains", listDomainsHandler(svcs.Domains, logger))
		r.Post("/domains", createDomainHandler(svcs.Domains, logger))
		r.Delete("/domains/{domainId}", deleteDomainHandler(svcs.Domains, logger))

		// Performance report
		r.Get("/reports/performance", performanceReportHandler(svcs.Reconciler, logger))

		// Exchange rate
		r.Get("/exchange-rate", getExchangeRateHandler(svcs.Rates))
		r.Put("/exchange-rate/override", setRateOverrideHandler(svcs.Rates, logger))
		r.Delete("/exchange-rate/override", clearRateOverrideHandler(svcs.Rates))

		// Treasury
		r.Get("/treasury/truewallet", trueWalletStatusHandler(svcs.Treasury, logger))
		r.Get("/treasury/okx/balance", okxBalanceHandler(svcs.Treasury, logger))

		// Fetch counters as JSON
		r.Get("/metrics/fetch", fetchMetricsHandler(metrics))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func fetchMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.FetchSnapshot(fetchSources...))
	}
}
