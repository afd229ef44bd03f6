package observability

import (
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the dashboard BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	fetchErrors     *prometheus.CounterVec
	fetchTotal      *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	exchangeRate    prometheus.Gauge
	ratePolls       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bff_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		fetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_fetch_errors_total",
				Help: "Total failed fetches from external sources.",
			},
			[]string{"source"},
		),
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_fetches_total",
				Help: "Total fetches issued to external sources.",
			},
			[]string{"source"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		exchangeRate: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bff_exchange_rate_thb_usdt",
				Help: "Effective THB per USDT rate currently in use.",
			},
		),
		ratePolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_rate_polls_total",
				Help: "Exchange-rate poll outcomes.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrFetch increments the fetch counter for a source.
func (m *Metrics) IncrFetch(source string) {
	m.fetchTotal.WithLabelValues(source).Inc()
}

// IncrFetchError increments the fetch error counter for a source.
func (m *Metrics) IncrFetchError(source string) {
	m.fetchErrors.WithLabelValues(source).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// SetExchangeRate publishes the effective rate.
func (m *Metrics) SetExchangeRate(rate float64) {
	m.exchangeRate.Set(rate)
}

// IncrRatePoll records one exchange-rate poll outcome ("success"/"error").
func (m *Metrics) IncrRatePoll(outcome string) {
	m.ratePolls.WithLabelValues(outcome).Inc()
}

// FetchSnapshot returns a point-in-time view of fetch counters per source,
// suitable for the GET /v1/metrics/fetch endpoint.
func (m *Metrics) FetchSnapshot(sources ...string) map[string]domain.FetchStats {
	out := make(map[string]domain.FetchStats, len(sources))
	for _, s := range sources {
		total := getCounterValue(m.fetchTotal, s)
		errs := getCounterValue(m.fetchErrors, s)
		errRate := float64(0)
		if total > 0 {
			errRate = errs / total
		}
		out[s] = domain.FetchStats{
			Total:     int64(total),
			Errors:    int64(errs),
			ErrorRate: errRate,
		}
	}
	return out
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
