package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/observability"
	"github.com/payops/dashboard-bff-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Risk levels derived from average ROI, matching the operator's rubric.
const (
	RiskLow    = "low"    // avg ROI > 5%
	RiskMedium = "medium" // avg ROI > 0%
	RiskHigh   = "high"
)

// Reconciler turns one report payload into ranked, ratio-annotated,
// dual-currency views. The upstream session token is held in memory only
// and re-acquired when it expires.
type Reconciler struct {
	client  port.ReportFetcher
	rates   port.RateSource
	metrics *observability.Metrics
	logger  *zap.Logger

	mu    sync.Mutex
	token string
}

// NewReconciler creates the reconciler service with all dependencies injected.
func NewReconciler(client port.ReportFetcher, rates port.RateSource, metrics *observability.Metrics, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		client:  client,
		rates:   rates,
		metrics: metrics,
		logger:  logger,
	}
}

// sessionToken returns the cached upstream token, logging in if none is held.
func (r *Reconciler) sessionToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" {
		return r.token, nil
	}

	token, err := r.client.Login(ctx)
	if err != nil {
		return "", err
	}
	r.token = token
	return token, nil
}

func (r *Reconciler) invalidateToken() {
	r.mu.Lock()
	r.token = ""
	r.mu.Unlock()
}

// GetPerformanceReport fetches and reconciles the report for [start, end].
// Token acquisition failure is fatal to the whole view; an empty date range
// is a legitimate empty report, not an error.
func (r *Reconciler) GetPerformanceReport(ctx context.Context, start, end time.Time, sortKey, dir string, page, pageSize int) (*domain.PerformanceReport, error) {
	ctx, span := tracer.Start(ctx, "Reconciler.GetPerformanceReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("report.sort", sortKey),
		attribute.Int("report.page", page),
	)

	startedAt := time.Now()
	defer func() {
		r.metrics.RecordRequestDuration("performance_report", time.Since(startedAt))
	}()

	token, err := r.sessionToken(ctx)
	if err != nil {
		r.metrics.IncrFetchError("report")
		return nil, err
	}

	r.metrics.IncrFetch("report")
	summary, records, err := r.client.GetReport(ctx, token, start, end)

	// One re-login when the session expired mid-flight.
	var unauthorized *domain.ErrUnauthorized
	if errors.As(err, &unauthorized) {
		r.invalidateToken()
		if token, err = r.sessionToken(ctx); err != nil {
			r.metrics.IncrFetchError("report")
			return nil, err
		}
		summary, records, err = r.client.GetReport(ctx, token, start, end)
	}
	if err != nil {
		r.logger.Error("report fetch failed", zap.Error(err))
		r.metrics.IncrFetchError("report")
		return nil, err
	}

	rate := r.rates.Current()

	agents := make([]domain.AnnotatedAgent, 0, len(records))
	for _, rec := range records {
		agents = append(agents, domain.AnnotatedAgent{
			AgentPerformanceRecord: rec,
			Metrics:                ComputeRatios(rec, rate.Effective),
		})
	}

	analytics := Analyze(agents)
	ranked := Rank(agents, sortKey, dir)

	total := len(ranked)
	pageRows := paginate(ranked, page, pageSize)

	return &domain.PerformanceReport{
		Summary:   *summary,
		Agents:    pageRows,
		Analytics: analytics,
		Rate:      rate,
		Page:      page,
		PageSize:  pageSize,
		TotalRows: total,
	}, nil
}

// ComputeRatios derives the per-agent metrics. Every ratio guards the
// zero-denominator case identically: 0, never NaN or Inf.
func ComputeRatios(rec domain.AgentPerformanceRecord, rate float64) domain.DerivedMetrics {
	bet := math.Abs(rec.BetAmt)

	m := domain.DerivedMetrics{
		AgentTotalUSDT:  ConvertCurrency(rec.AgentTotal, rate),
		CompanyWlUSDT:   ConvertCurrency(rec.CompanyWl, rate),
		MemberTotalUSDT: ConvertCurrency(rec.MemberTotal, rate),
	}
	if bet == 0 {
		return m
	}

	m.WinRate = math.Abs(rec.AgentTotal) / bet * 100
	m.ValidRatio = math.Abs(rec.ValidAmt) / bet * 100
	m.ROI = rec.AgentTotal / bet * 100
	if valid := math.Abs(rec.ValidAmt); valid > 0 {
		m.ProfitMargin = rec.AgentTotal / valid * 100
	}
	return m
}

// Rank stably sorts agents by the given key and direction. Unknown keys
// fall back to agentTotal; direction defaults to descending.
func Rank(agents []domain.AnnotatedAgent, key, dir string) []domain.AnnotatedAgent {
	out := make([]domain.AnnotatedAgent, len(agents))
	copy(out, agents)

	asc := dir == "asc"

	value := func(a domain.AnnotatedAgent) float64 {
		switch key {
		case "companyWl":
			return a.CompanyWl
		case "memberTotal":
			return a.MemberTotal
		case "betAmt":
			return math.Abs(a.BetAmt)
		case "validAmt":
			return math.Abs(a.ValidAmt)
		case "winLoseTotal":
			return a.WinLoseTotal
		case "winRate":
			return a.Metrics.WinRate
		default:
			return a.AgentTotal
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if key == "name" {
			ni := strings.ToLower(out[i].Identity.Name)
			nj := strings.ToLower(out[j].Identity.Name)
			if asc {
				return ni < nj
			}
			return ni > nj
		}
		if asc {
			return value(out[i]) < value(out[j])
		}
		return value(out[i]) > value(out[j])
	})
	return out
}

// BucketByProfitTier partitions agents by net profit:
// high > 50000 >= medium > 10000 >= low > 0 >= loss.
func BucketByProfitTier(agents []domain.AnnotatedAgent) domain.ProfitTierCounts {
	var tiers domain.ProfitTierCounts
	for _, a := range agents {
		switch {
		case a.AgentTotal > domain.TierHighMin:
			tiers.High++
		case a.AgentTotal > domain.TierMediumMin:
			tiers.Medium++
		case a.AgentTotal > 0:
			tiers.Low++
		default:
			tiers.Loss++
		}
	}
	return tiers
}

// TopPerformer returns the agent with the highest net profit; ties go to
// the first-seen agent. Nil for an empty list.
func TopPerformer(agents []domain.AnnotatedAgent) *domain.AnnotatedAgent {
	var best *domain.AnnotatedAgent
	for i := range agents {
		if best == nil || agents[i].AgentTotal > best.AgentTotal {
			best = &agents[i]
		}
	}
	return best
}

// BottomPerformer returns the agent with the lowest net profit; ties go to
// the first-seen agent. Nil for an empty list.
func BottomPerformer(agents []domain.AnnotatedAgent) *domain.AnnotatedAgent {
	var worst *domain.AnnotatedAgent
	for i := range agents {
		if worst == nil || agents[i].AgentTotal < worst.AgentTotal {
			worst = &agents[i]
		}
	}
	return worst
}

// topBettor returns the agent with the highest absolute wagered amount.
func topBettor(agents []domain.AnnotatedAgent) *domain.AnnotatedAgent {
	var best *domain.AnnotatedAgent
	for i := range agents {
		if best == nil || math.Abs(agents[i].BetAmt) > math.Abs(best.BetAmt) {
			best = &agents[i]
		}
	}
	return best
}

// Analyze computes the cross-agent figures for the analytics cards.
func Analyze(agents []domain.AnnotatedAgent) domain.ReportAnalytics {
	analytics := domain.ReportAnalytics{
		Tiers:     BucketByProfitTier(agents),
		RiskLevel: RiskHigh,
	}
	if len(agents) == 0 {
		return analytics
	}

	var (
		sumWinRate  float64
		sumROI      float64
		sumValidAbs float64
		sumBetAbs   float64
	)
	for _, a := range agents {
		sumWinRate += a.Metrics.WinRate
		sumROI += a.Metrics.ROI
		sumValidAbs += math.Abs(a.ValidAmt)
		sumBetAbs += math.Abs(a.BetAmt)
		if a.AgentTotal > 0 {
			analytics.ProfitableAgents++
		}
	}

	n := float64(len(agents))
	analytics.AverageWinRate = sumWinRate / n
	analytics.AverageROI = sumROI / n
	analytics.ProfitableAgentsRatio = float64(analytics.ProfitableAgents) / n * 100
	if sumBetAbs > 0 {
		analytics.ValidBetRatio = sumValidAbs / sumBetAbs * 100
	}

	switch {
	case analytics.AverageROI > 5:
		analytics.RiskLevel = RiskLow
	case analytics.AverageROI > 0:
		analytics.RiskLevel = RiskMedium
	}

	analytics.TopPerformer = TopPerformer(agents)
	analytics.BottomPerformer = BottomPerformer(agents)
	analytics.TopBettor = topBettor(agents)
	return analytics
}

func paginate(agents []domain.AnnotatedAgent, page, pageSize int) []domain.AnnotatedAgent {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(agents) {
		return []domain.AnnotatedAgent{}
	}
	end := start + pageSize
	if end > len(agents) {
		end = len(agents)
	}
	return agents[start:end]
}
