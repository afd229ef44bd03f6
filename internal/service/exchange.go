package service

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/observability"
	"github.com/payops/dashboard-bff-go/internal/port"

	"go.uber.org/zap"
)

// RateManager maintains the THB/USDT rate: polls the price feed on a fixed
// interval, applies the operator's spread, and honors a manual override.
// The poller is an explicit task: Start launches it, Stop cancels it.
type RateManager struct {
	feed     port.PriceFeed
	metrics  *observability.Metrics
	logger   *zap.Logger
	spread   float64
	interval time.Duration

	mu         sync.RWMutex
	quoted     float64
	effective  float64
	overridden bool
	updatedAt  time.Time

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRateManager creates a manager seeded with defaultRate, used until the
// first successful poll (and whenever the feed has never answered).
func NewRateManager(feed port.PriceFeed, spread, defaultRate float64, interval time.Duration, metrics *observability.Metrics, logger *zap.Logger) *RateManager {
	return &RateManager{
		feed:      feed,
		metrics:   metrics,
		logger:    logger,
		spread:    spread,
		interval:  interval,
		quoted:    defaultRate,
		effective: defaultRate - spread,
		updatedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Start launches the polling goroutine. It polls once immediately, then on
// every tick until Stop is called or ctx is cancelled.
func (m *RateManager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	go func() {
		defer close(m.done)

		m.refresh(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.refresh(ctx)
			}
		}
	}()
}

// Stop cancels the poller and waits for it to exit. Safe to call more than
// once.
func (m *RateManager) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
			<-m.done
		}
	})
}

// refresh polls the feed once. On failure the last-known rate is retained.
func (m *RateManager) refresh(ctx context.Context) {
	price, err := m.feed.TetherTHB(ctx)
	if err != nil {
		m.logger.Warn("exchange rate refresh failed, keeping last-known rate", zap.Error(err))
		m.metrics.IncrRatePoll("error")
		return
	}
	m.metrics.IncrRatePoll("success")

	m.mu.Lock()
	defer m.mu.Unlock()

	m.quoted = price
	m.updatedAt = time.Now()
	// An operator override must never be clobbered by the poller; the
	// quoted price keeps updating, the effective rate does not.
	if !m.overridden {
		m.effective = price - m.spread
		m.metrics.SetExchangeRate(m.effective)
	}
}

// Current returns the rate snapshot used for conversions.
func (m *RateManager) Current() domain.ExchangeRate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return domain.ExchangeRate{
		Quoted:     m.quoted,
		Effective:  m.effective,
		Overridden: m.overridden,
		UpdatedAt:  m.updatedAt,
	}
}

// SetOverride pins the effective rate to an operator-entered value.
func (m *RateManager) SetOverride(rate float64) error {
	if rate <= 0 {
		return &domain.ErrValidation{Field: "rate", Message: "must be positive"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.overridden = true
	m.effective = rate
	m.updatedAt = time.Now()
	m.metrics.SetExchangeRate(rate)
	return nil
}

// ClearOverride re-enables automatic refresh; the effective rate snaps back
// to the spread-adjusted quote immediately.
func (m *RateManager) ClearOverride() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.overridden = false
	m.effective = m.quoted - m.spread
	m.updatedAt = time.Now()
	m.metrics.SetExchangeRate(m.effective)
}

// ConvertCurrency converts a THB amount to USDT at the given rate, rounded
// to 2 decimals. A zero rate yields 0, never a non-finite value.
func ConvertCurrency(amountTHB, rate float64) float64 {
	if rate == 0 {
		return 0
	}
	return math.Round(amountTHB/rate*100) / 100
}
