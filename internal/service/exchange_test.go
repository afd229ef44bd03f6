package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/payops/dashboard-bff-go/internal/infra/observability"
	"github.com/payops/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockPriceFeed struct {
	mu    sync.Mutex
	price float64
	err   error
	calls int
}

func (m *mockPriceFeed) TetherTHB(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.price, nil
}

func (m *mockPriceFeed) set(price float64, err error) {
	m.mu.Lock()
	m.price = price
	m.err = err
	m.mu.Unlock()
}

func newRateManager(feed *mockPriceFeed) *service.RateManager {
	return service.NewRateManager(feed, 0.20, 35.0, time.Hour, observability.NewMetrics(), zap.NewNop())
}

func waitForCalls(t *testing.T, feed *mockPriceFeed, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		feed.mu.Lock()
		calls := feed.calls
		feed.mu.Unlock()
		if calls >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("poller never reached expected call count")
}

// --- Tests ---

func TestRateManager_DefaultBeforeFirstPoll(t *testing.T) {
	m := newRateManager(&mockPriceFeed{price: 36.0})

	rate := m.Current()
	if rate.Quoted != 35.0 {
		t.Errorf("expected seeded quote 35.0, got %f", rate.Quoted)
	}
	if rate.Effective != 34.8 {
		t.Errorf("expected spread applied to the seed, got %f", rate.Effective)
	}
}

func TestRateManager_SpreadAppliedOnRefresh(t *testing.T) {
	feed := &mockPriceFeed{price: 36.50}
	m := newRateManager(feed)

	m.Start(context.Background())
	defer m.Stop()
	waitForCalls(t, feed, 1)

	rate := m.Current()
	if rate.Quoted != 36.50 {
		t.Errorf("expected quoted 36.50, got %f", rate.Quoted)
	}
	if rate.Effective != 36.30 {
		t.Errorf("expected effective 36.30, got %f", rate.Effective)
	}
	if rate.Overridden {
		t.Error("no override was set")
	}
}

func TestRateManager_FeedErrorKeepsLastKnown(t *testing.T) {
	feed := &mockPriceFeed{err: errors.New("feed down")}
	m := newRateManager(feed)

	m.Start(context.Background())
	defer m.Stop()
	waitForCalls(t, feed, 1)

	rate := m.Current()
	if rate.Quoted != 35.0 || rate.Effective != 34.8 {
		t.Errorf("failed poll must not clear the last-known rate, got %+v", rate)
	}
}

func TestRateManager_OverrideSurvivesRefresh(t *testing.T) {
	feed := &mockPriceFeed{price: 36.0}
	m := newRateManager(feed)

	if err := m.SetOverride(40.0); err != nil {
		t.Fatalf("override: %v", err)
	}

	m.Start(context.Background())
	defer m.Stop()
	waitForCalls(t, feed, 1)

	rate := m.Current()
	if !rate.Overridden {
		t.Fatal("override flag lost")
	}
	if rate.Effective != 40.0 {
		t.Errorf("poller clobbered the override: effective %f", rate.Effective)
	}
	if rate.Quoted != 36.0 {
		t.Errorf("quoted price must keep updating under an override, got %f", rate.Quoted)
	}
}

func TestRateManager_ClearOverrideSnapsBack(t *testing.T) {
	feed := &mockPriceFeed{price: 36.0}
	m := newRateManager(feed)

	m.Start(context.Background())
	defer m.Stop()
	waitForCalls(t, feed, 1)

	if err := m.SetOverride(40.0); err != nil {
		t.Fatalf("override: %v", err)
	}
	m.ClearOverride()

	rate := m.Current()
	if rate.Overridden {
		t.Error("override flag still set")
	}
	if rate.Effective != 35.80 {
		t.Errorf("expected snap back to quoted minus spread, got %f", rate.Effective)
	}
}

func TestRateManager_OverrideRejectsNonPositive(t *testing.T) {
	m := newRateManager(&mockPriceFeed{})

	if err := m.SetOverride(0); err == nil {
		t.Error("expected validation error for 0")
	}
	if err := m.SetOverride(-5); err == nil {
		t.Error("expected validation error for negative rate")
	}
}

func TestRateManager_StopIsIdempotent(t *testing.T) {
	feed := &mockPriceFeed{price: 36.0}
	m := newRateManager(feed)

	m.Start(context.Background())
	waitForCalls(t, feed, 1)

	m.Stop()
	m.Stop()

	feed.set(50.0, nil)
	time.Sleep(20 * time.Millisecond)

	if m.Current().Quoted == 50.0 {
		t.Error("poller still running after Stop")
	}
}
