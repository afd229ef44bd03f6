// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
)

// BankFetcher retrieves the bank-account list of one remote domain.
type BankFetcher interface {
	GetBanks(ctx context.Context, domainURL string) ([]domain.BankAccount, error)
}

// ReportFetcher talks to the credit-agent backend: login for a session
// token, then the win/lose report for a date range.
type ReportFetcher interface {
	Login(ctx context.Context) (token string, err error)
	GetReport(ctx context.Context, token string, start, end time.Time) (*domain.ReportSummary, []domain.AgentPerformanceRecord, error)
}

// PriceFeed returns the current THB price of one USDT.
type PriceFeed interface {
	TetherTHB(ctx context.Context) (float64, error)
}

// WalletClient talks to the TrueWallet member API on the operator's behalf.
type WalletClient interface {
	CheckBalance(ctx context.Context, accessToken string) (*domain.TrueWalletBalance, error)
	ListKeys(ctx context.Context, accessToken string) ([]domain.TrueWalletKey, error)
}

// ExchangeClient fetches third-party exchange balances (OKX).
type ExchangeClient interface {
	FundingBalances(ctx context.Context, currency string) ([]domain.OKXBalance, error)
}

// DomainStore persists the domain registry (active-flag table).
type DomainStore interface {
	ListActive(ctx context.Context) ([]domain.Domain, error)
	Create(ctx context.Context, url, name string) (*domain.Domain, error)
	Deactivate(ctx context.Context, id string) error
}

// RateSource exposes the current exchange rate to consumers.
type RateSource interface {
	Current() domain.ExchangeRate
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
