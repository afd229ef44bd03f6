package service

import (
	"context"
	"strings"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/observability"
	"github.com/payops/dashboard-bff-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// msisdnSuffixLen is how many trailing digits tie a wallet's phone number
// to one of the account's API keys.
const msisdnSuffixLen = 5

// Treasury surfaces third-party wallet and exchange balances: TrueWallet
// (with API-key matching) and the OKX funding account.
type Treasury struct {
	wallet   port.WalletClient
	exchange port.ExchangeClient
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewTreasury creates the treasury service with all dependencies injected.
func NewTreasury(wallet port.WalletClient, exchange port.ExchangeClient, metrics *observability.Metrics, logger *zap.Logger) *Treasury {
	return &Treasury{
		wallet:   wallet,
		exchange: exchange,
		metrics:  metrics,
		logger:   logger,
	}
}

// TrueWalletStatus fetches the wallet balance and key list concurrently and
// pairs the balance with the API key whose msisdn shares the wallet's last
// five digits, if any.
func (t *Treasury) TrueWalletStatus(ctx context.Context, accessToken string) (*domain.TrueWalletStatus, error) {
	ctx, span := tracer.Start(ctx, "Treasury.TrueWalletStatus")
	defer span.End()

	start := time.Now()
	defer func() {
		t.metrics.RecordRequestDuration("truewallet_status", time.Since(start))
	}()

	if accessToken == "" {
		return nil, &domain.ErrValidation{Field: "access_token", Message: "is required"}
	}

	var (
		balance *domain.TrueWalletBalance
		keys    []domain.TrueWalletKey
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t.metrics.IncrFetch("truewallet")
		b, err := t.wallet.CheckBalance(gCtx, accessToken)
		if err != nil {
			t.metrics.IncrFetchError("truewallet")
			return err
		}
		balance = b
		return nil
	})

	g.Go(func() error {
		t.metrics.IncrFetch("truewallet")
		k, err := t.wallet.ListKeys(gCtx, accessToken)
		if err != nil {
			t.metrics.IncrFetchError("truewallet")
			return err
		}
		keys = k
		return nil
	})

	if err := g.Wait(); err != nil {
		t.logger.Error("truewallet status failed", zap.Error(err))
		return nil, err
	}

	return &domain.TrueWalletStatus{
		Balance:    *balance,
		MatchedKey: MatchKeyByMsisdn(keys, balance.Msisdn),
	}, nil
}

// MatchKeyByMsisdn finds the first key whose msisdn ends with the wallet
// number's last five digits. Nil when the number is too short or no key
// matches.
func MatchKeyByMsisdn(keys []domain.TrueWalletKey, msisdn string) *domain.TrueWalletKey {
	if len(msisdn) < msisdnSuffixLen {
		return nil
	}
	suffix := msisdn[len(msisdn)-msisdnSuffixLen:]

	for i := range keys {
		if strings.HasSuffix(keys[i].Msisdn, suffix) {
			return &keys[i]
		}
	}
	return nil
}

// OKXBalance fetches the USDT funding-account balance.
func (t *Treasury) OKXBalance(ctx context.Context) ([]domain.OKXBalance, error) {
	ctx, span := tracer.Start(ctx, "Treasury.OKXBalance")
	defer span.End()

	t.metrics.IncrFetch("okx")
	balances, err := t.exchange.FundingBalances(ctx, "USDT")
	if err != nil {
		t.metrics.IncrFetchError("okx")
		t.logger.Error("okx balance fetch failed", zap.Error(err))
		return nil, err
	}
	return balances, nil
}
