package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/observability"
	"github.com/payops/dashboard-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// Aggregator produces the multi-domain bank view: a global summary, one
// summary per domain, and a filtered, sorted account list for a selected
// domain. Everything is recomputed from fresh (or briefly cached) snapshots;
// nothing is persisted.
type Aggregator struct {
	store   port.DomainStore
	banks   port.BankFetcher
	cache   port.Cache[domain.DomainSnapshot]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAggregator creates the aggregator service with all dependencies injected.
func NewAggregator(
	store port.DomainStore,
	banks port.BankFetcher,
	cache port.Cache[domain.DomainSnapshot],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Aggregator {
	return &Aggregator{
		store:   store,
		banks:   banks,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchAllDomains issues one independent fetch per registered domain.
// Failures are captured in the snapshot's error state; they never cancel
// sibling fetches, which is why every errgroup goroutine returns nil.
// Results are correlated by slice index, not arrival order.
func (a *Aggregator) FetchAllDomains(ctx context.Context) ([]domain.DomainSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Aggregator.FetchAllDomains")
	defer span.End()

	start := time.Now()
	defer func() {
		a.metrics.RecordRequestDuration("fetch_all_domains", time.Since(start))
	}()

	domains, err := a.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	span.SetAttributes(attribute.Int("domains.count", len(domains)))

	snapshots := make([]domain.DomainSnapshot, len(domains))
	g, gCtx := errgroup.WithContext(ctx)

	for i, d := range domains {
		i, d := i, d
		g.Go(func() error {
			snapshots[i] = a.fetchOne(gCtx, d)
			return nil
		})
	}

	// Goroutines never return an error; Wait only observes ctx cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (a *Aggregator) fetchOne(ctx context.Context, d domain.Domain) domain.DomainSnapshot {
	if cached, ok := a.cache.Get(d.URL); ok {
		a.metrics.IncrCacheHit("snapshot")
		cached.Domain = d
		return cached
	}
	a.metrics.IncrCacheMiss("snapshot")
	a.metrics.IncrFetch("banks")

	accounts, err := a.banks.GetBanks(ctx, d.URL)
	snap := domain.DomainSnapshot{
		Domain:    d,
		FetchedAt: time.Now(),
	}
	if err != nil {
		a.logger.Warn("domain fetch failed",
			zap.String("domain", d.URL),
			zap.Error(err),
		)
		a.metrics.IncrFetchError("banks")
		snap.State = domain.SnapshotError
		snap.Error = err.Error()
		return snap
	}

	snap.State = domain.SnapshotSuccess
	snap.Accounts = accounts
	a.cache.Set(d.URL, snap)
	return snap
}

// Overview fetches every domain and rolls the snapshots up.
func (a *Aggregator) Overview(ctx context.Context) (*domain.AggregateResult, error) {
	snapshots, err := a.FetchAllDomains(ctx)
	if err != nil {
		return nil, err
	}
	result := Summarize(snapshots)
	return &result, nil
}

// DomainAccounts returns the filtered, display-ordered account list of one
// domain. A failed snapshot comes back with its error state intact so the
// caller can render "unavailable" instead of an empty list.
func (a *Aggregator) DomainAccounts(ctx context.Context, domainURL string, criteria domain.FilterCriteria) (*domain.DomainSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Aggregator.DomainAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("bank.domain", domainURL))

	snapshots, err := a.FetchAllDomains(ctx)
	if err != nil {
		return nil, err
	}

	for i := range snapshots {
		if snapshots[i].Domain.URL != domainURL {
			continue
		}
		snap := snapshots[i]
		snap.Accounts = SortAccounts(FilterAccounts(snap.Accounts, criteria))
		return &snap, nil
	}

	return nil, &domain.ErrNotFound{Resource: "domain", ID: domainURL}
}

// Summarize rolls snapshots up into the aggregate view. Snapshots in error
// state contribute zero to every total and are listed in FailedDomains;
// the exclusion is visible, never silent.
func Summarize(snapshots []domain.DomainSnapshot) domain.AggregateResult {
	result := domain.AggregateResult{
		Domains:       make([]domain.DomainSummary, 0, len(snapshots)),
		FailedDomains: []string{},
	}

	for _, snap := range snapshots {
		ds := SummarizePerDomain(snap)
		result.Domains = append(result.Domains, ds)

		if snap.State == domain.SnapshotError {
			result.FailedDomains = append(result.FailedDomains, snap.Domain.URL)
			continue
		}

		result.Global.TotalBanks += ds.TotalBanks
		result.Global.ActiveBanks += ds.ActiveBanks
		result.Global.InactiveBanks += ds.InactiveBanks
		result.Global.TotalBalance += ds.TotalBalance
		result.Global.WithdrawableBanks += ds.WithdrawableBanks
		result.Global.NonWithdrawableBanks += ds.NonWithdrawableBanks
	}

	return result
}

// SummarizePerDomain computes one domain's aggregate fields.
func SummarizePerDomain(snap domain.DomainSnapshot) domain.DomainSummary {
	ds := domain.DomainSummary{
		Domain: snap.Domain,
		State:  snap.State,
		Error:  snap.Error,
	}
	if snap.State == domain.SnapshotError {
		return ds
	}

	for _, acc := range snap.Accounts {
		ds.TotalBanks++
		if acc.Status == domain.StatusEnabled {
			ds.ActiveBanks++
		} else {
			ds.InactiveBanks++
		}
		// Negative balances (debt) count toward the total too.
		ds.TotalBalance += acc.Balance
		if acc.StatusWithdraw == domain.WithdrawAllowed {
			ds.WithdrawableBanks++
		} else {
			ds.NonWithdrawableBanks++
		}
	}
	return ds
}

// FilterAccounts applies the faceted filters; set criteria combine with
// logical AND. Filtering is idempotent and never mutates the input.
func FilterAccounts(accounts []domain.BankAccount, criteria domain.FilterCriteria) []domain.BankAccount {
	search := strings.ToLower(strings.TrimSpace(criteria.Search))

	out := make([]domain.BankAccount, 0, len(accounts))
	for _, acc := range accounts {
		if search != "" &&
			!strings.Contains(strings.ToLower(acc.BankName), search) &&
			!strings.Contains(strings.ToLower(acc.AccountName), search) &&
			!strings.Contains(strings.ToLower(acc.BankNumber), search) {
			continue
		}
		if criteria.Status != nil && acc.Status != *criteria.Status {
			continue
		}
		if criteria.StatusWithdraw != nil && acc.StatusWithdraw != *criteria.StatusWithdraw {
			continue
		}
		if criteria.APIType != nil && !matchAPIType(acc, *criteria.APIType, criteria.WalletApp) {
			continue
		}
		if criteria.BankName != "" && acc.BankName != criteria.BankName {
			continue
		}
		out = append(out, acc)
	}
	return out
}

// matchAPIType applies the wallet-app carve-out: api_type 1 with bank_code
// "10" is its own category, disjoint from plain api_type 1.
func matchAPIType(acc domain.BankAccount, want domain.APIType, walletApp bool) bool {
	isWalletApp := acc.APIType == domain.APITypeBankingApp && acc.BankCode == "10"
	if walletApp {
		return isWalletApp
	}
	if want == domain.APITypeBankingApp {
		return acc.APIType == want && !isWalletApp
	}
	return acc.APIType == want
}

// SortAccounts orders accounts for display: enabled before disabled, then
// most recently synced first. The ordering is a fixed contract, and the
// sort is stable so repeated application cannot reshuffle ties.
func SortAccounts(accounts []domain.BankAccount) []domain.BankAccount {
	out := make([]domain.BankAccount, len(accounts))
	copy(out, accounts)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status > out[j].Status
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}
