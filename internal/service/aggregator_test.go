package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/cache"
	"github.com/payops/dashboard-bff-go/internal/infra/observability"
	"github.com/payops/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockDomainStore struct {
	domains []domain.Domain
	err     error
}

func (m *mockDomainStore) ListActive(_ context.Context) ([]domain.Domain, error) {
	return m.domains, m.err
}

func (m *mockDomainStore) Create(_ context.Context, url, name string) (*domain.Domain, error) {
	return &domain.Domain{URL: url, Name: name, IsActive: true}, nil
}

func (m *mockDomainStore) Deactivate(_ context.Context, _ string) error {
	return nil
}

// mockBankFetcher answers per domain URL so one domain can fail while its
// siblings succeed.
type mockBankFetcher struct {
	accounts map[string][]domain.BankAccount
	errs     map[string]error
	calls    map[string]int
}

func (m *mockBankFetcher) GetBanks(_ context.Context, domainURL string) ([]domain.BankAccount, error) {
	if m.calls != nil {
		m.calls[domainURL]++
	}
	if err := m.errs[domainURL]; err != nil {
		return nil, err
	}
	return m.accounts[domainURL], nil
}

func newAggregator(store *mockDomainStore, banks *mockBankFetcher) *service.Aggregator {
	return service.NewAggregator(
		store,
		banks,
		cache.New[domain.DomainSnapshot](time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

// --- Tests ---

func TestOverview_FailedDomainExcludedFromTotals(t *testing.T) {
	store := &mockDomainStore{domains: []domain.Domain{
		{ID: "a", URL: "https://a.example.com", Name: "a", IsActive: true},
		{ID: "b", URL: "https://b.example.com", Name: "b", IsActive: true},
	}}
	banks := &mockBankFetcher{
		accounts: map[string][]domain.BankAccount{
			"https://a.example.com": {
				{ID: 1, Balance: 100, Status: domain.StatusEnabled, StatusWithdraw: domain.WithdrawAllowed},
				{ID: 2, Balance: 200, Status: domain.StatusEnabled, StatusWithdraw: domain.WithdrawBlocked},
				{ID: 3, Balance: -50, Status: domain.StatusDisabled, StatusWithdraw: domain.WithdrawBlocked},
			},
		},
		errs: map[string]error{
			"https://b.example.com": errors.New("connection refused"),
		},
	}

	result, err := newAggregator(store, banks).Overview(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Global.TotalBanks != 3 {
		t.Errorf("expected 3 total banks, got %d", result.Global.TotalBanks)
	}
	if result.Global.ActiveBanks != 2 {
		t.Errorf("expected 2 active banks, got %d", result.Global.ActiveBanks)
	}
	if result.Global.TotalBalance != 250 {
		t.Errorf("expected total balance 250, got %f", result.Global.TotalBalance)
	}
	if len(result.FailedDomains) != 1 || result.FailedDomains[0] != "https://b.example.com" {
		t.Errorf("expected failed domain b, got %v", result.FailedDomains)
	}
	if len(result.Domains) != 2 {
		t.Fatalf("expected 2 domain summaries, got %d", len(result.Domains))
	}
	for _, ds := range result.Domains {
		if ds.Domain.URL == "https://b.example.com" && ds.State != domain.SnapshotError {
			t.Errorf("expected domain b in error state, got %s", ds.State)
		}
	}
}

func TestOverview_ActivePlusInactiveEqualsTotal(t *testing.T) {
	store := &mockDomainStore{domains: []domain.Domain{
		{ID: "a", URL: "https://a.example.com", IsActive: true},
	}}
	banks := &mockBankFetcher{
		accounts: map[string][]domain.BankAccount{
			"https://a.example.com": {
				{ID: 1, Status: domain.StatusEnabled},
				{ID: 2, Status: domain.StatusDisabled},
				{ID: 3, Status: domain.StatusDisabled},
				{ID: 4, Status: domain.StatusEnabled},
			},
		},
	}

	result, err := newAggregator(store, banks).Overview(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	g := result.Global
	if g.ActiveBanks+g.InactiveBanks != g.TotalBanks {
		t.Errorf("active (%d) + inactive (%d) != total (%d)", g.ActiveBanks, g.InactiveBanks, g.TotalBanks)
	}
	if g.WithdrawableBanks+g.NonWithdrawableBanks != g.TotalBanks {
		t.Errorf("withdrawable (%d) + non-withdrawable (%d) != total (%d)", g.WithdrawableBanks, g.NonWithdrawableBanks, g.TotalBanks)
	}
}

func TestOverview_StoreError(t *testing.T) {
	store := &mockDomainStore{err: errors.New("registry down")}
	banks := &mockBankFetcher{}

	_, err := newAggregator(store, banks).Overview(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestFetchAllDomains_SnapshotCached(t *testing.T) {
	store := &mockDomainStore{domains: []domain.Domain{
		{ID: "a", URL: "https://a.example.com", IsActive: true},
	}}
	banks := &mockBankFetcher{
		accounts: map[string][]domain.BankAccount{
			"https://a.example.com": {{ID: 1}},
		},
		calls: map[string]int{},
	}
	agg := newAggregator(store, banks)

	if _, err := agg.FetchAllDomains(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := agg.FetchAllDomains(context.Background()); err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if banks.calls["https://a.example.com"] != 1 {
		t.Errorf("expected 1 upstream call within TTL, got %d", banks.calls["https://a.example.com"])
	}
}

func TestDomainAccounts_UnknownDomain(t *testing.T) {
	store := &mockDomainStore{domains: []domain.Domain{
		{ID: "a", URL: "https://a.example.com", IsActive: true},
	}}
	banks := &mockBankFetcher{}

	_, err := newAggregator(store, banks).DomainAccounts(context.Background(), "https://nope.example.com", domain.FilterCriteria{})

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilterAccounts_Idempotent(t *testing.T) {
	accounts := []domain.BankAccount{
		{ID: 1, BankName: "kbank", AccountName: "Alice", Status: domain.StatusEnabled},
		{ID: 2, BankName: "scb", AccountName: "Bob", Status: domain.StatusDisabled},
		{ID: 3, BankName: "kbank", AccountName: "Carol", Status: domain.StatusEnabled},
	}
	status := domain.StatusEnabled
	criteria := domain.FilterCriteria{Status: &status, BankName: "kbank"}

	once := service.FilterAccounts(accounts, criteria)
	twice := service.FilterAccounts(once, criteria)

	if len(once) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(once))
	}
	if len(twice) != len(once) {
		t.Errorf("filter is not idempotent: %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("filter reordered rows on second application")
		}
	}
}

func TestFilterAccounts_WalletAppCarveOut(t *testing.T) {
	accounts := []domain.BankAccount{
		{ID: 1, APIType: domain.APITypeBankingApp, BankCode: "10"}, // wallet app
		{ID: 2, APIType: domain.APITypeBankingApp, BankCode: "04"}, // plain banking app
		{ID: 3, APIType: domain.APITypeSMS, BankCode: "10"},
	}

	appType := domain.APITypeBankingApp

	wallet := service.FilterAccounts(accounts, domain.FilterCriteria{APIType: &appType, WalletApp: true})
	if len(wallet) != 1 || wallet[0].ID != 1 {
		t.Errorf("expected only the wallet-app account, got %v", wallet)
	}

	plain := service.FilterAccounts(accounts, domain.FilterCriteria{APIType: &appType})
	if len(plain) != 1 || plain[0].ID != 2 {
		t.Errorf("expected only the plain banking-app account, got %v", plain)
	}
}

func TestSortAccounts_StatusThenRecency(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	accounts := []domain.BankAccount{
		{ID: 1, Status: domain.StatusDisabled, UpdatedAt: t0.Add(3 * time.Hour)},
		{ID: 2, Status: domain.StatusEnabled, UpdatedAt: t0.Add(time.Hour)},
		{ID: 3, Status: domain.StatusEnabled, UpdatedAt: t0.Add(2 * time.Hour)},
	}

	sorted := service.SortAccounts(accounts)

	want := []int64{3, 2, 1}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: expected account %d, got %d", i, id, sorted[i].ID)
		}
	}
	if accounts[0].ID != 1 {
		t.Error("sort mutated its input")
	}
}

func TestSortAccounts_StableOnTies(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	accounts := []domain.BankAccount{
		{ID: 10, Status: domain.StatusEnabled, UpdatedAt: t0},
		{ID: 11, Status: domain.StatusEnabled, UpdatedAt: t0},
		{ID: 12, Status: domain.StatusEnabled, UpdatedAt: t0},
	}

	sorted := service.SortAccounts(service.SortAccounts(accounts))

	for i, acc := range accounts {
		if sorted[i].ID != acc.ID {
			t.Fatalf("tie order changed: position %d is %d, want %d", i, sorted[i].ID, acc.ID)
		}
	}
}

func TestSummarize_EmptySnapshotIsSuccess(t *testing.T) {
	result := service.Summarize([]domain.DomainSnapshot{
		{
			Domain: domain.Domain{URL: "https://a.example.com"},
			State:  domain.SnapshotSuccess,
		},
	})

	if len(result.FailedDomains) != 0 {
		t.Errorf("zero accounts is not a failure, got %v", result.FailedDomains)
	}
	if result.Global.TotalBanks != 0 {
		t.Errorf("expected 0 banks, got %d", result.Global.TotalBanks)
	}
}
