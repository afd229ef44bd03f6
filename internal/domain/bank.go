package domain

import "time"

// Bank account status flags as delivered by the per-domain admin APIs.
// The upstream encodes these as 0/1 integers; keep them as ints so values
// we don't recognize survive a round-trip instead of collapsing to false.
const (
	StatusDisabled = 0
	StatusEnabled  = 1

	WithdrawBlocked = 0
	WithdrawAllowed = 1
)

// APIType enumerates how an account's balance is synced upstream.
type APIType int

const (
	APITypeUnspecified APIType = 0
	APITypeBankingApp  APIType = 1
	APITypeSMS         APIType = 4
	APITypeWebhook     APIType = 5
	APITypeSlip        APIType = 6
	APITypeVoucher     APIType = 7
)

// walletAppBankCode marks the TrueWallet variant: api_type 1 with this
// bank_code is its own category, distinct from a plain banking-app scrape.
const walletAppBankCode = "10"

// BankAccount is one physical bank account as reported by a domain's admin
// API. It is a read-only snapshot; this service never mutates or persists it.
type BankAccount struct {
	ID             int64     `json:"id"`
	BankCode       string    `json:"bank_code"`
	BankName       string    `json:"bank_name"`
	AccountName    string    `json:"account_name"`
	BankNumber     string    `json:"bank_number"`
	APIType        APIType   `json:"api_type"`
	Balance        float64   `json:"balance"`
	Status         int       `json:"status"`
	StatusWithdraw int       `json:"status_withdraw"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// APITypeLabel returns the display label for the account's sync mechanism.
// Unrecognized values map to "unspecified" rather than failing.
func (a BankAccount) APITypeLabel() string {
	if a.APIType == APITypeBankingApp && a.BankCode == walletAppBankCode {
		return "wallet_app"
	}
	switch a.APIType {
	case APITypeBankingApp:
		return "banking_app"
	case APITypeSMS:
		return "sms"
	case APITypeWebhook:
		return "webhook"
	case APITypeSlip:
		return "slip"
	case APITypeVoucher:
		return "voucher"
	default:
		return "unspecified"
	}
}

// Domain is a registered remote service whose bank/report APIs are queried.
// Identity is the URL; deactivation is a soft delete (IsActive=false).
type Domain struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotState tells the three fetch outcomes apart. A domain that answered
// with zero accounts is Success; only transport/shape failures are Error.
type SnapshotState string

const (
	SnapshotPending SnapshotState = "pending"
	SnapshotSuccess SnapshotState = "success"
	SnapshotError   SnapshotState = "error"
)

// DomainSnapshot pairs a domain with the accounts fetched from it at one
// point in time. Never persisted; rebuilt on every aggregation.
type DomainSnapshot struct {
	Domain    Domain        `json:"domain"`
	Accounts  []BankAccount `json:"accounts"`
	State     SnapshotState `json:"state"`
	Error     string        `json:"error,omitempty"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// BankSummary aggregates account counts and balances, either across all
// domains or scoped to one.
type BankSummary struct {
	TotalBanks           int     `json:"totalBanks"`
	ActiveBanks          int     `json:"activeBanks"`
	InactiveBanks        int     `json:"inactiveBanks"`
	TotalBalance         float64 `json:"totalBalance"`
	WithdrawableBanks    int     `json:"withdrawableBanks"`
	NonWithdrawableBanks int     `json:"nonWithdrawableBanks"`
}

// DomainSummary is a per-domain BankSummary plus the fetch outcome, so a
// failed domain is visibly failed instead of silently contributing zeros.
type DomainSummary struct {
	Domain Domain        `json:"domain"`
	State  SnapshotState `json:"state"`
	Error  string        `json:"error,omitempty"`
	BankSummary
}

// AggregateResult is the whole bank-list view: one global roll-up, one
// summary per domain, and the list of domains that failed to answer.
type AggregateResult struct {
	Global        BankSummary     `json:"global"`
	Domains       []DomainSummary `json:"domains"`
	FailedDomains []string        `json:"failedDomains"`
}

// FilterCriteria holds the faceted filters for one domain's account list.
// Each field is optional; set fields combine with logical AND.
type FilterCriteria struct {
	// Search matches case-insensitively against bank name, account name
	// and account number.
	Search string
	// Status / StatusWithdraw filter on the exact flag value when non-nil.
	Status         *int
	StatusWithdraw *int
	// APIType filters by sync mechanism. The wallet-app variant is selected
	// with APIType=1 and WalletApp=true.
	APIType   *APIType
	WalletApp bool
	// BankName is an exact-match bank type filter.
	BankName string
}
