package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// bankPayload is the wire shape of one account in {domain}/api/admin/banks.
// updated_at arrives as a string whose format the domains do not guarantee.
type bankPayload struct {
	ID             int64   `json:"id"`
	BankCode       string  `json:"bank_code"`
	BankName       string  `json:"bank_name"`
	AccountName    string  `json:"account_name"`
	BankNumber     string  `json:"bank_number"`
	APIType        int     `json:"api_type"`
	Balance        float64 `json:"balance"`
	Status         int     `json:"status"`
	StatusWithdraw int     `json:"status_withdraw"`
	UpdatedAt      string  `json:"updated_at"`
}

// BanksClient fetches bank-account lists from the per-domain admin APIs.
// Each domain gets its own circuit breaker: one flapping domain must not
// open the circuit for its siblings.
type BanksClient struct {
	httpClient *http.Client
	cfg        resilience.Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBanksClient creates a BanksClient. cfg is the fixed-backoff retry
// budget applied to every domain independently.
func NewBanksClient(httpClient *http.Client, cfg resilience.Config) *BanksClient {
	return &BanksClient{
		httpClient: httpClient,
		cfg:        cfg,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *BanksClient) breaker(domainURL string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[domainURL]
	if !ok {
		cb = resilience.NewCircuitBreaker("banks:" + domainURL)
		c.breakers[domainURL] = cb
	}
	return cb
}

// GetBanks fetches one domain's account list with fixed-backoff retry,
// a per-domain circuit breaker, and tracing. A 2xx payload without the
// expected `data` field is a fetch error, not a crash.
func (c *BanksClient) GetBanks(ctx context.Context, domainURL string) ([]domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "BanksClient.GetBanks")
	defer span.End()
	span.SetAttributes(attribute.String("bank.domain", domainURL))

	var accounts []domain.BankAccount

	result, err := c.breaker(domainURL).Execute(func() (any, error) {
		innerErr := resilience.RetryFixed(ctx, c.cfg, func() error {
			url := strings.TrimRight(domainURL, "/") + "/api/admin/banks"
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("bank API returned status %d", resp.StatusCode)
			}

			var payload struct {
				Data *[]bankPayload `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return err
			}
			if payload.Data == nil {
				return &domain.ErrShapeMismatch{Service: "banks", Field: "data"}
			}

			accounts = make([]domain.BankAccount, 0, len(*payload.Data))
			for _, p := range *payload.Data {
				accounts = append(accounts, toBankAccount(p))
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return accounts, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "banks", Err: err}
	}

	return result.([]domain.BankAccount), nil
}

func toBankAccount(p bankPayload) domain.BankAccount {
	return domain.BankAccount{
		ID:             p.ID,
		BankCode:       p.BankCode,
		BankName:       p.BankName,
		AccountName:    p.AccountName,
		BankNumber:     p.BankNumber,
		APIType:        domain.APIType(p.APIType),
		Balance:        p.Balance,
		Status:         p.Status,
		StatusWithdraw: p.StatusWithdraw,
		UpdatedAt:      parseUpdatedAt(p.UpdatedAt),
	}
}

// parseUpdatedAt copes with the timestamp formats observed across domains.
// An unparseable value maps to the zero time, which sorts last.
func parseUpdatedAt(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
