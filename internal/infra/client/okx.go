package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// OKXClient fetches funding-account balances from OKX. Requests are signed
// per the OKX v5 contract: base64(HMAC-SHA256(timestamp+method+path)).
type OKXClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	secretKey  string
	passphrase string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewOKXClient creates an OKXClient.
func NewOKXClient(httpClient *http.Client, baseURL, apiKey, secretKey, passphrase string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *OKXClient {
	return &OKXClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		secretKey:  secretKey,
		passphrase: passphrase,
		cb:         cb,
		cfg:        cfg,
	}
}

func (c *OKXClient) sign(timestamp, method, requestPath string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(timestamp + method + requestPath))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// FundingBalances fetches the funding-account balances, optionally filtered
// to one currency.
func (c *OKXClient) FundingBalances(ctx context.Context, currency string) ([]domain.OKXBalance, error) {
	ctx, span := tracer.Start(ctx, "OKXClient.FundingBalances")
	defer span.End()
	span.SetAttributes(attribute.String("okx.currency", currency))

	requestPath := "/api/v5/asset/balances"
	if currency != "" {
		requestPath += "?ccy=" + currency
	}

	var balances []domain.OKXBalance

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestPath, nil)
			if err != nil {
				return err
			}

			timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
			req.Header.Set("OK-ACCESS-KEY", c.apiKey)
			req.Header.Set("OK-ACCESS-SIGN", c.sign(timestamp, http.MethodGet, requestPath))
			req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
			req.Header.Set("OK-ACCESS-PASSPHRASE", c.passphrase)
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var payload struct {
				Code string              `json:"code"`
				Msg  string              `json:"msg"`
				Data []domain.OKXBalance `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return err
			}

			if resp.StatusCode != http.StatusOK || payload.Code != "0" {
				return fmt.Errorf("OKX API error: status=%d code=%s msg=%s", resp.StatusCode, payload.Code, payload.Msg)
			}

			balances = payload.Data
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return balances, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "okx", Err: err}
	}

	return balances, nil
}
