package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
)

// PriceFeedClient fetches the tether/THB quote from the CoinGecko simple
// price API.
type PriceFeedClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewPriceFeedClient creates a PriceFeedClient.
func NewPriceFeedClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *PriceFeedClient {
	return &PriceFeedClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// TetherTHB returns the current THB price of one USDT.
func (c *PriceFeedClient) TetherTHB(ctx context.Context) (float64, error) {
	ctx, span := tracer.Start(ctx, "PriceFeedClient.TetherTHB")
	defer span.End()

	var price float64

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := c.baseURL + "/api/v3/simple/price?ids=tether&vs_currencies=thb"
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
				return fmt.Errorf("price feed returned status %d", resp.StatusCode)
			}

			var payload struct {
				Tether struct {
					THB float64 `json:"thb"`
				} `json:"tether"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return err
			}
			if payload.Tether.THB == 0 {
				return &domain.ErrShapeMismatch{Service: "pricefeed", Field: "tether.thb"}
			}
			price = payload.Tether.THB
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return price, nil
	})

	if err != nil {
		return 0, &domain.ErrExternalService{Service: "pricefeed", Err: err}
	}

	return price, nil
}
