package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
)

// twAPIVersion pins the TMN API revision; the endpoint rejects requests
// without it.
const twAPIVersion = "202109071944"

// TrueWalletClient calls the TMN member API on the operator's behalf.
// Login (captcha-gated) stays upstream: callers supply an access token
// the operator already holds.
type TrueWalletClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewTrueWalletClient creates a TrueWalletClient.
func NewTrueWalletClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *TrueWalletClient {
	return &TrueWalletClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// twRequest is the command envelope of the TMN API.
type twRequest struct {
	Scope string         `json:"scope"`
	Cmd   string         `json:"cmd"`
	Data  map[string]any `json:"data"`
}

func (c *TrueWalletClient) call(ctx context.Context, reqBody twRequest, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(reqBody)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api.php", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Api-Version", twAPIVersion)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("truewallet API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "truewallet", Err: err}
	}
	return nil
}

// CheckBalance fetches the wallet balance for the given member token.
func (c *TrueWalletClient) CheckBalance(ctx context.Context, accessToken string) (*domain.TrueWalletBalance, error) {
	ctx, span := tracer.Start(ctx, "TrueWalletClient.CheckBalance")
	defer span.End()

	var payload struct {
		Data *domain.TrueWalletBalance `json:"data"`
	}
	if err := c.call(ctx, twRequest{
		Scope: "member",
		Cmd:   "check_balance",
		Data:  map[string]any{"access_token": accessToken},
	}, &payload); err != nil {
		return nil, err
	}

	if payload.Data == nil {
		return nil, &domain.ErrShapeMismatch{Service: "truewallet", Field: "data"}
	}
	return payload.Data, nil
}

// ListKeys fetches the API keys registered on the wallet account.
func (c *TrueWalletClient) ListKeys(ctx context.Context, accessToken string) ([]domain.TrueWalletKey, error) {
	ctx, span := tracer.Start(ctx, "TrueWalletClient.ListKeys")
	defer span.End()

	var payload struct {
		List []domain.TrueWalletKey `json:"list"`
	}
	if err := c.call(ctx, twRequest{
		Scope: "api_keys",
		Cmd:   "list",
		Data:  map[string]any{"access_token": accessToken},
	}, &payload); err != nil {
		return nil, err
	}

	return payload.List, nil
}
