package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// reportDateLayout is the DD/MM/YYYY format the report backend expects.
const reportDateLayout = "02/01/2006"

// ReportClient talks to the credit-agent backend: POST /login for a session
// token, POST /getwlagent for the per-agent win/lose report.
type ReportClient struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewReportClient creates a ReportClient.
func NewReportClient(httpClient *http.Client, baseURL, username, password string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *ReportClient {
	return &ReportClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		username:   username,
		password:   password,
		cb:         cb,
		cfg:        cfg,
	}
}

// Login acquires a session token. The token lives in memory only; a failure
// here is fatal to the report view and surfaces as ErrUnauthorized.
func (c *ReportClient) Login(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "ReportClient.Login")
	defer span.End()

	var token string

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(map[string]string{
				"username": c.username,
				"password": c.password,
			})
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("login returned status %d", resp.StatusCode)
			}

			var payload struct {
				Token string `json:"token"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return err
			}
			if payload.Token == "" {
				return &domain.ErrShapeMismatch{Service: "report-login", Field: "token"}
			}
			token = payload.Token
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return token, nil
	})

	if err != nil {
		return "", &domain.ErrUnauthorized{Message: fmt.Sprintf("report login failed: %v", err)}
	}

	return token, nil
}

// reportResponse mirrors the upstream payload. footer.data and
// winlose.data[0].data are both optional on the wire: absence degrades to
// zero/empty rather than erroring.
type reportResponse struct {
	Footer struct {
		Data []domain.ReportSummary `json:"data"`
	} `json:"footer"`
	Winlose struct {
		Data []struct {
			Data []domain.AgentPerformanceRecord `json:"data"`
		} `json:"data"`
	} `json:"winlose"`
}

// GetReport fetches the win/lose report for [start, end].
func (c *ReportClient) GetReport(ctx context.Context, token string, start, end time.Time) (*domain.ReportSummary, []domain.AgentPerformanceRecord, error) {
	ctx, span := tracer.Start(ctx, "ReportClient.GetReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("report.start", start.Format(reportDateLayout)),
		attribute.String("report.end", end.Format(reportDateLayout)),
	)

	var (
		summary domain.ReportSummary
		records []domain.AgentPerformanceRecord
	)

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(map[string]string{
				"token":     token,
				"startDate": start.Format(reportDateLayout),
				"endDate":   end.Format(reportDateLayout),
			})
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/getwlagent", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusUnauthorized {
				return &domain.ErrUnauthorized{Message: "report session expired"}
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("report API returned status %d", resp.StatusCode)
			}

			var payload reportResponse
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return err
			}

			if len(payload.Footer.Data) > 0 {
				summary = payload.Footer.Data[0]
			}
			if len(payload.Winlose.Data) > 0 {
				records = payload.Winlose.Data[0].Data
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})

	if err != nil {
		var unauthorized *domain.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			return nil, nil, unauthorized
		}
		return nil, nil, &domain.ErrExternalService{Service: "report", Err: err}
	}

	return &summary, records, nil
}
