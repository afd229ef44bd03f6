package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/handler"
	"github.com/payops/dashboard-bff-go/internal/infra/observability"
	"github.com/payops/dashboard-bff-go/internal/infra/registry"
	"github.com/payops/dashboard-bff-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type stubPriceFeed struct{}

func (stubPriceFeed) TetherTHB(_ context.Context) (float64, error) {
	return 36.0, nil
}

func newTestRouter(jwtSecret string) http.Handler {
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	rates := service.NewRateManager(stubPriceFeed{}, 0.20, 35.0, time.Hour, metrics, logger)
	store := registry.NewStaticStore([]string{"https://a.example.com"})

	return handler.NewRouter(handler.Services{
		Rates:   rates,
		Domains: service.NewDomainsService(store, logger),
	}, metrics, jwtSecret, logger)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestGetExchangeRate(t *testing.T) {
	router := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange-rate", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var rate domain.ExchangeRate
	if err := json.NewDecoder(rec.Body).Decode(&rate); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rate.Effective != 34.8 {
		t.Errorf("expected effective 34.8, got %f", rate.Effective)
	}
}

func TestRateOverrideRoundTrip(t *testing.T) {
	router := newTestRouter("")

	req := httptest.NewRequest(http.MethodPut, "/v1/exchange-rate/override", strings.NewReader(`{"rate": 40.5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var rate domain.ExchangeRate
	if err := json.NewDecoder(rec.Body).Decode(&rate); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !rate.Overridden || rate.Effective != 40.5 {
		t.Errorf("expected override at 40.5, got %+v", rate)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/exchange-rate/override", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&rate); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rate.Overridden {
		t.Error("override still set after clear")
	}
}

func TestRateOverride_RejectsNonPositive(t *testing.T) {
	router := newTestRouter("")

	req := httptest.NewRequest(http.MethodPut, "/v1/exchange-rate/override", strings.NewReader(`{"rate": -1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestBanksList_RequiresDomain(t *testing.T) {
	router := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/v1/banks", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListDomains(t *testing.T) {
	router := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/v1/domains", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var domains []domain.Domain
	if err := json.NewDecoder(rec.Body).Decode(&domains); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(domains) != 1 || domains[0].URL != "https://a.example.com" {
		t.Errorf("unexpected domains: %v", domains)
	}
}

func TestCreateDomain_StaticRegistryRejects(t *testing.T) {
	router := newTestRouter("")

	req := httptest.NewRequest(http.MethodPost, "/v1/domains", strings.NewReader(`{"url": "https://b.example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 on a static registry, got %d", rec.Code)
	}
}

func TestJWTGate_MissingToken(t *testing.T) {
	router := newTestRouter("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange-rate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTGate_ValidToken(t *testing.T) {
	router := newTestRouter("test-secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange-rate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestJWTGate_WrongSecret(t *testing.T) {
	router := newTestRouter("test-secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange-rate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
