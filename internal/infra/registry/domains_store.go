package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/resilience"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// domainRow maps the `domains` table columns to our domain type.
type domainRow struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (r domainRow) toDomain() domain.Domain {
	name := r.Name
	if name == "" {
		name = displayName(r.URL)
	}
	return domain.Domain{
		ID:        r.ID,
		URL:       r.URL,
		Name:      name,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

// displayName strips the scheme so a nameless registration still renders.
func displayName(rawURL string) string {
	s := strings.TrimPrefix(rawURL, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimRight(s, "/")
}

// ListActive returns registered domains with is_active=true, newest first.
func (c *Client) ListActive(ctx context.Context) ([]domain.Domain, error) {
	ctx, span := tracer.Start(ctx, "Registry.ListActive")
	defer span.End()

	var rows []domainRow

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doGet(ctx, "domains?is_active=eq.true&order=created_at.desc")
			if err != nil {
				return err
			}
			return json.Unmarshal(body, &rows)
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "registry", Err: err}
	}

	domains := make([]domain.Domain, 0, len(rows))
	for _, r := range rows {
		domains = append(domains, r.toDomain())
	}
	return domains, nil
}

// Create registers a new domain. URL is the identity: re-registering an
// existing URL is a conflict.
func (c *Client) Create(ctx context.Context, rawURL, name string) (*domain.Domain, error) {
	ctx, span := tracer.Start(ctx, "Registry.Create")
	defer span.End()
	span.SetAttributes(attribute.String("domain.url", rawURL))

	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, &domain.ErrValidation{Field: "url", Message: "must be a valid URL"}
	}
	if name == "" {
		name = displayName(rawURL)
	}

	existing, err := c.doGet(ctx, fmt.Sprintf("domains?url=eq.%s&is_active=eq.true&limit=1", url.QueryEscape(rawURL)))
	if err == nil && len(existing) > 0 && string(existing) != "[]" {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("domain already registered: %s", rawURL)}
	}

	body, err := c.doPost(ctx, "domains", map[string]any{
		"id":        uuid.New().String(),
		"url":       rawURL,
		"name":      name,
		"is_active": true,
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "registry", Err: err}
	}

	var rows []domainRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode created domain: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrShapeMismatch{Service: "registry", Field: "representation"}
	}

	d := rows[0].toDomain()
	return &d, nil
}

// Deactivate soft-deletes a domain (is_active=false); the row stays.
func (c *Client) Deactivate(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Registry.Deactivate")
	defer span.End()
	span.SetAttributes(attribute.String("domain.id", id))

	err := c.doPatch(ctx, fmt.Sprintf("domains?id=eq.%s", url.QueryEscape(id)), map[string]any{
		"is_active": false,
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "registry", Err: err}
	}
	return nil
}

// StaticStore serves a fixed domain list from configuration when no
// registry backend is configured. Create/Deactivate are rejected: the
// list is owned by the environment, not the API.
type StaticStore struct {
	domains []domain.Domain
}

// NewStaticStore builds a read-only store from configured URLs.
func NewStaticStore(urls []string) *StaticStore {
	s := &StaticStore{}
	for _, u := range urls {
		s.domains = append(s.domains, domain.Domain{
			ID:       u,
			URL:      u,
			Name:     displayName(u),
			IsActive: true,
		})
	}
	return s
}

// ListActive returns the configured domains.
func (s *StaticStore) ListActive(_ context.Context) ([]domain.Domain, error) {
	out := make([]domain.Domain, len(s.domains))
	copy(out, s.domains)
	return out, nil
}

// Create is unsupported on a static registry.
func (s *StaticStore) Create(_ context.Context, _, _ string) (*domain.Domain, error) {
	return nil, &domain.ErrValidation{Field: "registry", Message: "domain registry is static; set REGISTRY_URL to manage domains"}
}

// Deactivate is unsupported on a static registry.
func (s *StaticStore) Deactivate(_ context.Context, _ string) error {
	return &domain.ErrValidation{Field: "registry", Message: "domain registry is static; set REGISTRY_URL to manage domains"}
}
