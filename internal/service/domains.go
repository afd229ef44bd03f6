package service

import (
	"context"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/port"

	"go.uber.org/zap"
)

// DomainsService fronts the domain registry. The aggregation pipeline only
// reads it; mutation is plain CRUD with a soft delete.
type DomainsService struct {
	store  port.DomainStore
	logger *zap.Logger
}

// NewDomainsService creates the registry service.
func NewDomainsService(store port.DomainStore, logger *zap.Logger) *DomainsService {
	return &DomainsService{store: store, logger: logger}
}

// List returns all active domains.
func (s *DomainsService) List(ctx context.Context) ([]domain.Domain, error) {
	ctx, span := tracer.Start(ctx, "DomainsService.List")
	defer span.End()

	return s.store.ListActive(ctx)
}

// Register adds a domain to the registry.
func (s *DomainsService) Register(ctx context.Context, url, name string) (*domain.Domain, error) {
	ctx, span := tracer.Start(ctx, "DomainsService.Register")
	defer span.End()

	if url == "" {
		return nil, &domain.ErrValidation{Field: "url", Message: "is required"}
	}

	d, err := s.store.Create(ctx, url, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("domain registered",
		zap.String("id", d.ID),
		zap.String("url", d.URL),
	)
	return d, nil
}

// Deactivate soft-deletes a domain; it drops out of aggregation on the
// next fetch.
func (s *DomainsService) Deactivate(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "DomainsService.Deactivate")
	defer span.End()

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "is required"}
	}

	if err := s.store.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.Info("domain deactivated", zap.String("id", id))
	return nil
}
