package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/port/database"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// TenantService manages tenant lifecycle. Every write that changes a cached
// field invalidates both directory cache rows for the tenant.
type TenantService struct {
	store     database.Store
	directory *tenancy.Directory
}

// NewTenantService creates a tenant service.
func NewTenantService(store database.Store, directory *tenancy.Directory) *TenantService {
	return &TenantService{store: store, directory: directory}
}

// Create provisions a new tenant. When the request omits a subdomain one is
// derived from the name and made unique against existing tenants.
func (s *TenantService) Create(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	subdomain := req.Subdomain
	if subdomain == "" {
		subdomain = tenant.UniqueCandidate(tenant.Slugify(req.Name), func(candidate string) bool {
			taken, err := s.store.SubdomainTaken(ctx, candidate)
			if err != nil {
				slog.Warn("subdomain availability check failed", "candidate", candidate, "error", err)
				return true
			}
			return taken
		})
	} else {
		taken, err := s.store.SubdomainTaken(ctx, subdomain)
		if err != nil {
			return nil, fmt.Errorf("check subdomain: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("subdomain %q taken: %w", subdomain, domain.ErrConflict)
		}
	}

	t := &tenant.Tenant{
		Name:      req.Name,
		Subdomain: subdomain,
		Status:    tenant.StatusActive,
	}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, err
	}

	slog.Info("tenant created", "tenant_id", t.ID, "subdomain", t.Subdomain)
	return t, nil
}

// Get returns one tenant by id.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Update applies the request to the tenant and invalidates its cache rows.
// A subdomain change invalidates the old subdomain key as well.
func (s *TenantService) Update(ctx context.Context, id string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSubdomain := t.Subdomain

	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Subdomain != "" && req.Subdomain != t.Subdomain {
		if !tenant.IsValidSubdomain(req.Subdomain) {
			return nil, fmt.Errorf("%w: invalid subdomain", domain.ErrValidation)
		}
		taken, err := s.store.SubdomainTaken(ctx, req.Subdomain)
		if err != nil {
			return nil, fmt.Errorf("check subdomain: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("subdomain %q taken: %w", req.Subdomain, domain.ErrConflict)
		}
		t.Subdomain = req.Subdomain
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Limits != nil {
		t.Limits = *req.Limits
	}

	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, err
	}

	s.directory.Invalidate(ctx, t.ID, oldSubdomain)
	if t.Subdomain != oldSubdomain {
		s.directory.Invalidate(ctx, t.ID, t.Subdomain)
	}
	return t, nil
}

// SetEntitlements flips the tenant's premium flags. Takes effect on the next
// resolution; cached rows for the tenant are invalidated immediately.
func (s *TenantService) SetEntitlements(ctx context.Context, id string, req tenant.EntitlementsRequest) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.BookcoverAPI != nil {
		t.Entitlements.BookcoverAPI = *req.BookcoverAPI
	}
	if req.NationalCatalog != nil {
		t.Entitlements.NationalCatalog = *req.NationalCatalog
	}

	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, err
	}

	s.directory.Invalidate(ctx, t.ID, t.Subdomain)
	slog.Info("tenant entitlements updated", "tenant_id", t.ID,
		"bookcover_api", t.Entitlements.BookcoverAPI,
		"national_catalog", t.Entitlements.NationalCatalog)
	return t, nil
}
