package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/port/cache"
	"github.com/openshelf/openshelf/internal/port/database"
)

// DefaultTTL bounds how stale a cached tenant row may get when an
// invalidation is missed.
const DefaultTTL = time.Hour

const (
	idKeyPrefix        = "tenant:id:"
	subdomainKeyPrefix = "tenant:subdomain:"
)

// Directory resolves tenant identifiers to tenant records through a
// read-through cache. The id-keyed and subdomain-keyed entries are
// independent rows (no secondary index): invalidating one does not clear the
// other, so writers must invalidate both. Staleness is bounded by the TTL,
// not by invalidation completeness.
type Directory struct {
	store database.TenantStore
	cache cache.Cache
	ttl   time.Duration
}

// NewDirectory creates a tenant directory. A non-positive ttl falls back to
// DefaultTTL.
func NewDirectory(store database.TenantStore, c cache.Cache, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Directory{store: store, cache: c, ttl: ttl}
}

// ResolveBySubdomain returns the tenant owning the subdomain, or nil if none
// exists. Backing-store failures read as "no tenant": tenant identity fails
// closed and the request pipeline still gets a decision.
func (d *Directory) ResolveBySubdomain(ctx context.Context, subdomain string) *tenant.Tenant {
	if subdomain == "" {
		return nil
	}
	if t := d.cached(ctx, subdomainKeyPrefix+subdomain); t != nil {
		return t
	}

	t, err := d.store.GetTenantBySubdomain(ctx, subdomain)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Debug("tenant lookup failed", "subdomain", subdomain, "error", err)
		}
		return nil
	}
	d.populate(ctx, t)
	return t
}

// ResolveByID returns the tenant with the given id, or nil if none exists.
func (d *Directory) ResolveByID(ctx context.Context, tenantID string) *tenant.Tenant {
	if tenantID == "" {
		return nil
	}
	if t := d.cached(ctx, idKeyPrefix+tenantID); t != nil {
		return t
	}

	t, err := d.store.GetTenant(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Debug("tenant lookup failed", "tenant_id", tenantID, "error", err)
		}
		return nil
	}
	d.populate(ctx, t)
	return t
}

// Invalidate removes the cache rows for the given keys. Callers must invoke
// this after any tenant write that affects routing or entitlement, passing
// both the id and the (old) subdomain.
func (d *Directory) Invalidate(ctx context.Context, tenantID, subdomain string) {
	if tenantID != "" {
		if err := d.cache.Delete(ctx, idKeyPrefix+tenantID); err != nil {
			slog.Debug("cache delete failed", "key", idKeyPrefix+tenantID, "error", err)
		}
	}
	if subdomain != "" {
		if err := d.cache.Delete(ctx, subdomainKeyPrefix+subdomain); err != nil {
			slog.Debug("cache delete failed", "key", subdomainKeyPrefix+subdomain, "error", err)
		}
	}
}

func (d *Directory) cached(ctx context.Context, key string) *tenant.Tenant {
	data, ok, err := d.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil
	}
	var t tenant.Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		slog.Debug("cached tenant row corrupt, dropping", "key", key, "error", err)
		_ = d.cache.Delete(ctx, key)
		return nil
	}
	return &t
}

// populate writes both cache rows for the tenant. Concurrent misses for the
// same key may race here; duplicate loads are harmless.
func (d *Directory) populate(ctx context.Context, t *tenant.Tenant) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, idKeyPrefix+t.ID, data, d.ttl); err != nil {
		slog.Debug("cache set failed", "tenant_id", t.ID, "error", err)
	}
	if t.Subdomain != "" {
		if err := d.cache.Set(ctx, subdomainKeyPrefix+t.Subdomain, data, d.ttl); err != nil {
			slog.Debug("cache set failed", "subdomain", t.Subdomain, "error", err)
		}
	}
}
