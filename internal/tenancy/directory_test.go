package tenancy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// memCache is a synchronous in-memory cache for tests.
type memCache struct {
	mu   sync.Mutex
	rows map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{rows: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.rows[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rows, key)
	return nil
}

// fakeStore serves tenants from memory and counts round trips.
type fakeStore struct {
	mu      sync.Mutex
	tenants map[string]*tenant.Tenant // by id
	err     error
	loads   int
}

func newFakeStore(tenants ...*tenant.Tenant) *fakeStore {
	s := &fakeStore{tenants: make(map[string]*tenant.Tenant)}
	for _, t := range tenants {
		s.tenants[t.ID] = t
	}
	return s
}

func (s *fakeStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	if t, ok := s.tenants[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) GetTenantBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	for _, t := range s.tenants {
		if t.Subdomain == subdomain {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func (s *fakeStore) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

var acme = &tenant.Tenant{ID: "t-acme", Name: "Acme", Subdomain: "acme", Status: tenant.StatusActive}

func TestResolveBySubdomain_ReadThrough(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(acme)
	dir := tenancy.NewDirectory(store, newMemCache(), time.Hour)

	got := dir.ResolveBySubdomain(ctx, "acme")
	if got == nil || got.ID != "t-acme" {
		t.Fatalf("ResolveBySubdomain = %+v, want acme", got)
	}
	if store.loadCount() != 1 {
		t.Fatalf("loads = %d, want 1", store.loadCount())
	}

	// Second read is served from cache.
	if got = dir.ResolveBySubdomain(ctx, "acme"); got == nil {
		t.Fatal("cached read returned nil")
	}
	if store.loadCount() != 1 {
		t.Errorf("loads = %d after cached read, want 1", store.loadCount())
	}

	// The miss populated both keys, so an id read is also a cache hit.
	if got = dir.ResolveByID(ctx, "t-acme"); got == nil {
		t.Fatal("id read returned nil")
	}
	if store.loadCount() != 1 {
		t.Errorf("loads = %d after id read, want 1 (both keys populated)", store.loadCount())
	}
}

func TestResolve_UnknownTenant(t *testing.T) {
	ctx := context.Background()
	dir := tenancy.NewDirectory(newFakeStore(), newMemCache(), time.Hour)

	if got := dir.ResolveBySubdomain(ctx, "ghost"); got != nil {
		t.Errorf("unknown subdomain = %+v, want nil", got)
	}
	if got := dir.ResolveByID(ctx, "t-ghost"); got != nil {
		t.Errorf("unknown id = %+v, want nil", got)
	}
	if got := dir.ResolveBySubdomain(ctx, ""); got != nil {
		t.Errorf("empty subdomain = %+v, want nil", got)
	}
}

// A backing-store failure reads as "no tenant" and never propagates.
func TestResolve_StoreFailureIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(acme)
	store.setErr(errors.New("connection refused"))
	dir := tenancy.NewDirectory(store, newMemCache(), time.Hour)

	if got := dir.ResolveBySubdomain(ctx, "acme"); got != nil {
		t.Errorf("store failure = %+v, want nil", got)
	}

	// Recovery: once the store is healthy the tenant resolves again.
	store.setErr(nil)
	if got := dir.ResolveBySubdomain(ctx, "acme"); got == nil {
		t.Error("expected resolution after store recovery")
	}
}

func TestInvalidate_ClearsBothKeys(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(acme)
	dir := tenancy.NewDirectory(store, newMemCache(), time.Hour)

	dir.ResolveBySubdomain(ctx, "acme") // warm both keys

	dir.Invalidate(ctx, "t-acme", "acme")

	dir.ResolveBySubdomain(ctx, "acme")
	dir.ResolveByID(ctx, "t-acme")
	// First warm load plus one fresh load after invalidation; the second
	// post-invalidate read hits the repopulated cache.
	if store.loadCount() != 2 {
		t.Errorf("loads = %d, want 2", store.loadCount())
	}
}

// The two cache keys are independent rows: invalidating only the id key
// leaves the subdomain row serving (possibly stale) data until its TTL.
func TestInvalidate_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(acme)
	dir := tenancy.NewDirectory(store, newMemCache(), time.Hour)

	dir.ResolveBySubdomain(ctx, "acme")
	dir.Invalidate(ctx, "t-acme", "") // id key only

	dir.ResolveBySubdomain(ctx, "acme")
	if store.loadCount() != 1 {
		t.Errorf("loads = %d, want 1: subdomain row must survive id invalidation", store.loadCount())
	}

	dir.ResolveByID(ctx, "t-acme")
	if store.loadCount() != 2 {
		t.Errorf("loads = %d, want 2: id row was invalidated", store.loadCount())
	}
}

func TestResolve_FreshAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(acme)
	dir := tenancy.NewDirectory(store, newMemCache(), time.Hour)

	dir.ResolveBySubdomain(ctx, "acme")

	// Mutate the backing row; the cache still serves the old value.
	store.mu.Lock()
	store.tenants["t-acme"].Entitlements.BookcoverAPI = true
	store.mu.Unlock()

	if got := dir.ResolveBySubdomain(ctx, "acme"); got.Entitlements.BookcoverAPI {
		t.Error("expected stale row before invalidation")
	}

	dir.Invalidate(ctx, "t-acme", "acme")
	if got := dir.ResolveBySubdomain(ctx, "acme"); !got.Entitlements.BookcoverAPI {
		t.Error("expected fresh row after invalidation")
	}
}
