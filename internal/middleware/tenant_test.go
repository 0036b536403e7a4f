package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/tenancy"
)

type staticStore struct {
	bySubdomain map[string]*tenant.Tenant
}

func (s *staticStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	for _, t := range s.bySubdomain {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *staticStore) GetTenantBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	if t, ok := s.bySubdomain[subdomain]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

type noopCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *noopCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *noopCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	c.m[key] = value
	return nil
}

func (c *noopCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func newDirectory() *tenancy.Directory {
	store := &staticStore{bySubdomain: map[string]*tenant.Tenant{
		"acme": acmeTenant(),
	}}
	return tenancy.NewDirectory(store, &noopCache{}, time.Minute)
}

func TestTenantResolvesSubdomain(t *testing.T) {
	var got *tenant.Tenant
	handler := middleware.Tenant(newDirectory(), nil)(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = tenancy.FromContext(r.Context()).Tenant
		}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Host = "acme.openshelf.example.com"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "t-1" {
		t.Fatalf("expected tenant t-1, got %+v", got)
	}
}

func TestTenantBareHostSkipsResolution(t *testing.T) {
	var rc *tenancy.RequestContext
	handler := middleware.Tenant(newDirectory(), nil)(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			rc = tenancy.FromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Host = "localhost:8080"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if rc == nil {
		t.Fatal("expected request context installed")
	}
	if rc.Tenant != nil {
		t.Errorf("expected nil tenant, got %+v", rc.Tenant)
	}
}

func TestTenantUnknownSubdomainNil(t *testing.T) {
	var got *tenant.Tenant
	handler := middleware.Tenant(newDirectory(), nil)(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = tenancy.FromContext(r.Context()).Tenant
		}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Host = "ghost.openshelf.example.com"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != nil {
		t.Errorf("expected nil tenant for unknown subdomain, got %+v", got)
	}
}
