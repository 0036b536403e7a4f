package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/openshelf/openshelf/internal/domain/actor"
	"github.com/openshelf/openshelf/internal/domain/policy"
	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/feature"
	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/port/audit"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// recordingSink collects audit events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Record(_ context.Context, ev audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Action
	}
	return out
}

// withRequest installs a RequestContext with the given tenant and actor,
// standing in for the tenant and auth middlewares.
func withRequest(r *http.Request, t *tenant.Tenant, a actor.Actor) *http.Request {
	rc := &tenancy.RequestContext{Tenant: t, Actor: a}
	return r.WithContext(tenancy.WithRequestContext(r.Context(), rc))
}

func newGate(t *testing.T, sink audit.Sink) *feature.Gate {
	t.Helper()
	reg := feature.NewRegistry(sink)
	err := reg.Register(feature.Descriptor{
		ID: tenant.FeatureBookcoverAPI,
		New: func() (feature.Implementation, error) {
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return feature.NewGate(reg)
}

func acmeTenant() *tenant.Tenant {
	return &tenant.Tenant{
		ID:        "t-1",
		Name:      "Acme",
		Subdomain: "acme",
		Status:    tenant.StatusActive,
		Entitlements: tenant.Entitlements{
			BookcoverAPI: true,
		},
	}
}

func TestAccessAllowPopulatesFeatures(t *testing.T) {
	sink := &recordingSink{}
	var features map[string]bool

	handler := middleware.Access(policy.Policy{}, newGate(t, sink), sink, nil)(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			features = tenancy.FromContext(r.Context()).Features
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", http.NoBody)
	req.Host = "acme.openshelf.example.com"
	req = withRequest(req, acmeTenant(), actor.TenantUser("u-1", "t-1", actor.RoleUser))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !features[tenant.FeatureBookcoverAPI] {
		t.Error("expected bookcover_api in entitled features")
	}
	if len(sink.actions()) != 0 {
		t.Errorf("allow should not be audited, got %v", sink.actions())
	}
}

func TestAccessAnonymousRedirect(t *testing.T) {
	sink := &recordingSink{}
	handler := middleware.Access(policy.Policy{}, newGate(t, sink), sink, nil)(
		http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("handler should not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", http.NoBody)
	req.Host = "acme.openshelf.example.com"
	req = withRequest(req, acmeTenant(), actor.Anonymous())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected /login redirect, got %q", loc)
	}
	got := sink.actions()
	if len(got) != 1 || got[0] != "access.redirect_to_login" {
		t.Errorf("expected one redirect audit event, got %v", got)
	}
}

func TestAccessTenantMismatchForbidden(t *testing.T) {
	sink := &recordingSink{}
	handler := middleware.Access(policy.Policy{}, newGate(t, sink), sink, nil)(
		http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("handler should not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", http.NoBody)
	req.Host = "acme.openshelf.example.com"
	req = withRequest(req, acmeTenant(), actor.TenantUser("u-9", "t-other", actor.RoleAdmin))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(sink.events) != 1 || sink.events[0].Reason != "tenant_mismatch" {
		t.Errorf("expected tenant_mismatch audit event, got %+v", sink.events)
	}
	if sink.events[0].TenantID != "t-1" {
		t.Errorf("expected audited tenant t-1, got %q", sink.events[0].TenantID)
	}
}

func TestAccessStrictUnknownSubdomainNotFound(t *testing.T) {
	sink := &recordingSink{}
	handler := middleware.Access(policy.Policy{Strict: true}, newGate(t, sink), sink, nil)(
		http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("handler should not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", http.NoBody)
	req.Host = "ghost.openshelf.example.com"
	req = withRequest(req, nil, actor.Anonymous())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccessSuperAdminOnAdminTree(t *testing.T) {
	sink := &recordingSink{}
	handler := middleware.Access(policy.Policy{}, newGate(t, sink), sink, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/admin/tenants", http.NoBody)
	req.Host = "acme.openshelf.example.com"
	req = withRequest(req, acmeTenant(), actor.SuperAdmin("root"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccessSuperAdminOutsideAllowlist(t *testing.T) {
	sink := &recordingSink{}
	handler := middleware.Access(policy.Policy{}, newGate(t, sink), sink, nil)(
		http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("handler should not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", http.NoBody)
	req.Host = "openshelf.example.com"
	req = withRequest(req, nil, actor.SuperAdmin("root"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
