package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/domain/catalog"
	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/feature"
	"github.com/openshelf/openshelf/internal/feature/covers"
	"github.com/openshelf/openshelf/internal/feature/natcat"
	"github.com/openshelf/openshelf/internal/port/audit"
	"github.com/openshelf/openshelf/internal/port/database"
	"github.com/openshelf/openshelf/internal/service"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// catalogStore fakes the book/loan slice of the store. Embedding the
// interface keeps the fake small; calling an unstubbed method panics the test.
type catalogStore struct {
	database.Store
	books []catalog.Book
	count int
}

func (s *catalogStore) GetBookByISBN(_ context.Context, tenantID, isbn string) (*catalog.Book, error) {
	for i := range s.books {
		if s.books[i].ISBN == isbn && s.books[i].TenantID == tenantID {
			b := s.books[i]
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *catalogStore) GetBook(_ context.Context, tenantID, id string) (*catalog.Book, error) {
	for i := range s.books {
		if s.books[i].ID == id && s.books[i].TenantID == tenantID {
			b := s.books[i]
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *catalogStore) CreateBook(_ context.Context, b *catalog.Book) error {
	s.count++
	b.ID = "b-new"
	s.books = append(s.books, *b)
	return nil
}

func (s *catalogStore) CountBooks(_ context.Context, _ string) (int, error) {
	return len(s.books), nil
}

type nullSink struct{}

func (nullSink) Record(context.Context, audit.Event) {}

const unlimitedCoverLicense = `{
	"feature_id": "bookcover_api",
	"license_type": "unlimited"
}`

const unlimitedNatcatLicense = `{
	"feature_id": "national_catalog",
	"license_type": "unlimited"
}`

// entitledContext returns a ctx carrying a request context for a tenant
// entitled to both premium features.
func entitledContext() context.Context {
	rc := &tenancy.RequestContext{
		Tenant: &tenant.Tenant{
			ID:     "t-1",
			Status: tenant.StatusActive,
			Entitlements: tenant.Entitlements{
				BookcoverAPI:    true,
				NationalCatalog: true,
			},
		},
		Features: map[string]bool{
			tenant.FeatureBookcoverAPI:    true,
			tenant.FeatureNationalCatalog: true,
		},
	}
	return tenancy.WithRequestContext(context.Background(), rc)
}

func TestLookupISBNPremiumEnrichment(t *testing.T) {
	coverSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"url":"https://img.example.com/cover.jpg"}`))
	}))
	defer coverSrv.Close()

	natSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"bibs":[{"title":"Pan Tadeusz","author":"Adam Mickiewicz","publisher":"Ossolineum","publicationYear":"1834"}]}`))
	}))
	defer natSrv.Close()

	t.Setenv("PREMIUM_BOOKCOVER_API_ENABLED", "true")
	t.Setenv("PREMIUM_NATIONAL_CATALOG_ENABLED", "true")

	reg := feature.NewRegistry(nullSink{})
	mustRegister(t, reg, feature.Descriptor{
		ID:      covers.FeatureID,
		License: feature.StaticLicense([]byte(unlimitedCoverLicense)),
		New: func() (feature.Implementation, error) {
			return covers.New(coverSrv.URL), nil
		},
	})
	mustRegister(t, reg, feature.Descriptor{
		ID:      natcat.FeatureID,
		License: feature.StaticLicense([]byte(unlimitedNatcatLicense)),
		New: func() (feature.Implementation, error) {
			return natcat.New(natSrv.URL), nil
		},
	})

	svc := service.NewCatalogService(&catalogStore{}, feature.NewGate(reg))

	info, err := svc.LookupISBN(entitledContext(), "t-1", "9788304016231")
	if err != nil {
		t.Fatalf("LookupISBN: %v", err)
	}

	if info.InCatalog {
		t.Error("book is not in the local catalog")
	}
	if info.Title != "Pan Tadeusz" || info.Author != "Adam Mickiewicz" {
		t.Errorf("expected national catalog metadata, got %+v", info)
	}
	if info.Year != 1834 {
		t.Errorf("expected year 1834, got %d", info.Year)
	}
	if info.CoverURL != "https://img.example.com/cover.jpg" {
		t.Errorf("expected cover URL, got %q", info.CoverURL)
	}
}

func TestLookupISBNPremiumFailureIsSoft(t *testing.T) {
	// Upstream errors must not break the base lookup.
	coverSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer coverSrv.Close()

	t.Setenv("PREMIUM_BOOKCOVER_API_ENABLED", "true")

	reg := feature.NewRegistry(nullSink{})
	mustRegister(t, reg, feature.Descriptor{
		ID:      covers.FeatureID,
		License: feature.StaticLicense([]byte(unlimitedCoverLicense)),
		New: func() (feature.Implementation, error) {
			return covers.New(coverSrv.URL), nil
		},
	})

	store := &catalogStore{books: []catalog.Book{{
		ID: "b-1", TenantID: "t-1", ISBN: "9788304016231",
		Title: "Pan Tadeusz", Author: "Adam Mickiewicz",
	}}}
	svc := service.NewCatalogService(store, feature.NewGate(reg))

	info, err := svc.LookupISBN(entitledContext(), "t-1", "9788304016231")
	if err != nil {
		t.Fatalf("LookupISBN: %v", err)
	}
	if !info.InCatalog || info.Title != "Pan Tadeusz" {
		t.Errorf("expected base catalog result, got %+v", info)
	}
	if info.CoverURL != "" {
		t.Errorf("expected no cover after upstream failure, got %q", info.CoverURL)
	}
}

func TestLookupISBNUnentitledSkipsPremium(t *testing.T) {
	var upstreamCalled bool
	coverSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		upstreamCalled = true
		_, _ = w.Write([]byte(`{"url":"https://img.example.com/cover.jpg"}`))
	}))
	defer coverSrv.Close()

	t.Setenv("PREMIUM_BOOKCOVER_API_ENABLED", "true")

	reg := feature.NewRegistry(nullSink{})
	mustRegister(t, reg, feature.Descriptor{
		ID:      covers.FeatureID,
		License: feature.StaticLicense([]byte(unlimitedCoverLicense)),
		New: func() (feature.Implementation, error) {
			return covers.New(coverSrv.URL), nil
		},
	})

	svc := service.NewCatalogService(&catalogStore{}, feature.NewGate(reg))

	// Entitlements off: the gate must decline before any upstream call.
	rc := &tenancy.RequestContext{
		Tenant:   &tenant.Tenant{ID: "t-1", Status: tenant.StatusActive},
		Features: map[string]bool{},
	}
	ctx := tenancy.WithRequestContext(context.Background(), rc)

	info, err := svc.LookupISBN(ctx, "t-1", "9788304016231")
	if err != nil {
		t.Fatalf("LookupISBN: %v", err)
	}
	if info.CoverURL != "" {
		t.Errorf("expected no cover for unentitled tenant, got %q", info.CoverURL)
	}
	if upstreamCalled {
		t.Error("upstream must not be called for an unentitled tenant")
	}
}

func TestLookupISBNRejectsBadISBN(t *testing.T) {
	svc := service.NewCatalogService(&catalogStore{}, feature.NewGate(feature.NewRegistry(nullSink{})))

	_, err := svc.LookupISBN(entitledContext(), "t-1", "123")
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCreateBookEnforcesLimit(t *testing.T) {
	store := &catalogStore{books: []catalog.Book{
		{ID: "b-1", TenantID: "t-1", ISBN: "9788304016231", Title: "One"},
	}}
	svc := service.NewCatalogService(store, feature.NewGate(feature.NewRegistry(nullSink{})))

	one := 1
	rc := &tenancy.RequestContext{
		Tenant: &tenant.Tenant{ID: "t-1", Status: tenant.StatusActive, Limits: tenant.Limits{MaxBooks: &one}},
	}
	ctx := tenancy.WithRequestContext(context.Background(), rc)

	_, err := svc.CreateBook(ctx, "t-1", catalog.CreateBookRequest{
		ISBN: "9780134190440", Title: "Two",
	})
	if err == nil {
		t.Fatal("expected limit error")
	}
}

func mustRegister(t *testing.T, reg *feature.Registry, desc feature.Descriptor) {
	t.Helper()
	if err := reg.Register(desc); err != nil {
		t.Fatalf("Register %s: %v", desc.ID, err)
	}
}
