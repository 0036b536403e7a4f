package feature_test

import (
	"context"
	"testing"

	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/feature"
	"github.com/openshelf/openshelf/internal/tenancy"
)

func newGateWithFeature(t *testing.T, id string) *feature.Gate {
	t.Helper()
	reg := feature.NewRegistry(nil)
	register(t, reg, feature.Descriptor{ID: id})
	return feature.NewGate(reg)
}

func contextFor(g *feature.Gate, tn *tenant.Tenant) *tenancy.RequestContext {
	return &tenancy.RequestContext{Tenant: tn, Features: g.EntitledFeatures(tn)}
}

// Availability requires all three gates: env switch, tenant entitlement,
// resolvable (licensed) implementation.
func TestAvailable_AllThreeGatesMustPass(t *testing.T) {
	ctx := context.Background()
	g := newGateWithFeature(t, tenant.FeatureBookcoverAPI)

	entitled := &tenant.Tenant{ID: "t1", Entitlements: tenant.Entitlements{BookcoverAPI: true}}
	unentitled := &tenant.Tenant{ID: "t2"}

	// Disabled globally: unavailable even for an entitled tenant.
	if g.Available(ctx, contextFor(g, entitled), tenant.FeatureBookcoverAPI) {
		t.Error("available despite disabled env switch")
	}

	t.Setenv("PREMIUM_BOOKCOVER_API_ENABLED", "true")

	// Enabled but tenant not entitled.
	if g.Available(ctx, contextFor(g, unentitled), tenant.FeatureBookcoverAPI) {
		t.Error("available despite missing entitlement")
	}

	// All three hold.
	if !g.Available(ctx, contextFor(g, entitled), tenant.FeatureBookcoverAPI) {
		t.Error("expected available when enabled, entitled, and resolvable")
	}
}

// Flipping the tenant flag takes effect on the next request context without
// any process restart.
func TestAvailable_TenantFlagFlip(t *testing.T) {
	ctx := context.Background()
	g := newGateWithFeature(t, tenant.FeatureBookcoverAPI)
	t.Setenv("PREMIUM_BOOKCOVER_API_ENABLED", "true")

	acme := &tenant.Tenant{ID: "t-acme", Subdomain: "acme"}
	if g.Available(ctx, contextFor(g, acme), tenant.FeatureBookcoverAPI) {
		t.Fatal("flag off: must be unavailable")
	}

	acme.Entitlements.BookcoverAPI = true
	if !g.Available(ctx, contextFor(g, acme), tenant.FeatureBookcoverAPI) {
		t.Fatal("flag on: must be available on the next context")
	}
}

// A request with no tenant (super-admin, platform jobs) skips the entitlement
// gate but still requires enablement and license.
func TestAvailable_NoTenantContext(t *testing.T) {
	ctx := context.Background()
	g := newGateWithFeature(t, "platform_tool")
	t.Setenv("PREMIUM_PLATFORM_TOOL_ENABLED", "true")

	if !g.Available(ctx, &tenancy.RequestContext{}, "platform_tool") {
		t.Error("expected available without tenant context")
	}
	if !g.Available(ctx, nil, "platform_tool") {
		t.Error("expected available with nil context")
	}
}

func TestCall_DeclinesBeforeDispatch(t *testing.T) {
	ctx := context.Background()
	g := newGateWithFeature(t, tenant.FeatureBookcoverAPI)
	t.Setenv("PREMIUM_BOOKCOVER_API_ENABLED", "true")

	unentitled := contextFor(g, &tenant.Tenant{ID: "t1"})
	if _, ok := g.Call(ctx, unentitled, tenant.FeatureBookcoverAPI, "echo", feature.Args{"msg": "x"}); ok {
		t.Error("call must decline for unentitled tenant")
	}

	entitled := contextFor(g, &tenant.Tenant{ID: "t1", Entitlements: tenant.Entitlements{BookcoverAPI: true}})
	res, ok := g.Call(ctx, entitled, tenant.FeatureBookcoverAPI, "echo", feature.Args{"msg": "hello"})
	if !ok || res != "hello" {
		t.Errorf("Call = (%v, %v), want (hello, true)", res, ok)
	}
}

func TestEntitledFeatures(t *testing.T) {
	reg := feature.NewRegistry(nil)
	register(t, reg, feature.Descriptor{ID: tenant.FeatureBookcoverAPI})
	register(t, reg, feature.Descriptor{ID: tenant.FeatureNationalCatalog})
	g := feature.NewGate(reg)

	tn := &tenant.Tenant{ID: "t1", Entitlements: tenant.Entitlements{NationalCatalog: true}}
	features := g.EntitledFeatures(tn)
	if features[tenant.FeatureBookcoverAPI] {
		t.Error("bookcover_api should not be entitled")
	}
	if !features[tenant.FeatureNationalCatalog] {
		t.Error("national_catalog should be entitled")
	}

	if got := g.EntitledFeatures(nil); len(got) != 0 {
		t.Errorf("nil tenant entitled set = %v, want empty", got)
	}
}
