package feature

import (
	"context"

	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// Gate is the single call surface application code uses for premium
// behavior. The registry answers whether a capability is deployed and
// licensed at all; the gate additionally answers whether this tenant has
// purchased it. Both must pass.
type Gate struct {
	reg *Registry
}

// NewGate creates a gate over the registry.
func NewGate(reg *Registry) *Gate {
	return &Gate{reg: reg}
}

// Registry exposes the underlying registry for admin surfaces.
func (g *Gate) Registry() *Registry {
	return g.reg
}

// TenantEntitled reports whether the tenant's entitlement flag for the
// feature is set. A nil tenant carries no entitlements.
func (g *Gate) TenantEntitled(t *tenant.Tenant, featureID string) bool {
	return t != nil && t.Entitled(featureID)
}

// EntitledFeatures computes the tenant's entitled set across all registered
// features. Computed once per request when the context is populated.
func (g *Gate) EntitledFeatures(t *tenant.Tenant) map[string]bool {
	features := make(map[string]bool)
	if t == nil {
		return features
	}
	for _, id := range g.reg.IDs() {
		if t.Entitled(id) {
			features[id] = true
		}
	}
	return features
}

// Available reports whether the feature may execute for this request: the
// enablement switch is on, the tenant (when present) is entitled, and the
// implementation resolves (which itself enforces the license).
func (g *Gate) Available(ctx context.Context, rc *tenancy.RequestContext, featureID string) bool {
	if !g.reg.IsEnabled(featureID) {
		return false
	}
	if rc.HasTenant() && !rc.Entitled(featureID) {
		return false
	}
	return g.reg.Implementation(ctx, featureID) != nil
}

// Call invokes the named operation on the feature's implementation. It
// returns (nil, false) whenever the feature is unavailable for this request;
// premium failures are soft and the base flow must still produce its result.
func (g *Gate) Call(ctx context.Context, rc *tenancy.RequestContext, featureID, op string, args Args) (any, bool) {
	if !g.Available(ctx, rc, featureID) {
		return nil, false
	}
	return g.reg.Invoke(ctx, featureID, op, args)
}
