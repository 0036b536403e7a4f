// Package tenancy resolves request hosts to tenants and carries the
// request-scoped tenant state through the call chain.
package tenancy

import (
	"context"

	"github.com/openshelf/openshelf/internal/domain/actor"
	"github.com/openshelf/openshelf/internal/domain/tenant"
)

// RequestContext is the per-request holder of the resolved tenant, the actor,
// and the tenant's entitled feature set. It is created at request start,
// populated once after the access decision, and discarded with the request.
// It is never shared or reused across requests.
type RequestContext struct {
	Tenant   *tenant.Tenant
	Actor    actor.Actor
	Features map[string]bool // feature IDs entitled for this tenant
}

// Entitled reports whether the request's tenant is entitled to the feature.
func (rc *RequestContext) Entitled(featureID string) bool {
	if rc == nil {
		return false
	}
	return rc.Features[featureID]
}

// HasTenant reports whether a tenant was resolved for this request.
func (rc *RequestContext) HasTenant() bool {
	return rc != nil && rc.Tenant != nil
}

type requestCtxKey struct{}

// WithRequestContext stores rc in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, rc)
}

// FromContext returns the RequestContext stored in ctx, or nil if absent.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestCtxKey{}).(*RequestContext)
	return rc
}
