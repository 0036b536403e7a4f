// Package policy implements the per-request access decision for the
// multi-tenant request pipeline. Evaluation is pure: the same input always
// yields the same Decision, and no state is mutated.
package policy

import (
	"strings"

	"github.com/openshelf/openshelf/internal/domain/actor"
	"github.com/openshelf/openshelf/internal/domain/tenant"
)

// Decision is the outcome of evaluating one request against the policy.
type Decision string

const (
	DecisionAllow           Decision = "allow"
	DecisionRedirectToLogin Decision = "redirect_to_login"
	DecisionForbidden       Decision = "forbidden"
	DecisionNotFound        Decision = "not_found"
)

// LogoutPath is always allowed so a stuck session can always be ended.
const LogoutPath = "/api/v1/auth/logout"

// publicPaths are reachable by anonymous visitors on tenant hosts.
var publicPaths = map[string]bool{
	"/api/v1/auth/login":    true,
	"/api/v1/auth/register": true,
	"/health":               true,
}

// publicPrefixes extend publicPaths for endpoints with sub-routes.
var publicPrefixes = []string{
	"/api/v1/auth/password-reset",
	"/api/v1/auth/email-verify",
	"/static/",
}

// superAdminPrefixes are the self-service paths a super-admin may use
// outside the /admin tree.
var superAdminPrefixes = []string{
	"/messaging-admin",
	"/notifications",
	"/account-settings",
}

// Request is the input to one policy evaluation.
type Request struct {
	Actor       actor.Actor
	Tenant      *tenant.Tenant // tenant implied by the host, nil if none resolved
	Host        string
	Path        string
	StaticAsset bool
}

// Policy evaluates access decisions for incoming requests.
type Policy struct {
	// Strict makes an unresolvable (but syntactically valid) subdomain on an
	// enforceable host answer NotFound instead of falling through.
	Strict bool
}

// Result pairs a Decision with the reason it was taken, for the audit trail.
type Result struct {
	Decision Decision
	Reason   string
}

func allow(reason string) Result               { return Result{DecisionAllow, reason} }
func decided(d Decision, reason string) Result { return Result{d, reason} }

// Evaluate applies the access rules in order; the first matching rule wins.
// The super-admin rule runs before tenant matching because a super-admin has
// no tenant and would otherwise always fail the mismatch check.
func (p Policy) Evaluate(req Request) Result {
	if req.StaticAsset || req.Path == LogoutPath {
		return allow("static_or_logout")
	}

	if req.Actor.Kind == actor.KindSuperAdmin {
		if isSuperAdminPath(req.Path) {
			return allow("super_admin_path")
		}
		return decided(DecisionForbidden, "super_admin_outside_allowlist")
	}

	if tenant.EnforceableHost(req.Host) {
		if req.Tenant != nil {
			if req.Actor.Kind == actor.KindAnonymous && !isPublicPath(req.Path) {
				return decided(DecisionRedirectToLogin, "anonymous_on_tenant_host")
			}
			if req.Actor.Kind == actor.KindTenantUser && req.Actor.TenantID != req.Tenant.ID {
				return decided(DecisionForbidden, "tenant_mismatch")
			}
			return allow("tenant_member")
		}
		if sub, ok := tenant.SubdomainFromHost(req.Host); ok && p.Strict && tenant.IsValidSubdomain(sub) {
			return decided(DecisionNotFound, "unknown_subdomain")
		}
	}

	// Bare domain or non-subdomain host: route-level role checks apply later.
	return allow("no_tenant_scope")
}

func isSuperAdminPath(path string) bool {
	if path == "/admin" || strings.HasPrefix(path, "/admin/") {
		return true
	}
	for _, prefix := range superAdminPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
