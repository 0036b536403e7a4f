package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	otelad "github.com/openshelf/openshelf/internal/adapter/otel"
	"github.com/openshelf/openshelf/internal/domain/policy"
	"github.com/openshelf/openshelf/internal/feature"
	"github.com/openshelf/openshelf/internal/port/audit"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// loginPath is where anonymous visitors on a tenant host are sent.
const loginPath = "/login"

// Access evaluates the access policy for every request and enforces the
// decision. On Allow it also computes the tenant's entitled feature set so
// downstream code never consults entitlements twice with different answers.
// Denials are recorded on the audit sink before the response is written.
func Access(pol policy.Policy, gate *feature.Gate, sink audit.Sink, metrics *otelad.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := tenancy.FromContext(r.Context())

			req := policy.Request{
				Actor:       rc.Actor,
				Tenant:      rc.Tenant,
				Host:        r.Host,
				Path:        r.URL.Path,
				StaticAsset: strings.HasPrefix(r.URL.Path, "/static/"),
			}
			res := pol.Evaluate(req)

			if metrics != nil {
				metrics.PolicyDecisions.Add(r.Context(), 1,
					metric.WithAttributes(attribute.String("decision", string(res.Decision))))
			}

			switch res.Decision {
			case policy.DecisionAllow:
				rc.Features = gate.EntitledFeatures(rc.Tenant)
				next.ServeHTTP(w, r)

			case policy.DecisionRedirectToLogin:
				record(r, sink, rc, res)
				http.Redirect(w, r, loginPath, http.StatusFound)

			case policy.DecisionForbidden:
				record(r, sink, rc, res)
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)

			case policy.DecisionNotFound:
				record(r, sink, rc, res)
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			}
		})
	}
}

func record(r *http.Request, sink audit.Sink, rc *tenancy.RequestContext, res policy.Result) {
	ev := audit.Event{
		ID:      uuid.NewString(),
		Action:  "access." + string(res.Decision),
		Actor:   rc.Actor,
		Path:    r.URL.Path,
		Outcome: string(res.Decision),
		Reason:  res.Reason,
		At:      time.Now().UTC(),
	}
	if rc.Tenant != nil {
		ev.TenantID = rc.Tenant.ID
	}
	sink.Record(r.Context(), ev)
}
