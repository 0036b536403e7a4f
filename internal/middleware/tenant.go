package middleware

import (
	"net/http"
	"time"

	otelad "github.com/openshelf/openshelf/internal/adapter/otel"
	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// Tenant resolves the request host to a tenant through the directory and
// installs a fresh RequestContext. Resolution is attempted on any host with
// a subdomain-shaped first label; whether the result is enforced is the
// access middleware's concern. An unresolvable host leaves Tenant nil.
// metrics may be nil.
func Tenant(directory *tenancy.Directory, metrics *otelad.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := &tenancy.RequestContext{}
			if sub, ok := tenant.SubdomainFromHost(r.Host); ok {
				start := time.Now()
				rc.Tenant = directory.ResolveBySubdomain(r.Context(), sub)
				if metrics != nil {
					metrics.ResolveDuration.Record(r.Context(), time.Since(start).Seconds())
				}
			}

			ctx := tenancy.WithRequestContext(r.Context(), rc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
