package middleware

import (
	"net/http"
	"strings"

	"github.com/openshelf/openshelf/internal/domain/actor"
	"github.com/openshelf/openshelf/internal/service"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// sessionCookie carries the session token for browser clients; API clients
// use the Authorization header instead.
const sessionCookie = "openshelf_session"

// Auth validates the session credential, if any, and sets the actor on the
// request context. Requests without a credential proceed as anonymous; the
// access middleware decides what anonymous may reach. An invalid or expired
// credential also reads as anonymous rather than failing the request here.
func Auth(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := tenancy.FromContext(r.Context())
			if rc == nil {
				rc = &tenancy.RequestContext{}
				r = r.WithContext(tenancy.WithRequestContext(r.Context(), rc))
			}
			rc.Actor = actor.Anonymous()

			if token := extractToken(r); token != "" {
				if claims, err := authSvc.ValidateToken(token); err == nil {
					if claims.TenantID == "" && claims.Role == actor.RoleAdmin {
						rc.Actor = actor.SuperAdmin(claims.UserID)
					} else {
						rc.Actor = actor.TenantUser(claims.UserID, claims.TenantID, claims.Role)
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the credential from Authorization: Bearer or the
// session cookie, in that order.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token := strings.TrimPrefix(h, "Bearer "); token != h {
			return token
		}
		return ""
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// ActorFromContext returns the request's actor, anonymous when no pipeline ran.
func ActorFromContext(r *http.Request) actor.Actor {
	if rc := tenancy.FromContext(r.Context()); rc != nil {
		return rc.Actor
	}
	return actor.Anonymous()
}
