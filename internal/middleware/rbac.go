package middleware

import (
	"net/http"

	"github.com/openshelf/openshelf/internal/domain/actor"
)

// RequireRole restricts a route to authenticated tenant users with one of
// the given roles. Super-admins do not pass: platform operators use the
// admin surface, not tenant routes.
func RequireRole(roles ...actor.Role) func(http.Handler) http.Handler {
	allowed := make(map[actor.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := ActorFromContext(r)
			if a.Kind != actor.KindTenantUser {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}
			if !allowed[a.Role] {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin restricts a route to platform operators.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := ActorFromContext(r)
		if a.Kind != actor.KindSuperAdmin {
			if a.Kind == actor.KindAnonymous {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
