package http

import (
	"log/slog"
	"net/http"

	"github.com/openshelf/openshelf/internal/domain/actor"
	"github.com/openshelf/openshelf/internal/domain/user"
	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/tenancy"
)

const sessionCookieName = "openshelf_session"

// Login handles POST /api/v1/auth/login. The tenant scope comes from the
// host: on a tenant host only that tenant's users can log in, on the bare
// domain only platform accounts.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}

	var tenantID string
	if rc := tenancy.FromContext(r.Context()); rc.HasTenant() {
		tenantID = rc.Tenant.ID
	}

	resp, err := h.Auth.Login(r.Context(), req, tenantID)
	if err != nil {
		slog.Debug("login failed", "email", req.Email, "error", err)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    resp.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   resp.ExpiresIn,
	})

	writeJSON(w, http.StatusOK, resp)
}

// Register handles POST /api/v1/auth/register. New accounts always belong
// to the host's tenant and start with the user role.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r)
	if !ok {
		return
	}

	rc := tenancy.FromContext(r.Context())
	if !rc.HasTenant() {
		writeError(w, http.StatusNotFound, "registration requires a tenant host")
		return
	}
	req.TenantID = rc.Tenant.ID
	req.Role = actor.RoleUser

	u, err := h.Auth.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "user not created")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Logout handles POST /api/v1/auth/logout by expiring the session cookie.
// The access policy always lets this path through.
func (h *Handlers) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me handles GET /api/v1/auth/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	a := middleware.ActorFromContext(r)
	if !a.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
