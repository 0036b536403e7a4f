package http

import (
	"net/http"

	"github.com/openshelf/openshelf/internal/feature"
	"github.com/openshelf/openshelf/internal/service"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// Handlers bundles the services the HTTP layer dispatches to.
type Handlers struct {
	Auth    *service.AuthService
	Tenants *service.TenantService
	Catalog *service.CatalogService
	Gate    *feature.Gate
}

// NewHandlers creates the handler set.
func NewHandlers(auth *service.AuthService, tenants *service.TenantService, catalog *service.CatalogService, gate *feature.Gate) *Handlers {
	return &Handlers{Auth: auth, Tenants: tenants, Catalog: catalog, Gate: gate}
}

// requireTenant returns the request's tenant ID or writes a 404. Tenant
// routes are only meaningful on a resolved tenant host.
func requireTenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	rc := tenancy.FromContext(r.Context())
	if !rc.HasTenant() {
		writeError(w, http.StatusNotFound, "no tenant for this host")
		return "", false
	}
	return rc.Tenant.ID, true
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
