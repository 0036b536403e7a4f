package http

import (
	"net/http"
	"time"

	"github.com/openshelf/openshelf/internal/domain/tenant"
)

// Admin handlers serve the /admin tree. Routes are mounted behind the
// super-admin guard; none of them are tenant-scoped.

// AdminListTenants handles GET /admin/tenants.
func (h *Handlers) AdminListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Tenants.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	writeJSON(w, http.StatusOK, tenants)
}

// AdminCreateTenant handles POST /admin/tenants.
func (h *Handlers) AdminCreateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.CreateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Tenants.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "tenant not created")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// AdminGetTenant handles GET /admin/tenants/{id}.
func (h *Handlers) AdminGetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tenants.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// AdminUpdateTenant handles PUT /admin/tenants/{id}.
func (h *Handlers) AdminUpdateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.UpdateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Tenants.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// AdminSetEntitlements handles PUT /admin/tenants/{id}/entitlements.
// Flag changes take effect on the tenant's next resolution; no restart.
func (h *Handlers) AdminSetEntitlements(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.EntitlementsRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Tenants.SetEntitlements(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// AdminListFeatures handles GET /admin/features: every registered feature
// with its enablement and license state.
func (h *Handlers) AdminListFeatures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Gate.Registry().List(time.Now().UTC()))
}

// AdminListLicenses handles GET /admin/licenses.
func (h *Handlers) AdminListLicenses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Gate.Registry().Licenses(time.Now().UTC()))
}

// AdminReloadLicenses handles POST /admin/licenses/reload. Cached license
// state and memoized implementations are dropped; the next use re-reads and
// re-validates each license file.
func (h *Handlers) AdminReloadLicenses(w http.ResponseWriter, _ *http.Request) {
	h.Gate.Registry().Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
