package http

import (
	"net/http"

	"github.com/openshelf/openshelf/internal/tenancy"
)

// featureView is the tenant-facing state of one premium feature.
type featureView struct {
	ID        string `json:"id"`
	Entitled  bool   `json:"entitled"`
	Available bool   `json:"available"`
}

// ListFeatures handles GET /api/v1/features: which premium features the
// request's tenant may use right now. Available means the whole chain holds:
// deployment switch, entitlement, and a valid license.
func (h *Handlers) ListFeatures(w http.ResponseWriter, r *http.Request) {
	rc := tenancy.FromContext(r.Context())

	views := []featureView{}
	for _, id := range h.Gate.Registry().IDs() {
		views = append(views, featureView{
			ID:        id,
			Entitled:  rc.Entitled(id),
			Available: h.Gate.Available(r.Context(), rc, id),
		})
	}
	writeJSON(w, http.StatusOK, views)
}
