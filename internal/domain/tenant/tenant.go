// Package tenant defines the tenant domain model for multi-tenancy.
package tenant

import (
	"errors"
	"time"
)

// Status represents the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Premium feature IDs known to the platform. Each has a matching boolean
// entitlement column on the tenant row; adding a feature means adding a column.
const (
	FeatureBookcoverAPI    = "bookcover_api"
	FeatureNationalCatalog = "national_catalog"
)

// Entitlements is the fixed set of per-tenant premium flags. It is a closed
// struct rather than a map so the schema and the code agree on which features
// exist.
type Entitlements struct {
	BookcoverAPI    bool `json:"bookcover_api"`
	NationalCatalog bool `json:"national_catalog"`
}

// Limits holds soft numeric caps for a tenant. A nil value means unlimited.
type Limits struct {
	MaxLibraries *int `json:"max_libraries,omitempty"`
	MaxBooks     *int `json:"max_books,omitempty"`
}

// Tenant represents an isolated organization in the system. Subdomain is
// globally unique when present; platform-level records may leave it empty.
type Tenant struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Subdomain    string       `json:"subdomain"`
	Status       Status       `json:"status"`
	Entitlements Entitlements `json:"entitlements"`
	Limits       Limits       `json:"limits"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Entitled reports whether this tenant has purchased/enabled the given
// premium feature. Unknown feature IDs are never entitled.
func (t *Tenant) Entitled(featureID string) bool {
	switch featureID {
	case FeatureBookcoverAPI:
		return t.Entitlements.BookcoverAPI
	case FeatureNationalCatalog:
		return t.Entitlements.NationalCatalog
	default:
		return false
	}
}

// Active reports whether the tenant may serve traffic.
func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Subdomain != "" && !IsValidSubdomain(r.Subdomain) {
		return errors.New("invalid subdomain")
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on a tenant.
type UpdateRequest struct {
	Name      string  `json:"name,omitempty"`
	Subdomain string  `json:"subdomain,omitempty"`
	Status    *Status `json:"status,omitempty"`
	Limits    *Limits `json:"limits,omitempty"`
}

// EntitlementsRequest updates the per-tenant premium flags. Nil fields are
// left untouched.
type EntitlementsRequest struct {
	BookcoverAPI    *bool `json:"bookcover_api,omitempty"`
	NationalCatalog *bool `json:"national_catalog,omitempty"`
}
