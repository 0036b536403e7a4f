// Package actor defines the authenticated principal attached to a request.
package actor

// Role represents the authorization level of a tenant user.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// ValidRoles is the set of all valid tenant user roles.
var ValidRoles = map[Role]bool{
	RoleUser:    true,
	RoleManager: true,
	RoleAdmin:   true,
}

// Kind discriminates the actor variants.
type Kind string

const (
	KindAnonymous  Kind = "anonymous"
	KindTenantUser Kind = "tenant_user"
	KindSuperAdmin Kind = "super_admin"
)

// Actor is the principal for one request. A TenantUser carries its tenant ID
// and role; a SuperAdmin belongs to no tenant.
type Actor struct {
	Kind     Kind   `json:"kind"`
	UserID   string `json:"user_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// Anonymous returns the unauthenticated actor.
func Anonymous() Actor {
	return Actor{Kind: KindAnonymous}
}

// TenantUser returns an actor for an authenticated user within a tenant.
func TenantUser(userID, tenantID string, role Role) Actor {
	return Actor{Kind: KindTenantUser, UserID: userID, TenantID: tenantID, Role: role}
}

// SuperAdmin returns a platform operator actor. Super-admins have no tenant.
func SuperAdmin(userID string) Actor {
	return Actor{Kind: KindSuperAdmin, UserID: userID}
}

// IsAuthenticated reports whether the actor is anything but anonymous.
func (a Actor) IsAuthenticated() bool {
	return a.Kind != KindAnonymous
}
