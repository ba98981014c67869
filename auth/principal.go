package auth

import "time"

// RoleType represents a dashboard user role. The set is closed: the server
// never issues a role outside this enumeration.
type RoleType string

const (
	// RoleAdmin is the only role permitted to establish a session in this
	// application. The dashboard is an administrative tool; everyone else
	// is locked out regardless of credential validity.
	RoleAdmin RoleType = "admin"

	// RoleManager can sign in to other products backed by the same auth
	// server, but not to this dashboard.
	RoleManager RoleType = "manager"

	// RoleViewer is a read-only role on other products.
	RoleViewer RoleType = "viewer"
)

// PrivilegedRole is the single role the role gate admits.
const PrivilegedRole = RoleAdmin

// Valid reports whether the role belongs to the closed enumeration.
func (r RoleType) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

// Principal is the authenticated user record returned by the server. It is
// never mutated locally; a profile update replaces the cached copy
// wholesale with the server's response.
type Principal struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Role            RoleType  `json:"role"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// IsPrivileged reports whether the principal passes the role gate.
func (p *Principal) IsPrivileged() bool {
	return p != nil && p.Role == PrivilegedRole
}
