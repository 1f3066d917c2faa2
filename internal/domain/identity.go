package domain

import "errors"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ErrInvalidRole reports a role value outside the known set.
var ErrInvalidRole = errors.New("invalid role")

// ValidRole reports whether the value is a known role.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// Identity is the authenticated actor bound to a request or connection.
// It is resolved once by the verifier and never mutated afterwards; a role
// change elsewhere does not retroactively affect an open connection.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
