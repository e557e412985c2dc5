package domain

import apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"

// Role determines which broadcast rooms a connection joins and which
// REST surfaces a user may call.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ParseRole converts a string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAgent, RoleManager, RoleCustomer, RoleAdmin:
		return Role(s), nil
	default:
		return "", apperrors.ErrInvalidRole
	}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// StaffRoles returns the roles that make up "staff" broadcasts
// (agents plus managers).
func StaffRoles() []Role {
	return []Role{RoleAgent, RoleManager}
}
