package domain

import dErrors "fleetgate/pkg/domain-errors"

// Role is the coarse authorization level attached to an identity.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
)

// ParseRole validates a role string from an untrusted source (token claims).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDispatcher, RoleDriver:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether the role may enter admin-only routes.
func (r Role) IsAdmin() bool { return r == RoleAdmin }
