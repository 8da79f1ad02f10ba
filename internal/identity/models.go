// Package identity defines the authenticated actor and the session identity
// oracle that resolves credentials into identities.
package identity

import (
	"fleetgate/pkg/domain"
)

// Identity is the resolved authenticated actor for a single request or
// render cycle. It is constructed per request and never cached beyond it.
type Identity struct {
	ID          domain.UserID
	OrgID       domain.OrgID // nil ID when the user has no organization yet
	Role        domain.Role
	Permissions []string
}

// HasOrg reports whether the identity carries an organization association.
func (i *Identity) HasOrg() bool {
	return !i.OrgID.IsNil()
}

// Can reports whether the identity holds the named permission.
func (i *Identity) Can(perm string) bool {
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
