package edge

import "strings"

// Classification is the static visibility policy for a path. Every path
// resolves to exactly one classification.
type Classification int

const (
	// ClassPublic paths (login, invites, password reset, setup) pass through
	// without ever consulting the identity oracle.
	ClassPublic Classification = iota
	// ClassAuthenticated paths require a resolved identity.
	ClassAuthenticated
	// ClassAdminOnly paths additionally require the admin role.
	ClassAdminOnly
)

func (c Classification) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassAdminOnly:
		return "admin_only"
	default:
		return "authenticated"
	}
}

// RouteTable is the static, externally configurable path policy. It is built
// once at startup and read concurrently without locks.
type RouteTable struct {
	exemptPrefixes []string
	publicPrefixes []string
	adminPrefixes  []string
}

// NewRouteTable builds a table from configured prefix lists. Exempt prefixes
// cover static assets and internal surfaces (health, metrics, ops) that skip
// admission entirely.
func NewRouteTable(exempt, public, admin []string) *RouteTable {
	return &RouteTable{
		exemptPrefixes: exempt,
		publicPrefixes: public,
		adminPrefixes:  admin,
	}
}

// IsExempt reports whether the path bypasses admission checks unconditionally.
func (t *RouteTable) IsExempt(path string) bool {
	return matchesAny(path, t.exemptPrefixes)
}

// Classify resolves the path's visibility. Admin prefixes are checked before
// public ones so a misconfigured overlap fails toward the stricter policy.
func (t *RouteTable) Classify(path string) Classification {
	if matchesAny(path, t.adminPrefixes) {
		return ClassAdminOnly
	}
	if matchesAny(path, t.publicPrefixes) {
		return ClassPublic
	}
	return ClassAuthenticated
}

// matchesAny does prefix matching with a path-boundary check, so "/admin"
// matches "/admin" and "/admin/users" but not "/administrivia".
func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
