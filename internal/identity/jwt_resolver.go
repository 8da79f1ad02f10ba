package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"fleetgate/pkg/domain"
)

// SessionClaims is the expected shape of the session JWT issued at login.
type SessionClaims struct {
	OrgID       string   `json:"org,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver resolves HMAC-signed session JWTs into identities. It is the
// default oracle implementation; everything suspicious collapses into
// ErrUnauthenticated so the edge gate stays fail-closed.
type JWTResolver struct {
	signingKey []byte
	issuer     string
}

// NewJWTResolver builds a resolver for tokens signed with the given key and
// issued by the given issuer.
func NewJWTResolver(signingKey, issuer string) *JWTResolver {
	return &JWTResolver{signingKey: []byte(signingKey), issuer: issuer}
}

// Resolve validates the credential and maps its claims to an Identity.
// Signature, algorithm, expiry, and issuer are all enforced.
func (r *JWTResolver) Resolve(ctx context.Context, credential string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if credential == "" {
		return nil, ErrUnauthenticated
	}

	claims := new(SessionClaims)
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return r.signingKey, nil
	}, jwt.WithIssuer(r.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, ErrUnauthenticated
	}

	userID, err := domain.ParseUserID(claims.Subject)
	if err != nil || userID.IsNil() {
		return nil, fmt.Errorf("%w: bad subject", ErrUnauthenticated)
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: bad role", ErrUnauthenticated)
	}

	// Org claim is optional: freshly invited users have no organization yet.
	var orgID domain.OrgID
	if claims.OrgID != "" {
		orgID, err = domain.ParseOrgID(claims.OrgID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad org", ErrUnauthenticated)
		}
	}

	return &Identity{
		ID:          userID,
		OrgID:       orgID,
		Role:        role,
		Permissions: claims.Permissions,
	}, nil
}
