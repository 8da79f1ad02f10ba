package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "fleetgate"
	testUserID = "550e8400-e29b-41d4-a716-446655440001"
	testOrgID  = "550e8400-e29b-41d4-a716-446655440002"
)

func mintToken(t *testing.T, key string, mutate func(*SessionClaims)) string {
	t.Helper()
	claims := &SessionClaims{
		OrgID:       testOrgID,
		Role:        "dispatcher",
		Permissions: []string{"loads:write"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUserID,
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if mutate != nil {
		mutate(claims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestResolveValidToken(t *testing.T) {
	r := NewJWTResolver(testKey, testIssuer)

	ident, err := r.Resolve(context.Background(), mintToken(t, testKey, nil))
	require.NoError(t, err)

	assert.Equal(t, testUserID, ident.ID.String())
	assert.Equal(t, testOrgID, ident.OrgID.String())
	assert.Equal(t, "dispatcher", ident.Role.String())
	assert.True(t, ident.HasOrg())
	assert.True(t, ident.Can("loads:write"))
	assert.False(t, ident.Can("loads:delete"))
}

func TestResolveNoOrgClaim(t *testing.T) {
	r := NewJWTResolver(testKey, testIssuer)

	ident, err := r.Resolve(context.Background(), mintToken(t, testKey, func(c *SessionClaims) {
		c.OrgID = ""
	}))
	require.NoError(t, err)
	assert.False(t, ident.HasOrg())
}

func TestResolveRejections(t *testing.T) {
	r := NewJWTResolver(testKey, testIssuer)
	ctx := context.Background()

	cases := []struct {
		name       string
		credential string
	}{
		{"empty credential", ""},
		{"garbage", "not-a-jwt"},
		{"wrong key", mintToken(t, "other-key", nil)},
		{"expired", mintToken(t, testKey, func(c *SessionClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		})},
		{"wrong issuer", mintToken(t, testKey, func(c *SessionClaims) {
			c.Issuer = "someone-else"
		})},
		{"unknown role", mintToken(t, testKey, func(c *SessionClaims) {
			c.Role = "superuser"
		})},
		{"bad subject", mintToken(t, testKey, func(c *SessionClaims) {
			c.Subject = "42"
		})},
		{"bad org", mintToken(t, testKey, func(c *SessionClaims) {
			c.OrgID = "not-a-uuid"
		})},
		{"no expiry", mintToken(t, testKey, func(c *SessionClaims) {
			c.ExpiresAt = nil
		})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ident, err := r.Resolve(ctx, tc.credential)
			assert.Nil(t, ident)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestResolveHonorsContextCancellation(t *testing.T) {
	r := NewJWTResolver(testKey, testIssuer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, mintToken(t, testKey, nil))
	assert.ErrorIs(t, err, context.Canceled)
}
