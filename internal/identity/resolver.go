package identity

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned by resolvers for any credential that does
// not map to a live session: missing, malformed, expired, or revoked. Callers
// must not distinguish between these cases.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolver is the session identity oracle. Implementations must be
// idempotent, side-effect free, and honor the context deadline; the edge gate
// makes exactly one call per request with a bounded timeout.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
}
