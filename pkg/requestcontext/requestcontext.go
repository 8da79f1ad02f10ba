// Package requestcontext carries request-scoped values through context with
// typed accessors, so handlers never touch raw context keys.
package requestcontext

import (
	"context"
	"time"

	"fleetgate/pkg/domain"
)

type contextKey int

const (
	keyRequestID contextKey = iota
	keyUserID
	keyOrgID
	keyRole
	keyClientIP
	keyNow
)

// WithRequestID attaches the request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestID returns the request correlation ID, or "" when unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		return v
	}
	return ""
}

func WithUserID(ctx context.Context, id domain.UserID) context.Context {
	return context.WithValue(ctx, keyUserID, id)
}

// UserID returns the authenticated user's ID, or the nil ID when the request
// carries no identity.
func UserID(ctx context.Context) domain.UserID {
	if v, ok := ctx.Value(keyUserID).(domain.UserID); ok {
		return v
	}
	return domain.UserID{}
}

func WithOrgID(ctx context.Context, id domain.OrgID) context.Context {
	return context.WithValue(ctx, keyOrgID, id)
}

// OrgID returns the organization the identity belongs to. The nil ID means
// "no organization association", which downstream gates must treat as a
// first-class state, not an error.
func OrgID(ctx context.Context) domain.OrgID {
	if v, ok := ctx.Value(keyOrgID).(domain.OrgID); ok {
		return v
	}
	return domain.OrgID{}
}

func WithRole(ctx context.Context, role domain.Role) context.Context {
	return context.WithValue(ctx, keyRole, role)
}

// Role returns the identity's role, or "" when the request is unauthenticated.
func Role(ctx context.Context) domain.Role {
	if v, ok := ctx.Value(keyRole).(domain.Role); ok {
		return v
	}
	return ""
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, keyClientIP, ip)
}

func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(keyClientIP).(string); ok {
		return v
	}
	return "unknown"
}

// WithNow pins the request-scoped clock, used by tests for deterministic time.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, keyNow, now)
}

// Now returns the request-scoped time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(keyNow).(time.Time); ok {
		return v
	}
	return time.Now()
}
