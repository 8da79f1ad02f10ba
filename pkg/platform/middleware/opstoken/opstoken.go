// Package opstoken protects operational endpoints with a shared bearer
// secret. The secret is configured as a bcrypt hash, so a leaked config dump
// never exposes the usable token.
package opstoken

import (
	"context"
	"log/slog"
	"net/http"

	"fleetgate/pkg/requestcontext"
	"fleetgate/pkg/secrets"
)

type contextKeyOpsActor struct{}

// ActorID returns the operator identifier attached by Require, or "" when
// the request did not pass through it.
func ActorID(ctx context.Context) string {
	if actor, ok := ctx.Value(contextKeyOpsActor{}).(string); ok {
		return actor
	}
	return ""
}

// Require verifies the X-Ops-Token header against the configured bcrypt
// hash. An empty hash disables the ops surface entirely.
func Require(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if tokenHash == "" {
				logger.WarnContext(ctx, "ops endpoint hit with no ops token configured",
					"request_id", requestcontext.RequestID(ctx),
				)
				http.NotFound(w, r)
				return
			}

			token := r.Header.Get("X-Ops-Token")
			if err := secrets.Verify(token, tokenHash); err != nil {
				logger.WarnContext(ctx, "ops token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"ops token required"}`))
				return
			}

			// Operator identity for audit attribution.
			if actor := r.Header.Get("X-Ops-Actor-ID"); actor != "" {
				ctx = context.WithValue(ctx, contextKeyOpsActor{}, actor)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
