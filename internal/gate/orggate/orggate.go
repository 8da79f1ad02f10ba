// Package orggate guards mutating business operations behind the
// organization's onboarding status.
package orggate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fleetgate/internal/metrics"
	"fleetgate/internal/onboarding"
	"fleetgate/pkg/domain"
	"fleetgate/pkg/requestcontext"
)

// Rejection is the structured payload returned when the gate refuses an
// operation. Clients branch on Code, not on the HTTP status.
type Rejection struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	CTAHref string `json:"ctaHref"`
}

const rejectionCode = "ORG_NOT_OPERATIONAL"

// storeReadTimeout bounds the detached onboarding read behind singleflight.
const storeReadTimeout = 3 * time.Second

type cacheEntry struct {
	operational bool
	expiresAt   time.Time
}

// Checker answers "is this organization operational?" with a TTL cache and
// singleflight so the gate costs at most one store read per organization per
// window, even under concurrent mutations.
type Checker struct {
	store   onboarding.Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	group singleflight.Group
	mu    sync.RWMutex
	cache map[domain.OrgID]cacheEntry
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithCacheTTL overrides the cache window when greater than zero.
func WithCacheTTL(ttl time.Duration) CheckerOption {
	return func(c *Checker) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMetrics attaches gate metrics.
func WithMetrics(m *metrics.Metrics) CheckerOption {
	return func(c *Checker) {
		c.metrics = m
	}
}

// NewChecker builds a checker over the onboarding store.
func NewChecker(store onboarding.Store, logger *slog.Logger, opts ...CheckerOption) *Checker {
	c := &Checker{
		store:  store,
		ttl:    30 * time.Second,
		logger: logger,
		cache:  make(map[domain.OrgID]cacheEntry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Operational reports whether the organization may perform business actions.
// A missing onboarding record means not operational, not an error.
func (c *Checker) Operational(ctx context.Context, orgID domain.OrgID) (bool, error) {
	c.mu.RLock()
	entry, ok := c.cache[orgID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		if c.metrics != nil {
			c.metrics.OnboardingCacheHits.Inc()
		}
		return entry.operational, nil
	}
	if c.metrics != nil {
		c.metrics.OnboardingCacheMiss.Inc()
	}

	v, err, _ := c.group.Do(orgID.String(), func() (any, error) {
		if c.metrics != nil {
			c.metrics.OnboardingStoreReads.Inc()
		}
		// The read serves every coalesced waiter, so it must not inherit the
		// first caller's cancellation. Detached, with its own bound.
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeReadTimeout)
		defer cancel()
		status, err := c.store.GetOnboardingState(readCtx, orgID)
		if errors.Is(err, onboarding.ErrNotFound) {
			status = onboarding.StatusNotActivated
		} else if err != nil {
			return nil, err
		}

		operational := status == onboarding.StatusOperational
		c.mu.Lock()
		c.cache[orgID] = cacheEntry{operational: operational, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return operational, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// storeInvalidator is implemented by stores that keep their own cache layer.
type storeInvalidator interface {
	Invalidate(ctx context.Context, orgID domain.OrgID) error
}

// Invalidate drops the cached answer for the organization, here and in any
// caching store underneath. Called when an onboarding workflow flips status.
func (c *Checker) Invalidate(orgID domain.OrgID) {
	c.mu.Lock()
	delete(c.cache, orgID)
	c.mu.Unlock()

	if inv, ok := c.store.(storeInvalidator); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := inv.Invalidate(ctx, orgID); err != nil {
			c.logger.Warn("store-level invalidation failed, TTL will catch up",
				"error", err,
				"org_id", orgID.String(),
			)
		}
	}
}

// Require wraps a mutating handler. The outer edge gate must already have
// authenticated the request; this guard only decides the business admission.
func Require(checker *Checker, ctaHref string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := requestcontext.UserID(ctx)
			if userID.IsNil() {
				// Contract violation: an unauthenticated request reached a
				// guarded mutation. Fail closed rather than guessing.
				logger.ErrorContext(ctx, "org gate reached without identity",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}

			orgID := requestcontext.OrgID(ctx)
			if orgID.IsNil() {
				// No organization association: rejected before any lookup.
				reject(w, r, checker, ctaHref, logger)
				return
			}

			operational, err := checker.Operational(ctx, orgID)
			if err != nil {
				logger.ErrorContext(ctx, "onboarding lookup failed",
					"error", err,
					"org_id", orgID.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
				return
			}
			if !operational {
				reject(w, r, checker, ctaHref, logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, checker *Checker, ctaHref string, logger *slog.Logger) {
	ctx := r.Context()
	if checker.metrics != nil {
		checker.metrics.OrgGateRejections.Inc()
	}
	logger.InfoContext(ctx, "mutation rejected, org not operational",
		"path", r.URL.Path,
		"user_id", requestcontext.UserID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	writeJSON(w, http.StatusForbidden, Rejection{
		Code:    rejectionCode,
		Message: "Your organization has not completed setup. Finish onboarding to unlock this action.",
		CTAHref: ctaHref,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
