package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetgate/internal/onboarding"
	"fleetgate/pkg/domain"
)

// RedisStore is a read-through cache over an inner onboarding store. Redis
// failures degrade to inner reads; the cache never becomes a source of truth
// for negative results (not-found is not cached).
type RedisStore struct {
	client *redis.Client
	inner  onboarding.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis wraps the inner store with a Redis read-through cache.
func NewRedis(client *redis.Client, inner onboarding.Store, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, inner: inner, ttl: ttl, logger: logger}
}

func (s *RedisStore) GetOnboardingState(ctx context.Context, orgID domain.OrgID) (onboarding.Status, error) {
	key := s.key(orgID)

	raw, err := s.client.Get(ctx, key).Result()
	if err == nil {
		if status, parseErr := onboarding.ParseStatus(raw); parseErr == nil {
			return status, nil
		}
		// Corrupt cache entry: drop it and fall through to the inner store.
		_ = s.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "onboarding cache read failed, using inner store",
			"error", err,
			"org_id", orgID.String(),
		)
	}

	status, err := s.inner.GetOnboardingState(ctx, orgID)
	if err != nil {
		return "", err
	}

	if setErr := s.client.Set(ctx, key, status.String(), s.ttl).Err(); setErr != nil {
		s.logger.WarnContext(ctx, "onboarding cache write failed",
			"error", setErr,
			"org_id", orgID.String(),
		)
	}
	return status, nil
}

// Invalidate drops the cached entry so the next read hits the inner store.
// Called by ops tooling after onboarding workflows flip an organization.
func (s *RedisStore) Invalidate(ctx context.Context, orgID domain.OrgID) error {
	return s.client.Del(ctx, s.key(orgID)).Err()
}

func (s *RedisStore) key(orgID domain.OrgID) string {
	return "onboarding:" + orgID.String()
}
