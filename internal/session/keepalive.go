package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fleetgate/internal/metrics"
)

// RefreshFunc fetches a fresh anti-forgery token from the server.
type RefreshFunc func(ctx context.Context) (string, error)

// Keepalive periodically refreshes the anti-forgery token while the tab is
// visible. Refresh failure is not proof of session death, so it never clears
// the cache and never forces a logout: that policy belongs to the idle timer.
type Keepalive struct {
	cache    *TokenCache
	refresh  RefreshFunc
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	visible bool
	kick    chan struct{}
}

// NewKeepalive builds the refresher. The interval must be shorter than the
// server-side token expiry; callers own that relationship.
func NewKeepalive(cache *TokenCache, refresh RefreshFunc, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Keepalive {
	return &Keepalive{
		cache:    cache,
		refresh:  refresh,
		interval: interval,
		timeout:  10 * time.Second,
		logger:   logger,
		metrics:  m,
		visible:  true,
		kick:     make(chan struct{}, 1),
	}
}

// SetVisible records tab visibility. A hidden→visible transition triggers an
// immediate refresh to correct for drift accumulated while backgrounded.
func (k *Keepalive) SetVisible(visible bool) {
	k.mu.Lock()
	was := k.visible
	k.visible = visible
	k.mu.Unlock()

	if visible && !was {
		select {
		case k.kick <- struct{}{}:
		default:
		}
	}
}

func (k *Keepalive) isVisible() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.visible
}

// Run drives the refresh loop until ctx is cancelled.
func (k *Keepalive) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if k.isVisible() {
				k.doRefresh(ctx)
			}
		case <-k.kick:
			k.doRefresh(ctx)
		}
	}
}

// doRefresh performs one bounded refresh attempt. A response that lands
// after the owning context is cancelled is discarded, never applied.
func (k *Keepalive) doRefresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	value, err := k.refresh(refreshCtx)
	if err != nil {
		if k.metrics != nil {
			k.metrics.KeepaliveRefreshes.WithLabelValues("failure").Inc()
		}
		k.logger.WarnContext(ctx, "keepalive refresh failed, keeping current token", "error", err)
		return
	}
	if ctx.Err() != nil {
		return
	}

	k.cache.Set(value, time.Now())
	if k.metrics != nil {
		k.metrics.KeepaliveRefreshes.WithLabelValues("success").Inc()
	}
}
