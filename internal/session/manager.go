package session

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fleetgate/internal/metrics"
	"fleetgate/internal/session/device"
)

// Config holds the session lifecycle intervals and the environment the
// manager runs in.
type Config struct {
	KeepaliveInterval time.Duration
	IdleTimeout       time.Duration
	UserAgent         string
}

// Manager is the single owned instance of session state for one browsing
// context: the token cache plus the two cooperating timers. Create it on
// mount, Run it, cancel the context on unmount; cancellation tears down both
// timers and discards in-flight refreshes.
type Manager struct {
	cache       *TokenCache
	keepalive   *Keepalive
	idle        *IdleTimer
	logger      *slog.Logger
	fingerprint string
}

// NewManager wires the cache, keepalive, and idle timer together. Both
// timers route through the same TokenCache: keepalive only ever writes
// tokens, the idle timer is the only component that clears them, so an idle
// expiry always wins over a racing refresh.
func NewManager(cfg Config, refresh RefreshFunc, logout LogoutFunc, nav Navigator, logger *slog.Logger, m *metrics.Metrics) *Manager {
	cache := NewTokenCache()
	return &Manager{
		cache:       cache,
		keepalive:   NewKeepalive(cache, refresh, cfg.KeepaliveInterval, logger, m),
		idle:        NewIdleTimer(cache, logout, nav, cfg.IdleTimeout, logger, m),
		logger:      logger,
		fingerprint: device.Fingerprint(cfg.UserAgent),
	}
}

// Run drives both timers until ctx is cancelled. Returns the context error
// on clean teardown.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("session manager starting",
		"keepalive_interval", m.keepalive.interval.String(),
		"idle_timeout", m.idle.window.String(),
		"device_fingerprint", m.fingerprint,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.keepalive.Run(ctx) })
	g.Go(func() error { return m.idle.Run(ctx) })
	return g.Wait()
}

// Cache exposes the token source of truth for request preparation.
func (m *Manager) Cache() *TokenCache { return m.cache }

// Touch forwards a user-activity signal to the idle timer.
func (m *Manager) Touch() { m.idle.Touch() }

// SetVisible forwards tab visibility to the keepalive loop.
func (m *Manager) SetVisible(visible bool) { m.keepalive.SetVisible(visible) }

// Fingerprint returns the device fingerprint used for audit attribution.
func (m *Manager) Fingerprint() string { return m.fingerprint }
