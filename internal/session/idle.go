package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fleetgate/internal/metrics"
)

// Navigator performs the hard navigation that ends the user's view of the
// session. Implementations must be safe to call from a timer goroutine.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// LogoutFunc notifies the server the session is over. Best effort only.
type LogoutFunc func(ctx context.Context) error

// IdleTimer forces local sign-out after a window with no recognized user
// activity. It maintains a single pending deadline: activity replaces the
// deadline rather than stacking timers. When no token is cached the timer is
// disarmed entirely, because there is nothing to expire.
type IdleTimer struct {
	cache         *TokenCache
	logout        LogoutFunc
	nav           Navigator
	window        time.Duration
	logoutTimeout time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics

	watch <-chan struct{}

	mu       sync.Mutex
	timer    *time.Timer
	armed    bool
	deadline time.Time
}

// NewIdleTimer builds the watchdog. window is the idle period; the timer
// stays inert until Run observes a cached token.
func NewIdleTimer(cache *TokenCache, logout LogoutFunc, nav Navigator, window time.Duration, logger *slog.Logger, m *metrics.Metrics) *IdleTimer {
	return &IdleTimer{
		cache:         cache,
		logout:        logout,
		nav:           nav,
		window:        window,
		logoutTimeout: 5 * time.Second,
		logger:        logger,
		metrics:       m,
		// Subscribe at construction so a token set before Run starts is
		// never missed.
		watch: cache.Watch(),
	}
}

// Run keeps the timer in sync with token presence until ctx is cancelled.
func (t *IdleTimer) Run(ctx context.Context) error {
	t.sync()

	for {
		select {
		case <-ctx.Done():
			t.disarm()
			return ctx.Err()
		case <-t.watch:
			t.sync()
		}
	}
}

// Touch registers a user-activity signal. It coalesces: the pending deadline
// is replaced, never duplicated. A disarmed timer stays disarmed.
func (t *IdleTimer) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return
	}
	t.deadline = time.Now().Add(t.window)
	t.timer.Reset(t.window)
}

// sync arms or disarms based on the single source of truth.
func (t *IdleTimer) sync() {
	if _, ok := t.cache.Get(); ok {
		t.arm()
	} else {
		t.disarm()
	}
}

func (t *IdleTimer) arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deadline = time.Now().Add(t.window)
	if t.timer == nil {
		t.timer = time.AfterFunc(t.window, t.expire)
	} else {
		t.timer.Reset(t.window)
	}
	t.armed = true
}

func (t *IdleTimer) disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.armed = false
}

// expire runs on the timer goroutine when the deadline elapses. The armed
// flag guarantees the termination sequence is observable exactly once per
// idle period, even if activity races the firing timer.
func (t *IdleTimer) expire() {
	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return
	}
	// Activity may have advanced the deadline after this timer fired.
	if remaining := time.Until(t.deadline); remaining > 0 {
		t.timer.Reset(remaining)
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.mu.Unlock()

	// Best effort: the server call may fail, local sign-out happens anyway.
	ctx, cancel := context.WithTimeout(context.Background(), t.logoutTimeout)
	defer cancel()
	if err := t.logout(ctx); err != nil {
		t.logger.Warn("idle logout call failed, terminating locally anyway", "error", err)
	}

	t.cache.Clear()
	if t.metrics != nil {
		t.metrics.IdleLogouts.Inc()
	}
	t.logger.Info("session terminated by idle timeout")
	t.nav.Navigate("/")
}
