package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// navRecorder counts hard navigations.
type navRecorder struct {
	mu      sync.Mutex
	targets []string
}

func (n *navRecorder) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *navRecorder) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.targets)
}

// logoutRecorder counts best-effort logout calls and can be made to fail.
type logoutRecorder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (l *logoutRecorder) logout(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.err
}

func (l *logoutRecorder) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func startIdle(t *testing.T, cache *TokenCache, logout *logoutRecorder, nav *navRecorder, window time.Duration) context.CancelFunc {
	t.Helper()
	timer := NewIdleTimer(cache, logout.logout, nav, window, slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = timer.Run(ctx) }()
	return cancel
}

func TestNoTokenNeverArms(t *testing.T) {
	cache := NewTokenCache()
	logout := &logoutRecorder{}
	nav := &navRecorder{}
	cancel := startIdle(t, cache, logout, nav, 30*time.Millisecond)
	defer cancel()

	time.Sleep(120 * time.Millisecond)

	assert.Zero(t, nav.count(), "no deadline timer may be armed without a token")
	assert.Zero(t, logout.count())
}

func TestExpiryTerminatesExactlyOnce(t *testing.T) {
	cache := NewTokenCache()
	logout := &logoutRecorder{}
	nav := &navRecorder{}
	cancel := startIdle(t, cache, logout, nav, 30*time.Millisecond)
	defer cancel()

	cache.Set("tok", time.Now())

	require.Eventually(t, func() bool { return nav.count() == 1 }, time.Second, 5*time.Millisecond)

	_, present := cache.Get()
	assert.False(t, present, "token must be cleared on idle expiry")
	assert.Equal(t, 1, logout.count())
	assert.Equal(t, []string{"/"}, nav.targets)

	// No second navigation for the same idle period.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, nav.count())
}

func TestActivityResetsDeadline(t *testing.T) {
	cache := NewTokenCache()
	logout := &logoutRecorder{}
	nav := &navRecorder{}

	timer := NewIdleTimer(cache, logout.logout, nav, 80*time.Millisecond, slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = timer.Run(ctx) }()

	cache.Set("tok", time.Now())

	// Keep touching well inside the window; the deadline must keep moving.
	for i := 0; i < 6; i++ {
		time.Sleep(30 * time.Millisecond)
		timer.Touch()
	}
	assert.Zero(t, nav.count(), "activity before the deadline must suppress the logout")

	// Stop touching; now it should fire.
	require.Eventually(t, func() bool { return nav.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestLogoutFailureStillTerminatesLocally(t *testing.T) {
	cache := NewTokenCache()
	logout := &logoutRecorder{err: errors.New("network down")}
	nav := &navRecorder{}
	cancel := startIdle(t, cache, logout, nav, 30*time.Millisecond)
	defer cancel()

	cache.Set("tok", time.Now())

	require.Eventually(t, func() bool { return nav.count() == 1 }, time.Second, 5*time.Millisecond)
	_, present := cache.Get()
	assert.False(t, present)
}

func TestClearDisarmsPendingDeadline(t *testing.T) {
	cache := NewTokenCache()
	logout := &logoutRecorder{}
	nav := &navRecorder{}
	cancel := startIdle(t, cache, logout, nav, 50*time.Millisecond)
	defer cancel()

	cache.Set("tok", time.Now())
	time.Sleep(10 * time.Millisecond)
	cache.Clear()

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, nav.count(), "explicit clear must disarm the idle timer")
	assert.Zero(t, logout.count())
}

func TestReArmsForNewIdlePeriod(t *testing.T) {
	cache := NewTokenCache()
	logout := &logoutRecorder{}
	nav := &navRecorder{}
	cancel := startIdle(t, cache, logout, nav, 30*time.Millisecond)
	defer cancel()

	cache.Set("tok-1", time.Now())
	require.Eventually(t, func() bool { return nav.count() == 1 }, time.Second, 5*time.Millisecond)

	// A fresh token starts a fresh idle period with its own single expiry.
	cache.Set("tok-2", time.Now())
	require.Eventually(t, func() bool { return nav.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestTouchOnDisarmedTimerIsNoop(t *testing.T) {
	cache := NewTokenCache()
	logout := &logoutRecorder{}
	nav := &navRecorder{}

	timer := NewIdleTimer(cache, logout.logout, nav, 30*time.Millisecond, slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = timer.Run(ctx) }()

	timer.Touch()
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, nav.count())
}
