// Package session owns the client-side session lifecycle: the cached
// anti-forgery token, the keepalive refresher, and the idle-timeout watchdog.
package session

import (
	"sync"
	"time"
)

// Token is the rotating anti-forgery secret bound to the current session.
type Token struct {
	Value    string
	IssuedAt time.Time
}

// TokenCache is the single source of truth for the cached anti-forgery
// token. The keepalive loop, the idle timer, and outgoing mutating requests
// all read through it; writes are atomic with respect to concurrent reads.
type TokenCache struct {
	mu       sync.RWMutex
	tok      Token
	present  bool
	watchers []chan struct{}
}

// NewTokenCache constructs an empty cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Get returns the cached token, if any.
func (c *TokenCache) Get() (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tok, c.present
}

// Set replaces the cached token and notifies watchers.
func (c *TokenCache) Set(value string, issuedAt time.Time) {
	c.mu.Lock()
	c.tok = Token{Value: value, IssuedAt: issuedAt}
	c.present = true
	c.notifyLocked()
	c.mu.Unlock()
}

// Clear drops the cached token and notifies watchers. Absence of a token
// means "no active session" to everything downstream.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	c.tok = Token{}
	c.present = false
	c.notifyLocked()
	c.mu.Unlock()
}

// Watch returns a channel that receives a signal whenever the token changes.
// The channel is buffered and coalescing: rapid changes collapse into one
// pending signal, so consumers re-read the cache rather than counting events.
func (c *TokenCache) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.watchers = append(c.watchers, ch)
	c.mu.Unlock()
	return ch
}

func (c *TokenCache) notifyLocked() {
	for _, ch := range c.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
