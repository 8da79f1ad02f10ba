// Package guard implements the role-based route guard: a render gate that
// withholds protected UI until the current identity is known and permitted.
package guard

import (
	"sync"

	"fleetgate/internal/identity"
	"fleetgate/pkg/domain"
)

// State is the guard's rendering decision.
type State int

const (
	// StateLoading is the only initial state: identity resolution is pending
	// and neither protected content nor a denial may be shown.
	StateLoading State = iota
	// StateDenied is terminal: no identity, or role not in the allowed set.
	StateDenied
	// StateGranted is terminal: the role is permitted.
	StateGranted
)

func (s State) String() string {
	switch s {
	case StateDenied:
		return "denied"
	case StateGranted:
		return "granted"
	default:
		return "loading"
	}
}

// RouteGuard gates one protected region for one render cycle. Create a fresh
// guard per region; the first Resolve call decides its terminal state.
type RouteGuard struct {
	mu      sync.Mutex
	allowed map[domain.Role]struct{}
	state   State
	done    chan struct{}
}

// New builds a guard permitting the given roles.
func New(roles ...domain.Role) *RouteGuard {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return &RouteGuard{allowed: allowed, done: make(chan struct{})}
}

// Resolve feeds the completed identity resolution into the guard. A nil
// identity or a resolution error denies. Calls after the first are ignored:
// terminal states are sticky.
func (g *RouteGuard) Resolve(ident *identity.Identity, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateLoading {
		return
	}

	switch {
	case err != nil, ident == nil:
		g.state = StateDenied
	default:
		if _, ok := g.allowed[ident.Role]; ok {
			g.state = StateGranted
		} else {
			g.state = StateDenied
		}
	}
	close(g.done)
}

// State returns the current rendering decision.
func (g *RouteGuard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Done is closed once the guard leaves LOADING. Renderers wait on it instead
// of polling.
func (g *RouteGuard) Done() <-chan struct{} {
	return g.done
}
