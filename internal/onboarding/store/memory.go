package store

import (
	"context"
	"fmt"
	"sync"

	"fleetgate/internal/onboarding"
	"fleetgate/pkg/domain"
)

// MemoryStore keeps onboarding state in memory for tests and development.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[domain.OrgID]onboarding.Status
}

// NewMemory constructs an empty in-memory onboarding store.
func NewMemory() *MemoryStore {
	return &MemoryStore{states: make(map[domain.OrgID]onboarding.Status)}
}

func (s *MemoryStore) GetOnboardingState(_ context.Context, orgID domain.OrgID) (onboarding.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if status, ok := s.states[orgID]; ok {
		return status, nil
	}
	return "", fmt.Errorf("org %s: %w", orgID, onboarding.ErrNotFound)
}

// Set records onboarding state; used by tests and dev seeding.
func (s *MemoryStore) Set(orgID domain.OrgID, status onboarding.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[orgID] = status
}
