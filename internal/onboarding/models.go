// Package onboarding exposes the per-organization setup completion state.
// The state is mutated by external onboarding workflows and only read here.
package onboarding

import (
	"context"
	"errors"

	"fleetgate/pkg/domain"
)

// Status is the organization's onboarding progress.
type Status string

const (
	StatusNotActivated Status = "NOT_ACTIVATED"
	StatusOperational  Status = "OPERATIONAL"
)

func (s Status) String() string { return string(s) }

// ParseStatus validates a status string from storage.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNotActivated, StatusOperational:
		return Status(s), nil
	default:
		return "", errors.New("unknown onboarding status: " + s)
	}
}

// ErrNotFound is returned when no onboarding record exists for the
// organization. Gates treat this the same as NOT_ACTIVATED.
var ErrNotFound = errors.New("onboarding state not found")

// Store reads onboarding state.
//
// Error contract: ErrNotFound when no record exists; wrapped infrastructure
// errors otherwise.
type Store interface {
	GetOnboardingState(ctx context.Context, orgID domain.OrgID) (Status, error)
}
