package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleetgate/internal/onboarding"
	"fleetgate/pkg/domain"
)

// PostgresStore reads onboarding state from the organizations table owned by
// the onboarding workflow. This subsystem never writes it.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a store over an existing connection pool.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetOnboardingState(ctx context.Context, orgID domain.OrgID) (onboarding.Status, error) {
	const query = `SELECT onboarding_status FROM organizations WHERE id = $1`

	var raw string
	err := s.db.QueryRowContext(ctx, query, orgID.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("org %s: %w", orgID, onboarding.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query onboarding status: %w", err)
	}

	status, err := onboarding.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("org %s: %w", orgID, err)
	}
	return status, nil
}
