package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetgate/internal/onboarding"
	"fleetgate/pkg/domain"
)

func testOrgID(t *testing.T) domain.OrgID {
	t.Helper()
	id, err := domain.ParseOrgID("550e8400-e29b-41d4-a716-446655440010")
	require.NoError(t, err)
	return id
}

func TestPostgresGetOnboardingState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orgID := testOrgID(t)
	mock.ExpectQuery("SELECT onboarding_status FROM organizations").
		WithArgs(orgID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"onboarding_status"}).AddRow("OPERATIONAL"))

	status, err := NewPostgres(db).GetOnboardingState(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusOperational, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNoRowIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orgID := testOrgID(t)
	mock.ExpectQuery("SELECT onboarding_status FROM organizations").
		WithArgs(orgID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"onboarding_status"}))

	_, err = NewPostgres(db).GetOnboardingState(context.Background(), orgID)
	assert.ErrorIs(t, err, onboarding.ErrNotFound)
}

func TestPostgresUnknownStatusIsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orgID := testOrgID(t)
	mock.ExpectQuery("SELECT onboarding_status FROM organizations").
		WithArgs(orgID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"onboarding_status"}).AddRow("HALF_DONE"))

	_, err = NewPostgres(db).GetOnboardingState(context.Background(), orgID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, onboarding.ErrNotFound)
}

func TestPostgresInfrastructureError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orgID := testOrgID(t)
	mock.ExpectQuery("SELECT onboarding_status FROM organizations").
		WithArgs(orgID.String()).
		WillReturnError(errors.New("connection reset"))

	_, err = NewPostgres(db).GetOnboardingState(context.Background(), orgID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, onboarding.ErrNotFound)
}
