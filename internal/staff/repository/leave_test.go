package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentiq/dentiq-backend/internal/staff/repository"
	apperrors "github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/testutil"
)

func TestLeaveReviewOnlyTouchesPending(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()
	repo := repository.NewLeaveRepository(s.MockDB.DB)

	id := "6b1f0a2c-3d4e-4f5a-8b9c-0d1e2f3a4b5c"
	reviewer := "9a1e9c70-0f6a-4a54-9f2e-6f0a6a2b7c11"

	t.Run("pending request approved", func(t *testing.T) {
		s.MockDB.ExpectExec("WHERE id = $1 AND status = 'pending'").
			WithArgs(id, "approved", reviewer, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Review(context.Background(), id, "approved", reviewer, nil))
	})

	t.Run("already reviewed", func(t *testing.T) {
		s.MockDB.ExpectExec("WHERE id = $1 AND status = 'pending'").
			WithArgs(id, "rejected", reviewer, nil).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Review(context.Background(), id, "rejected", reviewer, nil)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}

func TestLeaveBalanceUpsert(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()
	repo := repository.NewLeaveRepository(s.MockDB.DB)

	employeeID := "6b1f0a2c-3d4e-4f5a-8b9c-0d1e2f3a4b5c"

	s.MockDB.ExpectExec("ON CONFLICT (employee_id, year)").
		WithArgs(employeeID, 2026, 25, 5, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertBalance(context.Background(), &repository.LeaveBalance{
		EmployeeID:  employeeID,
		Year:        2026,
		TotalDays:   25,
		UsedDays:    5,
		PendingDays: 3,
	})
	require.NoError(t, err)
}
