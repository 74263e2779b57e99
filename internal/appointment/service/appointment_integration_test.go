package service_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentiq/dentiq-backend/internal/appointment/repository"
	"github.com/dentiq/dentiq-backend/internal/appointment/service"
	apperrors "github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	suite.MustMigrate(ctx, testutil.AppointmentMigrations())
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func newTestService() *service.AppointmentService {
	return service.NewAppointmentService(
		repository.NewAppointmentRepository(suite.DB),
		nil, // no event publisher in tests
		suite.Logger,
	)
}

func slot(hour int) (time.Time, time.Time) {
	day := time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	start := day.Add(time.Duration(hour) * time.Hour)
	return start, start.Add(time.Hour)
}

func TestBookAppointment(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	dentist := uuid.New().String()
	start, end := slot(9)

	appt, err := svc.Book(ctx, service.BookAppointmentInput{
		PatientID: uuid.New().String(),
		DentistID: dentist,
		StartsAt:  start,
		EndsAt:    end,
		Treatment: testutil.PtrString("cleaning"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, "scheduled", appt.Status)

	// Overlapping slot for the same dentist is rejected.
	_, err = svc.Book(ctx, service.BookAppointmentInput{
		PatientID: uuid.New().String(),
		DentistID: dentist,
		StartsAt:  start.Add(30 * time.Minute),
		EndsAt:    end.Add(30 * time.Minute),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	// Another dentist can take the same slot.
	_, err = svc.Book(ctx, service.BookAppointmentInput{
		PatientID: uuid.New().String(),
		DentistID: uuid.New().String(),
		StartsAt:  start,
		EndsAt:    end,
	})
	require.NoError(t, err)
}

func TestBookAppointment_CancelledSlotIsFree(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	dentist := uuid.New().String()
	start, end := slot(11)

	appt, err := svc.Book(ctx, service.BookAppointmentInput{
		PatientID: uuid.New().String(),
		DentistID: dentist,
		StartsAt:  start,
		EndsAt:    end,
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, appt.ID, "cancelled")
	require.NoError(t, err)

	// The cancelled appointment no longer blocks the slot.
	_, err = svc.Book(ctx, service.BookAppointmentInput{
		PatientID: uuid.New().String(),
		DentistID: dentist,
		StartsAt:  start,
		EndsAt:    end,
	})
	require.NoError(t, err)
}

func TestAppointmentStatusTransitions(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	start, end := slot(14)
	appt, err := svc.Book(ctx, service.BookAppointmentInput{
		PatientID: uuid.New().String(),
		DentistID: uuid.New().String(),
		StartsAt:  start,
		EndsAt:    end,
	})
	require.NoError(t, err)

	confirmed, err := svc.UpdateStatus(ctx, appt.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)

	completed, err := svc.UpdateStatus(ctx, appt.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.Status)

	// Completed is terminal.
	_, err = svc.UpdateStatus(ctx, appt.ID, "cancelled")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestRescheduleAppointment(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newTestService()

	dentist := uuid.New().String()
	start, end := slot(15)

	appt, err := svc.Book(ctx, service.BookAppointmentInput{
		PatientID: uuid.New().String(),
		DentistID: dentist,
		StartsAt:  start,
		EndsAt:    end,
	})
	require.NoError(t, err)

	// Shifting within the original window must not conflict with itself.
	moved, err := svc.Reschedule(ctx, appt.ID, start.Add(30*time.Minute), end.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, start.Add(30*time.Minute), moved.StartsAt.UTC())

	// A second appointment cannot be moved onto the first.
	other, err := svc.Book(ctx, service.BookAppointmentInput{
		PatientID: uuid.New().String(),
		DentistID: dentist,
		StartsAt:  end.Add(time.Hour),
		EndsAt:    end.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, other.ID, moved.StartsAt, moved.EndsAt)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	// Cancelled appointments cannot be rescheduled.
	_, err = svc.UpdateStatus(ctx, other.ID, "cancelled")
	require.NoError(t, err)
	_, err = svc.Reschedule(ctx, other.ID, start.AddDate(0, 0, 1), end.AddDate(0, 0, 1))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}
