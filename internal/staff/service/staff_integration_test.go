package service_test

import (
	"context"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentiq/dentiq-backend/internal/staff/repository"
	"github.com/dentiq/dentiq-backend/internal/staff/service"
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
	suite.MustMigrate(ctx, testutil.StaffMigrations())
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func newStaffService() *service.StaffService {
	return service.NewStaffService(
		repository.NewEmployeeRepository(suite.DB),
		repository.NewLeaveRepository(suite.DB),
		nil, // no event publisher in tests
		suite.Logger,
	)
}

func newLeaveService() *service.LeaveService {
	return service.NewLeaveService(
		repository.NewLeaveRepository(suite.DB),
		repository.NewEmployeeRepository(suite.DB),
		nil,
		suite.Logger,
	)
}

func newShiftService() *service.ShiftService {
	return service.NewShiftService(
		repository.NewShiftRepository(suite.DB),
		repository.NewEmployeeRepository(suite.DB),
		nil,
		suite.Logger,
	)
}

func seedEmployee(t *testing.T, ctx context.Context) *repository.Employee {
	t.Helper()

	fx := suite.Fixtures.Employee()
	emp := &repository.Employee{
		ID:             fx.ID,
		EmployeeNumber: fx.EmployeeNumber,
		FirstName:      fx.FirstName,
		LastName:       fx.LastName,
		Email:          fx.Email,
		Position:       fx.Position,
		HireDate:       fx.HireDate,
		Status:         fx.Status,
	}
	require.NoError(t, repository.NewEmployeeRepository(suite.DB).Create(ctx, emp))

	return emp
}

// monday returns a Monday at least a week in the future, so leave ranges in
// tests are deterministic working-day counts.
func monday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func TestCreateEmployee(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newStaffService()

	fx := suite.Fixtures.Employee()
	emp := &repository.Employee{
		FirstName: fx.FirstName,
		LastName:  fx.LastName,
		Email:     fx.Email,
		Position:  "Dentist",
	}

	require.NoError(t, svc.Create(ctx, emp))
	assert.NotEmpty(t, emp.ID)
	assert.True(t, strings.HasPrefix(emp.EmployeeNumber, "EMP-"))
	assert.Equal(t, "active", emp.Status)

	// The current year's leave balance is seeded on creation.
	balance, err := newLeaveService().GetBalance(ctx, emp.ID, time.Now().UTC().Year())
	require.NoError(t, err)
	assert.Equal(t, 25, balance.TotalDays)
	assert.Equal(t, 0, balance.UsedDays)
}

func TestUpdateEmployeeStatus(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newStaffService()

	emp := seedEmployee(t, ctx)

	require.NoError(t, svc.UpdateStatus(ctx, emp.ID, "on_leave"))

	updated, err := svc.GetByID(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "on_leave", updated.Status)
}

func TestRequestLeave(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newLeaveService()

	emp := seedEmployee(t, ctx)
	start := monday()

	req, err := svc.Request(ctx, service.RequestLeaveInput{
		EmployeeID: emp.ID,
		LeaveType:  "vacation",
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 11), // Monday through Friday next week
	})
	require.NoError(t, err)

	assert.Equal(t, 10, req.Days)
	assert.Equal(t, "pending", req.Status)

	balance, err := svc.GetBalance(ctx, emp.ID, start.Year())
	require.NoError(t, err)
	assert.Equal(t, 10, balance.PendingDays)
	assert.Equal(t, 15, balance.Available())
}

func TestRequestLeave_Overlap(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newLeaveService()

	emp := seedEmployee(t, ctx)
	start := monday()

	_, err := svc.Request(ctx, service.RequestLeaveInput{
		EmployeeID: emp.ID,
		LeaveType:  "vacation",
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 4),
	})
	require.NoError(t, err)

	_, err = svc.Request(ctx, service.RequestLeaveInput{
		EmployeeID: emp.ID,
		LeaveType:  "sick",
		StartDate:  start.AddDate(0, 0, 2),
		EndDate:    start.AddDate(0, 0, 7),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestRequestLeave_ExceedsBalance(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newLeaveService()

	emp := seedEmployee(t, ctx)
	start := monday()

	// Six full weeks is 30 working days, over the default 25-day entitlement.
	_, err := svc.Request(ctx, service.RequestLeaveInput{
		EmployeeID: emp.ID,
		LeaveType:  "vacation",
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 39),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestApproveLeave(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newLeaveService()

	emp := seedEmployee(t, ctx)
	reviewer := seedEmployee(t, ctx)
	start := monday()

	req, err := svc.Request(ctx, service.RequestLeaveInput{
		EmployeeID: emp.ID,
		LeaveType:  "vacation",
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 4),
	})
	require.NoError(t, err)

	note := "enjoy"
	approved, err := svc.Approve(ctx, req.ID, reviewer.ID, &note)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.ReviewerID)
	assert.Equal(t, reviewer.ID, *approved.ReviewerID)

	balance, err := svc.GetBalance(ctx, emp.ID, start.Year())
	require.NoError(t, err)
	assert.Equal(t, 5, balance.UsedDays)
	assert.Equal(t, 0, balance.PendingDays)

	// A second review of the same request is rejected.
	_, err = svc.Reject(ctx, req.ID, reviewer.ID, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestRejectLeave(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newLeaveService()

	emp := seedEmployee(t, ctx)
	reviewer := seedEmployee(t, ctx)
	start := monday()

	req, err := svc.Request(ctx, service.RequestLeaveInput{
		EmployeeID: emp.ID,
		LeaveType:  "vacation",
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 4),
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, req.ID, reviewer.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)

	// Rejected days are released back to the balance.
	balance, err := svc.GetBalance(ctx, emp.ID, start.Year())
	require.NoError(t, err)
	assert.Equal(t, 0, balance.UsedDays)
	assert.Equal(t, 0, balance.PendingDays)
	assert.Equal(t, 25, balance.Available())
}

func TestCancelLeave(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newLeaveService()

	emp := seedEmployee(t, ctx)
	start := monday()

	req, err := svc.Request(ctx, service.RequestLeaveInput{
		EmployeeID: emp.ID,
		LeaveType:  "vacation",
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 4),
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)

	balance, err := svc.GetBalance(ctx, emp.ID, start.Year())
	require.NoError(t, err)
	assert.Equal(t, 0, balance.PendingDays)
}

func TestAssignShift(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newShiftService()

	emp := seedEmployee(t, ctx)
	day := monday()

	shift, err := svc.Assign(ctx, service.AssignShiftInput{
		EmployeeID: emp.ID,
		ShiftDate:  day,
		StartTime:  "08:00",
		EndTime:    "16:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, shift.ID)

	// An overlapping shift on the same day conflicts.
	_, err = svc.Assign(ctx, service.AssignShiftInput{
		EmployeeID: emp.ID,
		ShiftDate:  day,
		StartTime:  "12:00",
		EndTime:    "20:00",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	// A back-to-back shift does not.
	_, err = svc.Assign(ctx, service.AssignShiftInput{
		EmployeeID: emp.ID,
		ShiftDate:  day,
		StartTime:  "16:00",
		EndTime:    "20:00",
	})
	require.NoError(t, err)

	// Neither does the same window on another day.
	_, err = svc.Assign(ctx, service.AssignShiftInput{
		EmployeeID: emp.ID,
		ShiftDate:  day.AddDate(0, 0, 1),
		StartTime:  "08:00",
		EndTime:    "16:00",
	})
	require.NoError(t, err)
}

func TestRescheduleShift(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	svc := newShiftService()

	emp := seedEmployee(t, ctx)
	day := monday()

	shift, err := svc.Assign(ctx, service.AssignShiftInput{
		EmployeeID: emp.ID,
		ShiftDate:  day,
		StartTime:  "08:00",
		EndTime:    "12:00",
	})
	require.NoError(t, err)

	// Moving the shift within its own window must not conflict with itself.
	updated, err := svc.Update(ctx, shift.ID, service.AssignShiftInput{
		EmployeeID: emp.ID,
		ShiftDate:  day,
		StartTime:  "09:00",
		EndTime:    "13:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "09:00", updated.StartTime)
	assert.Equal(t, "13:00", updated.EndTime)

	require.NoError(t, svc.Delete(ctx, shift.ID))

	_, err = svc.GetByID(ctx, shift.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
