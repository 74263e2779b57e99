package service

import (
	"context"
	"time"

	"github.com/dentiq/dentiq-backend/internal/staff/events"
	"github.com/dentiq/dentiq-backend/internal/staff/repository"
	"github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// ShiftService handles shift scheduling
type ShiftService struct {
	shiftRepo    *repository.ShiftRepository
	employeeRepo *repository.EmployeeRepository
	publisher    *events.StaffEventPublisher
	logger       *logger.Logger
}

// NewShiftService creates a new shift service
func NewShiftService(
	shiftRepo *repository.ShiftRepository,
	employeeRepo *repository.EmployeeRepository,
	publisher *events.StaffEventPublisher,
	log *logger.Logger,
) *ShiftService {
	return &ShiftService{
		shiftRepo:    shiftRepo,
		employeeRepo: employeeRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// AssignShiftInput is the payload for assigning a shift
type AssignShiftInput struct {
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	ShiftDate  time.Time `json:"shift_date" validate:"required"`
	StartTime  string    `json:"start_time" validate:"required,len=5"`
	EndTime    string    `json:"end_time" validate:"required,len=5"`
	Notes      *string   `json:"notes,omitempty"`
}

// Assign assigns a shift to an employee. Overlapping shifts on the same day
// are rejected.
func (s *ShiftService) Assign(ctx context.Context, input AssignShiftInput) (*repository.ShiftAssignment, error) {
	if input.EndTime <= input.StartTime {
		return nil, errors.BadRequest("end time must be after start time")
	}

	if _, err := s.employeeRepo.GetByID(ctx, input.EmployeeID); err != nil {
		return nil, err
	}

	conflict, err := s.shiftRepo.CheckForConflicts(ctx, input.EmployeeID, input.ShiftDate, input.StartTime, input.EndTime, nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, errors.Conflict("employee already has a shift in this time window")
	}

	shift := &repository.ShiftAssignment{
		EmployeeID: input.EmployeeID,
		ShiftDate:  input.ShiftDate,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Notes:      input.Notes,
	}

	if err := s.shiftRepo.Create(ctx, shift); err != nil {
		return nil, err
	}

	s.publisher.PublishShiftAssigned(ctx, shift)

	s.logger.Info().
		Str("shift_id", shift.ID).
		Str("employee_id", shift.EmployeeID).
		Time("shift_date", shift.ShiftDate).
		Str("start_time", shift.StartTime).
		Str("end_time", shift.EndTime).
		Msg("shift assigned")

	return shift, nil
}

// GetByID gets a shift assignment by ID
func (s *ShiftService) GetByID(ctx context.Context, id string) (*repository.ShiftAssignment, error) {
	return s.shiftRepo.GetByID(ctx, id)
}

// List lists shift assignments with filters
func (s *ShiftService) List(ctx context.Context, params repository.ShiftListParams) ([]*repository.ShiftAssignment, int64, error) {
	return s.shiftRepo.List(ctx, params)
}

// Update reschedules a shift. The shift itself is excluded from the conflict
// check.
func (s *ShiftService) Update(ctx context.Context, id string, input AssignShiftInput) (*repository.ShiftAssignment, error) {
	if input.EndTime <= input.StartTime {
		return nil, errors.BadRequest("end time must be after start time")
	}

	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	conflict, err := s.shiftRepo.CheckForConflicts(ctx, shift.EmployeeID, input.ShiftDate, input.StartTime, input.EndTime, &id)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, errors.Conflict("employee already has a shift in this time window")
	}

	shift.ShiftDate = input.ShiftDate
	shift.StartTime = input.StartTime
	shift.EndTime = input.EndTime
	shift.Notes = input.Notes

	if err := s.shiftRepo.Update(ctx, shift); err != nil {
		return nil, err
	}

	s.publisher.PublishShiftUpdated(ctx, shift)

	return shift, nil
}

// Delete removes a shift assignment
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.shiftRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishShiftDeleted(ctx, id, shift.EmployeeID)

	return nil
}
