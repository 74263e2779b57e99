package service

import (
	"context"
	"time"

	"github.com/dentiq/dentiq-backend/internal/staff/events"
	"github.com/dentiq/dentiq-backend/internal/staff/repository"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// StaffService handles employee business logic
type StaffService struct {
	employeeRepo *repository.EmployeeRepository
	leaveRepo    *repository.LeaveRepository
	publisher    *events.StaffEventPublisher
	logger       *logger.Logger
}

// NewStaffService creates a new staff service
func NewStaffService(
	employeeRepo *repository.EmployeeRepository,
	leaveRepo *repository.LeaveRepository,
	publisher *events.StaffEventPublisher,
	log *logger.Logger,
) *StaffService {
	return &StaffService{
		employeeRepo: employeeRepo,
		leaveRepo:    leaveRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// Create creates a new employee. The employee number is allocated server-side
// when the request does not carry one.
func (s *StaffService) Create(ctx context.Context, emp *repository.Employee) error {
	if emp.EmployeeNumber == "" {
		number, err := s.employeeRepo.NextEmployeeNumber(ctx)
		if err != nil {
			return err
		}
		emp.EmployeeNumber = number
	}

	if err := s.employeeRepo.Create(ctx, emp); err != nil {
		return err
	}

	// Seed the current year's leave balance so requests can be checked
	// against it right away.
	balance := &repository.LeaveBalance{
		EmployeeID: emp.ID,
		Year:       time.Now().UTC().Year(),
		TotalDays:  25,
	}
	if err := s.leaveRepo.UpsertBalance(ctx, balance); err != nil {
		s.logger.Error().Err(err).Str("employee_id", emp.ID).Msg("failed to seed leave balance")
	}

	s.publisher.PublishEmployeeCreated(ctx, emp)

	s.logger.Info().
		Str("employee_id", emp.ID).
		Str("employee_number", emp.EmployeeNumber).
		Str("position", emp.Position).
		Msg("employee created")

	return nil
}

// GetByID gets an employee by ID
func (s *StaffService) GetByID(ctx context.Context, id string) (*repository.Employee, error) {
	return s.employeeRepo.GetByID(ctx, id)
}

// GetByUserID gets the employee linked to a user account
func (s *StaffService) GetByUserID(ctx context.Context, userID string) (*repository.Employee, error) {
	return s.employeeRepo.GetByUserID(ctx, userID)
}

// List lists employees with optional status filter and pagination
func (s *StaffService) List(ctx context.Context, status string, page, perPage int) ([]*repository.Employee, int64, error) {
	return s.employeeRepo.List(ctx, status, page, perPage)
}

// Update updates an employee
func (s *StaffService) Update(ctx context.Context, emp *repository.Employee) error {
	if err := s.employeeRepo.Update(ctx, emp); err != nil {
		return err
	}

	s.publisher.PublishEmployeeUpdated(ctx, emp)

	return nil
}

// UpdateStatus sets an employee's status
func (s *StaffService) UpdateStatus(ctx context.Context, id, status string) error {
	if err := s.employeeRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.publisher.PublishEmployeeUpdated(ctx, emp)

	s.logger.Info().
		Str("employee_id", id).
		Str("status", status).
		Msg("employee status changed")

	return nil
}

// Delete deletes an employee
func (s *StaffService) Delete(ctx context.Context, id string) error {
	if err := s.employeeRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishEmployeeDeleted(ctx, id)

	s.logger.Info().Str("employee_id", id).Msg("employee deleted")

	return nil
}
