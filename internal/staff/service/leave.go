package service

import (
	"context"
	"time"

	"github.com/dentiq/dentiq-backend/internal/staff/events"
	"github.com/dentiq/dentiq-backend/internal/staff/repository"
	"github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

const defaultAnnualLeaveDays = 25

// LeaveService handles leave requests and balances
type LeaveService struct {
	leaveRepo    *repository.LeaveRepository
	employeeRepo *repository.EmployeeRepository
	publisher    *events.StaffEventPublisher
	logger       *logger.Logger
}

// NewLeaveService creates a new leave service
func NewLeaveService(
	leaveRepo *repository.LeaveRepository,
	employeeRepo *repository.EmployeeRepository,
	publisher *events.StaffEventPublisher,
	log *logger.Logger,
) *LeaveService {
	return &LeaveService{
		leaveRepo:    leaveRepo,
		employeeRepo: employeeRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// RequestLeaveInput is the payload for submitting a leave request
type RequestLeaveInput struct {
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	LeaveType  string    `json:"leave_type" validate:"required,oneof=vacation sick training unpaid other"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
	Reason     *string   `json:"reason,omitempty"`
}

// Request submits a new leave request. The working-day count is computed
// server-side and vacation requests are checked against the year's balance.
func (s *LeaveService) Request(ctx context.Context, input RequestLeaveInput) (*repository.LeaveRequest, error) {
	if input.EndDate.Before(input.StartDate) {
		return nil, errors.BadRequest("end date must not be before start date")
	}

	if _, err := s.employeeRepo.GetByID(ctx, input.EmployeeID); err != nil {
		return nil, err
	}

	days := calculateWorkingDays(input.StartDate, input.EndDate)
	if days == 0 {
		return nil, errors.BadRequest("requested range contains no working days")
	}

	overlapping, err := s.leaveRepo.ListOverlapping(ctx, input.EmployeeID, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, errors.Conflict("an overlapping leave request already exists")
	}

	if input.LeaveType == "vacation" {
		balance, err := s.getOrDefaultBalance(ctx, input.EmployeeID, input.StartDate.Year())
		if err != nil {
			return nil, err
		}
		if days > balance.Available() {
			return nil, errors.Conflict("not enough vacation days available")
		}
	}

	req := &repository.LeaveRequest{
		EmployeeID: input.EmployeeID,
		LeaveType:  input.LeaveType,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Days:       days,
		Reason:     input.Reason,
	}

	if err := s.leaveRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	if input.LeaveType == "vacation" {
		if err := s.RecalculateBalance(ctx, input.EmployeeID, input.StartDate.Year()); err != nil {
			s.logger.Error().Err(err).Str("employee_id", input.EmployeeID).Msg("failed to update leave balance")
		}
	}

	s.publisher.PublishLeaveRequested(ctx, req)

	s.logger.Info().
		Str("leave_id", req.ID).
		Str("employee_id", req.EmployeeID).
		Str("leave_type", req.LeaveType).
		Int("days", req.Days).
		Msg("leave requested")

	return req, nil
}

// GetByID gets a leave request by ID
func (s *LeaveService) GetByID(ctx context.Context, id string) (*repository.LeaveRequest, error) {
	return s.leaveRepo.GetByID(ctx, id)
}

// List lists leave requests with filters
func (s *LeaveService) List(ctx context.Context, params repository.LeaveListParams) ([]*repository.LeaveRequest, int64, error) {
	return s.leaveRepo.List(ctx, params)
}

// Approve approves a pending leave request
func (s *LeaveService) Approve(ctx context.Context, id, reviewerID string, note *string) (*repository.LeaveRequest, error) {
	return s.review(ctx, id, "approved", reviewerID, note)
}

// Reject rejects a pending leave request
func (s *LeaveService) Reject(ctx context.Context, id, reviewerID string, note *string) (*repository.LeaveRequest, error) {
	return s.review(ctx, id, "rejected", reviewerID, note)
}

func (s *LeaveService) review(ctx context.Context, id, status, reviewerID string, note *string) (*repository.LeaveRequest, error) {
	req, err := s.leaveRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != "pending" {
		return nil, errors.Conflict("only pending requests can be reviewed")
	}

	if err := s.leaveRepo.Review(ctx, id, status, reviewerID, note); err != nil {
		return nil, err
	}

	req.Status = status
	req.ReviewerID = &reviewerID
	req.ReviewNote = note

	if req.LeaveType == "vacation" {
		if err := s.RecalculateBalance(ctx, req.EmployeeID, req.StartDate.Year()); err != nil {
			s.logger.Error().Err(err).Str("employee_id", req.EmployeeID).Msg("failed to update leave balance")
		}
	}

	s.publisher.PublishLeaveReviewed(ctx, req, reviewerID)

	s.logger.Info().
		Str("leave_id", req.ID).
		Str("employee_id", req.EmployeeID).
		Str("status", status).
		Str("reviewer_id", reviewerID).
		Msg("leave request reviewed")

	return req, nil
}

// Cancel cancels a pending leave request
func (s *LeaveService) Cancel(ctx context.Context, id string) (*repository.LeaveRequest, error) {
	req, err := s.leaveRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != "pending" {
		return nil, errors.Conflict("only pending requests can be cancelled")
	}

	if err := s.leaveRepo.Cancel(ctx, id); err != nil {
		return nil, err
	}

	req.Status = "cancelled"

	if req.LeaveType == "vacation" {
		if err := s.RecalculateBalance(ctx, req.EmployeeID, req.StartDate.Year()); err != nil {
			s.logger.Error().Err(err).Str("employee_id", req.EmployeeID).Msg("failed to update leave balance")
		}
	}

	s.publisher.PublishLeaveCancelled(ctx, req)

	s.logger.Info().
		Str("leave_id", req.ID).
		Str("employee_id", req.EmployeeID).
		Msg("leave request cancelled")

	return req, nil
}

// GetBalance returns the leave balance for an employee and year, falling back
// to the default entitlement when no row exists yet.
func (s *LeaveService) GetBalance(ctx context.Context, employeeID string, year int) (*repository.LeaveBalance, error) {
	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.getOrDefaultBalance(ctx, employeeID, year)
}

func (s *LeaveService) getOrDefaultBalance(ctx context.Context, employeeID string, year int) (*repository.LeaveBalance, error) {
	balance, err := s.leaveRepo.GetBalance(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = &repository.LeaveBalance{
			EmployeeID: employeeID,
			Year:       year,
			TotalDays:  defaultAnnualLeaveDays,
		}
	}
	return balance, nil
}

// RecalculateBalance rebuilds the used and pending counters for a year from
// the employee's vacation requests.
func (s *LeaveService) RecalculateBalance(ctx context.Context, employeeID string, year int) error {
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)

	requests, err := s.leaveRepo.ListOverlapping(ctx, employeeID, yearStart, yearEnd)
	if err != nil {
		return err
	}

	used := 0
	pending := 0
	for _, req := range requests {
		if req.LeaveType != "vacation" {
			continue
		}
		switch req.Status {
		case "approved":
			used += req.Days
		case "pending":
			pending += req.Days
		}
	}

	balance, err := s.getOrDefaultBalance(ctx, employeeID, year)
	if err != nil {
		return err
	}
	balance.UsedDays = used
	balance.PendingDays = pending

	return s.leaveRepo.UpsertBalance(ctx, balance)
}

// calculateWorkingDays counts the days in [start, end] that fall on Monday
// through Friday.
func calculateWorkingDays(start, end time.Time) int {
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}
