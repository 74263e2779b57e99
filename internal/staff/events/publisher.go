package events

import (
	"context"

	"github.com/dentiq/dentiq-backend/internal/staff/repository"
	"github.com/dentiq/dentiq-backend/pkg/logger"
	"github.com/dentiq/dentiq-backend/pkg/messaging"
)

// StaffEventPublisher publishes staff-related events
type StaffEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewStaffEventPublisher creates a new staff event publisher
func NewStaffEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StaffEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStaffEvents, "dentiq", log)
	if err != nil {
		return nil, err
	}

	return &StaffEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishEmployeeCreated publishes an employee created event
func (p *StaffEventPublisher) PublishEmployeeCreated(ctx context.Context, emp *repository.Employee) {
	if p == nil {
		return
	}

	data := messaging.EmployeeCreatedEvent{
		EmployeeID: emp.ID,
		UserID:     emp.UserID,
		Name:       emp.FullName(),
		Position:   emp.Position,
	}

	if err := p.publisher.Publish(ctx, messaging.EventEmployeeCreated, data); err != nil {
		p.logger.Error().Err(err).Str("employee_id", emp.ID).Msg("failed to publish employee created event")
	}
}

// PublishEmployeeUpdated publishes an employee updated event
func (p *StaffEventPublisher) PublishEmployeeUpdated(ctx context.Context, emp *repository.Employee) {
	if p == nil {
		return
	}

	data := messaging.EmployeeUpdatedEvent{
		EmployeeID: emp.ID,
		Fields: map[string]any{
			"name":     emp.FullName(),
			"position": emp.Position,
			"status":   emp.Status,
		},
	}

	if err := p.publisher.Publish(ctx, messaging.EventEmployeeUpdated, data); err != nil {
		p.logger.Error().Err(err).Str("employee_id", emp.ID).Msg("failed to publish employee updated event")
	}
}

// PublishEmployeeDeleted publishes an employee deleted event
func (p *StaffEventPublisher) PublishEmployeeDeleted(ctx context.Context, employeeID string) {
	if p == nil {
		return
	}

	data := messaging.EmployeeDeletedEvent{
		EmployeeID: employeeID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventEmployeeDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("employee_id", employeeID).Msg("failed to publish employee deleted event")
	}
}

// PublishShiftAssigned publishes a shift assigned event
func (p *StaffEventPublisher) PublishShiftAssigned(ctx context.Context, shift *repository.ShiftAssignment) {
	if p == nil {
		return
	}

	data := messaging.ShiftAssignedEvent{
		AssignmentID: shift.ID,
		EmployeeID:   shift.EmployeeID,
		ShiftDate:    shift.ShiftDate,
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
	}

	if err := p.publisher.Publish(ctx, messaging.EventShiftAssigned, data); err != nil {
		p.logger.Error().Err(err).Str("shift_id", shift.ID).Msg("failed to publish shift assigned event")
	}
}

// PublishShiftUpdated publishes a shift updated event
func (p *StaffEventPublisher) PublishShiftUpdated(ctx context.Context, shift *repository.ShiftAssignment) {
	if p == nil {
		return
	}

	data := messaging.ShiftAssignedEvent{
		AssignmentID: shift.ID,
		EmployeeID:   shift.EmployeeID,
		ShiftDate:    shift.ShiftDate,
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
	}

	if err := p.publisher.Publish(ctx, messaging.EventShiftUpdated, data); err != nil {
		p.logger.Error().Err(err).Str("shift_id", shift.ID).Msg("failed to publish shift updated event")
	}
}

// PublishShiftDeleted publishes a shift deleted event
func (p *StaffEventPublisher) PublishShiftDeleted(ctx context.Context, shiftID, employeeID string) {
	if p == nil {
		return
	}

	data := map[string]string{
		"assignment_id": shiftID,
		"employee_id":   employeeID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventShiftDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("shift_id", shiftID).Msg("failed to publish shift deleted event")
	}
}

// PublishLeaveRequested publishes a leave requested event
func (p *StaffEventPublisher) PublishLeaveRequested(ctx context.Context, req *repository.LeaveRequest) {
	if p == nil {
		return
	}

	data := messaging.LeaveRequestedEvent{
		LeaveID:    req.ID,
		EmployeeID: req.EmployeeID,
		LeaveType:  req.LeaveType,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Days:       req.Days,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLeaveRequested, data); err != nil {
		p.logger.Error().Err(err).Str("leave_id", req.ID).Msg("failed to publish leave requested event")
	}
}

// PublishLeaveReviewed publishes a leave approved or rejected event
func (p *StaffEventPublisher) PublishLeaveReviewed(ctx context.Context, req *repository.LeaveRequest, reviewerID string) {
	if p == nil {
		return
	}

	eventType := messaging.EventLeaveApproved
	if req.Status == "rejected" {
		eventType = messaging.EventLeaveRejected
	}

	reason := ""
	if req.ReviewNote != nil {
		reason = *req.ReviewNote
	}

	data := messaging.LeaveReviewedEvent{
		LeaveID:    req.ID,
		EmployeeID: req.EmployeeID,
		Status:     req.Status,
		ReviewerID: reviewerID,
		Reason:     reason,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("leave_id", req.ID).Msg("failed to publish leave reviewed event")
	}
}

// PublishLeaveCancelled publishes a leave cancelled event
func (p *StaffEventPublisher) PublishLeaveCancelled(ctx context.Context, req *repository.LeaveRequest) {
	if p == nil {
		return
	}

	data := map[string]string{
		"leave_id":    req.ID,
		"employee_id": req.EmployeeID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLeaveCancelled, data); err != nil {
		p.logger.Error().Err(err).Str("leave_id", req.ID).Msg("failed to publish leave cancelled event")
	}
}
