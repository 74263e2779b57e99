package service

import (
	"context"
	"time"

	"github.com/dentiq/dentiq-backend/internal/appointment/events"
	"github.com/dentiq/dentiq-backend/internal/appointment/repository"
	"github.com/dentiq/dentiq-backend/pkg/actor"
	"github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// validTransitions maps an appointment status to the statuses it may move to.
var validTransitions = map[string][]string{
	"scheduled": {"confirmed", "completed", "cancelled", "no_show"},
	"confirmed": {"completed", "cancelled", "no_show"},
	"completed": {},
	"cancelled": {},
	"no_show":   {},
}

// AppointmentService handles appointment booking and lifecycle
type AppointmentService struct {
	repo      *repository.AppointmentRepository
	publisher *events.AppointmentEventPublisher
	logger    *logger.Logger
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(
	repo *repository.AppointmentRepository,
	publisher *events.AppointmentEventPublisher,
	log *logger.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

// BookAppointmentInput is the payload for booking an appointment
type BookAppointmentInput struct {
	PatientID string    `json:"patient_id" validate:"required,uuid"`
	DentistID string    `json:"dentist_id" validate:"required,uuid"`
	StartsAt  time.Time `json:"starts_at" validate:"required"`
	EndsAt    time.Time `json:"ends_at" validate:"required"`
	Treatment *string   `json:"treatment,omitempty" validate:"omitempty,max=255"`
	Notes     *string   `json:"notes,omitempty"`
}

// Book books a new appointment. Double-booking a dentist is rejected.
func (s *AppointmentService) Book(ctx context.Context, input BookAppointmentInput) (*repository.Appointment, error) {
	if !input.EndsAt.After(input.StartsAt) {
		return nil, errors.BadRequest("appointment must end after it starts")
	}

	conflict, err := s.repo.CheckForConflicts(ctx, input.DentistID, input.StartsAt, input.EndsAt, nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, errors.Conflict("dentist already has an appointment in this time window")
	}

	appt := &repository.Appointment{
		PatientID: input.PatientID,
		DentistID: input.DentistID,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
		Treatment: input.Treatment,
		Notes:     input.Notes,
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.publisher.PublishBooked(ctx, appt)

	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("patient_id", appt.PatientID).
		Str("dentist_id", appt.DentistID).
		Time("starts_at", appt.StartsAt).
		Msg("appointment booked")

	return appt, nil
}

// GetByID gets an appointment by ID
func (s *AppointmentService) GetByID(ctx context.Context, id string) (*repository.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists appointments with filters
func (s *AppointmentService) List(ctx context.Context, params repository.AppointmentListParams) ([]*repository.Appointment, int64, error) {
	return s.repo.List(ctx, params)
}

// Reschedule moves an appointment to a new time window. Only live
// appointments can be rescheduled.
func (s *AppointmentService) Reschedule(ctx context.Context, id string, startsAt, endsAt time.Time) (*repository.Appointment, error) {
	if !endsAt.After(startsAt) {
		return nil, errors.BadRequest("appointment must end after it starts")
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != "scheduled" && appt.Status != "confirmed" {
		return nil, errors.Conflict("only scheduled or confirmed appointments can be rescheduled")
	}

	conflict, err := s.repo.CheckForConflicts(ctx, appt.DentistID, startsAt, endsAt, &id)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, errors.Conflict("dentist already has an appointment in this time window")
	}

	appt.StartsAt = startsAt
	appt.EndsAt = endsAt

	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.publisher.PublishRescheduled(ctx, appt)

	s.logger.Info().
		Str("appointment_id", appt.ID).
		Time("starts_at", appt.StartsAt).
		Time("ends_at", appt.EndsAt).
		Msg("appointment rescheduled")

	return appt, nil
}

// UpdateStatus transitions an appointment to a new status. Completed,
// cancelled and no-show are terminal.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id, status string) (*repository.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(appt.Status, status) {
		return nil, errors.Conflict("cannot change appointment from " + appt.Status + " to " + status)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	oldStatus := appt.Status
	appt.Status = status

	act := actor.FromContext(ctx)
	if act == nil {
		act = actor.SystemActor()
	}
	s.publisher.PublishStatusChanged(ctx, appt.ID, oldStatus, status, act.ID)

	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("old_status", oldStatus).
		Str("new_status", status).
		Msg("appointment status changed")

	return appt, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
