package events

import (
	"context"

	"github.com/dentiq/dentiq-backend/internal/appointment/repository"
	"github.com/dentiq/dentiq-backend/pkg/logger"
	"github.com/dentiq/dentiq-backend/pkg/messaging"
)

// AppointmentEventPublisher publishes appointment-related events
type AppointmentEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewAppointmentEventPublisher creates a new appointment event publisher
func NewAppointmentEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AppointmentEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAppointmentEvents, "dentiq", log)
	if err != nil {
		return nil, err
	}

	return &AppointmentEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishBooked publishes an appointment booked event
func (p *AppointmentEventPublisher) PublishBooked(ctx context.Context, appt *repository.Appointment) {
	if p == nil {
		return
	}

	treatment := ""
	if appt.Treatment != nil {
		treatment = *appt.Treatment
	}

	data := messaging.AppointmentBookedEvent{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DentistID:     appt.DentistID,
		StartsAt:      appt.StartsAt,
		EndsAt:        appt.EndsAt,
		Treatment:     treatment,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAppointmentBooked, data); err != nil {
		p.logger.Error().Err(err).Str("appointment_id", appt.ID).Msg("failed to publish appointment booked event")
	}
}

// PublishStatusChanged publishes an appointment status transition event
func (p *AppointmentEventPublisher) PublishStatusChanged(ctx context.Context, appointmentID, oldStatus, newStatus, changedBy string) {
	if p == nil {
		return
	}

	eventType := messaging.EventAppointmentUpdated
	switch newStatus {
	case "cancelled":
		eventType = messaging.EventAppointmentCancelled
	case "completed":
		eventType = messaging.EventAppointmentCompleted
	}

	data := messaging.AppointmentStatusEvent{
		AppointmentID: appointmentID,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		ChangedBy:     changedBy,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("failed to publish appointment status event")
	}
}

// PublishRescheduled publishes an appointment updated event after a reschedule
func (p *AppointmentEventPublisher) PublishRescheduled(ctx context.Context, appt *repository.Appointment) {
	if p == nil {
		return
	}

	data := messaging.AppointmentBookedEvent{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DentistID:     appt.DentistID,
		StartsAt:      appt.StartsAt,
		EndsAt:        appt.EndsAt,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAppointmentUpdated, data); err != nil {
		p.logger.Error().Err(err).Str("appointment_id", appt.ID).Msg("failed to publish appointment updated event")
	}
}
