package events

import (
	"context"
	"time"

	"github.com/dentiq/dentiq-backend/internal/reports/repository"
	"github.com/dentiq/dentiq-backend/pkg/logger"
	"github.com/dentiq/dentiq-backend/pkg/messaging"
)

// ReportEventPublisher publishes report-related events
type ReportEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewReportEventPublisher creates a new report event publisher
func NewReportEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*ReportEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeReportEvents, "dentiq", log)
	if err != nil {
		return nil, err
	}

	return &ReportEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishCreated publishes a report created event
func (p *ReportEventPublisher) PublishCreated(ctx context.Context, report *repository.Report) {
	if p == nil {
		return
	}

	data := map[string]string{
		"report_id":   report.ID,
		"patient_id":  report.PatientID,
		"authored_by": report.AuthoredBy,
		"study_type":  report.StudyType,
	}

	if err := p.publisher.Publish(ctx, messaging.EventReportCreated, data); err != nil {
		p.logger.Error().Err(err).Str("report_id", report.ID).Msg("failed to publish report created event")
	}
}

// PublishFinalized publishes a report finalized event
func (p *ReportEventPublisher) PublishFinalized(ctx context.Context, report *repository.Report) {
	if p == nil {
		return
	}

	finalizedAt := ""
	if report.FinalizedAt != nil {
		finalizedAt = report.FinalizedAt.UTC().Format(time.RFC3339)
	}

	data := messaging.ReportFinalizedEvent{
		ReportID:    report.ID,
		PatientID:   report.PatientID,
		AuthoredBy:  report.AuthoredBy,
		StudyType:   report.StudyType,
		FinalizedAt: finalizedAt,
	}

	if err := p.publisher.Publish(ctx, messaging.EventReportFinalized, data); err != nil {
		p.logger.Error().Err(err).Str("report_id", report.ID).Msg("failed to publish report finalized event")
	}
}
