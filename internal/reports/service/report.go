package service

import (
	"context"

	"github.com/dentiq/dentiq-backend/internal/reports/events"
	"github.com/dentiq/dentiq-backend/internal/reports/repository"
	"github.com/dentiq/dentiq-backend/pkg/actor"
	"github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// ReportService handles radiology report lifecycle
type ReportService struct {
	repo      *repository.ReportRepository
	publisher *events.ReportEventPublisher
	logger    *logger.Logger
}

// NewReportService creates a new report service
func NewReportService(
	repo *repository.ReportRepository,
	publisher *events.ReportEventPublisher,
	log *logger.Logger,
) *ReportService {
	return &ReportService{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

// CreateReportInput is the payload for creating a draft report
type CreateReportInput struct {
	PatientID  string `json:"patient_id" validate:"required,uuid"`
	StudyType  string `json:"study_type" validate:"required,max=100"`
	Findings   string `json:"findings" validate:"required"`
	Impression string `json:"impression" validate:"required"`
}

// UpdateReportInput is the payload for editing a draft report
type UpdateReportInput struct {
	StudyType  string `json:"study_type" validate:"required,max=100"`
	Findings   string `json:"findings" validate:"required"`
	Impression string `json:"impression" validate:"required"`
}

// Create creates a new draft report authored by the current actor.
func (s *ReportService) Create(ctx context.Context, input CreateReportInput) (*repository.Report, error) {
	act := actor.FromContext(ctx)
	if act == nil {
		act = actor.SystemActor()
	}

	report := &repository.Report{
		PatientID:  input.PatientID,
		AuthoredBy: act.ID,
		StudyType:  input.StudyType,
		Findings:   input.Findings,
		Impression: input.Impression,
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	s.publisher.PublishCreated(ctx, report)

	s.logger.Info().
		Str("report_id", report.ID).
		Str("patient_id", report.PatientID).
		Str("study_type", report.StudyType).
		Msg("report drafted")

	return report, nil
}

// GetByID gets a report by ID
func (s *ReportService) GetByID(ctx context.Context, id string) (*repository.Report, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists reports with filters
func (s *ReportService) List(ctx context.Context, params repository.ReportListParams) ([]*repository.Report, int64, error) {
	return s.repo.List(ctx, params)
}

// Update edits a draft report. Final reports are immutable.
func (s *ReportService) Update(ctx context.Context, id string, input UpdateReportInput) (*repository.Report, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != "draft" {
		return nil, errors.Conflict("final reports cannot be edited")
	}

	report.StudyType = input.StudyType
	report.Findings = input.Findings
	report.Impression = input.Impression

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// Finalize freezes a draft report and stamps the finalization time.
func (s *ReportService) Finalize(ctx context.Context, id string) (*repository.Report, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != "draft" {
		return nil, errors.Conflict("report is already final")
	}

	report, err := s.repo.Finalize(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishFinalized(ctx, report)

	s.logger.Info().
		Str("report_id", report.ID).
		Str("patient_id", report.PatientID).
		Msg("report finalized")

	return report, nil
}

// Delete removes a draft report. Final reports cannot be deleted.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if report.Status != "draft" {
		return errors.Conflict("final reports cannot be deleted")
	}

	return s.repo.Delete(ctx, id)
}
