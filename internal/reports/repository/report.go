package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dentiq/dentiq-backend/pkg/database"
	"github.com/dentiq/dentiq-backend/pkg/errors"
)

// Report represents a radiology report. Draft reports are editable; final
// reports are frozen.
type Report struct {
	ID          string     `db:"id" json:"id"`
	PatientID   string     `db:"patient_id" json:"patient_id"`
	AuthoredBy  string     `db:"authored_by" json:"authored_by"`
	StudyType   string     `db:"study_type" json:"study_type"`
	Findings    string     `db:"findings" json:"findings"`
	Impression  string     `db:"impression" json:"impression"`
	Status      string     `db:"status" json:"status"` // draft, final
	FinalizedAt *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// ReportListParams holds parameters for listing reports
type ReportListParams struct {
	PatientID  *string
	AuthoredBy *string
	Status     *string
	Page       int
	PerPage    int
}

// ReportRepository handles report persistence
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create creates a new draft report
func (r *ReportRepository) Create(ctx context.Context, report *Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.Status == "" {
		report.Status = "draft"
	}

	query := `
		INSERT INTO radiology_reports (id, patient_id, authored_by, study_type, findings, impression, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		report.ID, report.PatientID, report.AuthoredBy, report.StudyType,
		report.Findings, report.Impression, report.Status,
	).Scan(&report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*Report, error) {
	var report Report

	query := `
		SELECT id, patient_id, authored_by, study_type, findings, impression,
		       status, finalized_at, created_at, updated_at
		FROM radiology_reports
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &report, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("report")
	}
	if err != nil {
		return nil, err
	}

	return &report, nil
}

// List lists reports with filters
func (r *ReportRepository) List(ctx context.Context, params ReportListParams) ([]*Report, int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if params.PatientID != nil {
		where += fmt.Sprintf(" AND patient_id = $%d", argIdx)
		args = append(args, *params.PatientID)
		argIdx++
	}
	if params.AuthoredBy != nil {
		where += fmt.Sprintf(" AND authored_by = $%d", argIdx)
		args = append(args, *params.AuthoredBy)
		argIdx++
	}
	if params.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *params.Status)
		argIdx++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM radiology_reports " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	if params.PerPage <= 0 {
		params.PerPage = 20
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	offset := (params.Page - 1) * params.PerPage

	query := fmt.Sprintf(`
		SELECT id, patient_id, authored_by, study_type, findings, impression,
		       status, finalized_at, created_at, updated_at
		FROM radiology_reports
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argIdx, argIdx+1)
	args = append(args, params.PerPage, offset)

	reports := []*Report{}
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

// Update updates a draft report's content. Final reports are immutable.
func (r *ReportRepository) Update(ctx context.Context, report *Report) error {
	query := `
		UPDATE radiology_reports SET
			study_type = $2, findings = $3, impression = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
	`

	result, err := r.db.ExecContext(ctx, query,
		report.ID, report.StudyType, report.Findings, report.Impression,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("report")
	}

	return nil
}

// Finalize marks a draft report as final and stamps finalized_at.
func (r *ReportRepository) Finalize(ctx context.Context, id string) (*Report, error) {
	query := `
		UPDATE radiology_reports SET
			status = 'final', finalized_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
		RETURNING id, patient_id, authored_by, study_type, findings, impression,
		          status, finalized_at, created_at, updated_at
	`

	var report Report
	err := r.db.QueryRowxContext(ctx, query, id).StructScan(&report)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("report")
	}
	if err != nil {
		return nil, err
	}

	return &report, nil
}

// Delete deletes a draft report. Final reports cannot be deleted.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM radiology_reports WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("report")
	}

	return nil
}
