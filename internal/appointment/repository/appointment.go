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

// Appointment represents a booked patient appointment.
type Appointment struct {
	ID        string    `db:"id" json:"id"`
	PatientID string    `db:"patient_id" json:"patient_id"`
	DentistID string    `db:"dentist_id" json:"dentist_id"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time `db:"ends_at" json:"ends_at"`
	Status    string    `db:"status" json:"status"` // scheduled, confirmed, completed, cancelled, no_show
	Treatment *string   `db:"treatment" json:"treatment,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AppointmentListParams holds parameters for listing appointments
type AppointmentListParams struct {
	PatientID *string
	DentistID *string
	Status    *string
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

// AppointmentRepository handles appointment persistence
type AppointmentRepository struct {
	db *database.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *database.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create creates a new appointment
func (r *AppointmentRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.Status == "" {
		appt.Status = "scheduled"
	}

	query := `
		INSERT INTO appointments (id, patient_id, dentist_id, starts_at, ends_at, status, treatment, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		appt.ID, appt.PatientID, appt.DentistID, appt.StartsAt, appt.EndsAt,
		appt.Status, appt.Treatment, appt.Notes,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets an appointment by ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	var appt Appointment

	query := `
		SELECT id, patient_id, dentist_id, starts_at, ends_at, status, treatment, notes,
		       created_at, updated_at
		FROM appointments
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &appt, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("appointment")
	}
	if err != nil {
		return nil, err
	}

	return &appt, nil
}

// List lists appointments with filters
func (r *AppointmentRepository) List(ctx context.Context, params AppointmentListParams) ([]*Appointment, int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if params.PatientID != nil {
		where += fmt.Sprintf(" AND patient_id = $%d", argIdx)
		args = append(args, *params.PatientID)
		argIdx++
	}
	if params.DentistID != nil {
		where += fmt.Sprintf(" AND dentist_id = $%d", argIdx)
		args = append(args, *params.DentistID)
		argIdx++
	}
	if params.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *params.Status)
		argIdx++
	}
	if params.From != nil {
		where += fmt.Sprintf(" AND ends_at >= $%d", argIdx)
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		where += fmt.Sprintf(" AND starts_at <= $%d", argIdx)
		args = append(args, *params.To)
		argIdx++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM appointments " + where
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
		SELECT id, patient_id, dentist_id, starts_at, ends_at, status, treatment, notes,
		       created_at, updated_at
		FROM appointments
		%s
		ORDER BY starts_at
		LIMIT $%d OFFSET $%d
	`, where, argIdx, argIdx+1)
	args = append(args, params.PerPage, offset)

	appointments := []*Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, err
	}

	return appointments, total, nil
}

// Update updates an appointment's schedule and notes
func (r *AppointmentRepository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE appointments SET
			starts_at = $2, ends_at = $3, treatment = $4, notes = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		appt.ID, appt.StartsAt, appt.EndsAt, appt.Treatment, appt.Notes,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("appointment")
	}

	return nil
}

// UpdateStatus sets an appointment's status
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("appointment")
	}

	return nil
}

// CheckForConflicts reports whether the dentist has a live appointment that
// overlaps the given window. Cancelled and no-show appointments do not block
// the slot.
func (r *AppointmentRepository) CheckForConflicts(ctx context.Context, dentistID string, startsAt, endsAt time.Time, excludeID *string) (bool, error) {
	query := `
		SELECT COUNT(*) FROM appointments
		WHERE dentist_id = $1
		      AND starts_at < $3 AND ends_at > $2
		      AND status IN ('scheduled', 'confirmed')
	`
	args := []interface{}{dentistID, startsAt, endsAt}

	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}

	return count > 0, nil
}
