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

// ShiftAssignment represents a scheduled shift for an employee.
// Times are HH:MM strings in clinic local time.
type ShiftAssignment struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	ShiftDate  time.Time `db:"shift_date" json:"shift_date"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// Joined field
	EmployeeName *string `db:"employee_name" json:"employee_name,omitempty"`
}

// ShiftListParams holds parameters for listing shifts
type ShiftListParams struct {
	EmployeeID *string
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}

// ShiftRepository handles shift persistence
type ShiftRepository struct {
	db *database.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *database.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create creates a new shift assignment
func (r *ShiftRepository) Create(ctx context.Context, shift *ShiftAssignment) error {
	if shift.ID == "" {
		shift.ID = uuid.New().String()
	}

	query := `
		INSERT INTO shift_assignments (id, employee_id, shift_date, start_time, end_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		shift.ID, shift.EmployeeID, shift.ShiftDate, shift.StartTime, shift.EndTime, shift.Notes,
	).Scan(&shift.CreatedAt, &shift.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a shift assignment by ID
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*ShiftAssignment, error) {
	var shift ShiftAssignment

	query := `
		SELECT s.id, s.employee_id, s.shift_date, s.start_time, s.end_time, s.notes,
		       s.created_at, s.updated_at,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name
		FROM shift_assignments s
		LEFT JOIN employees e ON s.employee_id = e.id
		WHERE s.id = $1
	`

	err := r.db.GetContext(ctx, &shift, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("shift")
	}
	if err != nil {
		return nil, err
	}

	return &shift, nil
}

// List lists shift assignments with filters
func (r *ShiftRepository) List(ctx context.Context, params ShiftListParams) ([]*ShiftAssignment, int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if params.EmployeeID != nil {
		where += fmt.Sprintf(" AND s.employee_id = $%d", argIdx)
		args = append(args, *params.EmployeeID)
		argIdx++
	}
	if params.From != nil {
		where += fmt.Sprintf(" AND s.shift_date >= $%d", argIdx)
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		where += fmt.Sprintf(" AND s.shift_date <= $%d", argIdx)
		args = append(args, *params.To)
		argIdx++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM shift_assignments s " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	if params.PerPage <= 0 {
		params.PerPage = 50
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	offset := (params.Page - 1) * params.PerPage

	query := fmt.Sprintf(`
		SELECT s.id, s.employee_id, s.shift_date, s.start_time, s.end_time, s.notes,
		       s.created_at, s.updated_at,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name
		FROM shift_assignments s
		LEFT JOIN employees e ON s.employee_id = e.id
		%s
		ORDER BY s.shift_date, s.start_time
		LIMIT $%d OFFSET $%d
	`, where, argIdx, argIdx+1)
	args = append(args, params.PerPage, offset)

	shifts := []*ShiftAssignment{}
	if err := r.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}

// Update updates a shift assignment
func (r *ShiftRepository) Update(ctx context.Context, shift *ShiftAssignment) error {
	query := `
		UPDATE shift_assignments SET
			shift_date = $2, start_time = $3, end_time = $4, notes = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.ShiftDate, shift.StartTime, shift.EndTime, shift.Notes,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("shift")
	}

	return nil
}

// Delete deletes a shift assignment
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shift_assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("shift")
	}

	return nil
}

// CheckForConflicts reports whether the employee already has a shift on the
// same date that overlaps the given time window. Times compare correctly as
// strings because they are zero-padded HH:MM.
func (r *ShiftRepository) CheckForConflicts(ctx context.Context, employeeID string, shiftDate time.Time, startTime, endTime string, excludeID *string) (bool, error) {
	query := `
		SELECT COUNT(*) FROM shift_assignments
		WHERE employee_id = $1 AND shift_date = $2
		      AND start_time < $4 AND end_time > $3
	`
	args := []interface{}{employeeID, shiftDate, startTime, endTime}

	if excludeID != nil {
		query += " AND id != $5"
		args = append(args, *excludeID)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}

	return count > 0, nil
}
