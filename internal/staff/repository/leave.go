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

// LeaveRequest represents a leave request (vacation, sick leave, etc.)
type LeaveRequest struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	LeaveType  string    `db:"leave_type" json:"leave_type"` // vacation, sick, training, unpaid, other
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	Days       int       `db:"days" json:"days"`
	Reason     *string   `db:"reason" json:"reason,omitempty"`
	Status     string    `db:"status" json:"status"` // pending, approved, rejected, cancelled
	ReviewerID *string   `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewNote *string   `db:"review_note" json:"review_note,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// Joined field
	EmployeeName *string `db:"employee_name" json:"employee_name,omitempty"`
}

// LeaveBalance represents an employee's leave balance for a year.
type LeaveBalance struct {
	EmployeeID  string `db:"employee_id" json:"employee_id"`
	Year        int    `db:"year" json:"year"`
	TotalDays   int    `db:"total_days" json:"total_days"`
	UsedDays    int    `db:"used_days" json:"used_days"`
	PendingDays int    `db:"pending_days" json:"pending_days"`
}

// Available returns the days still free to request.
func (b *LeaveBalance) Available() int {
	return b.TotalDays - b.UsedDays - b.PendingDays
}

// LeaveListParams holds parameters for listing leave requests
type LeaveListParams struct {
	EmployeeID *string
	Status     *string
	LeaveType  *string
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}

// LeaveRepository handles leave request and balance persistence
type LeaveRepository struct {
	db *database.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *database.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create creates a new leave request
func (r *LeaveRepository) Create(ctx context.Context, req *LeaveRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = "pending"
	}

	query := `
		INSERT INTO leave_requests (
			id, employee_id, leave_type, start_date, end_date, days, reason, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		req.ID, req.EmployeeID, req.LeaveType, req.StartDate, req.EndDate,
		req.Days, req.Reason, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a leave request by ID
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var req LeaveRequest

	query := `
		SELECT l.id, l.employee_id, l.leave_type, l.start_date, l.end_date, l.days,
		       l.reason, l.status, l.reviewer_id, l.review_note, l.created_at, l.updated_at,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name
		FROM leave_requests l
		LEFT JOIN employees e ON l.employee_id = e.id
		WHERE l.id = $1
	`

	err := r.db.GetContext(ctx, &req, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("leave request")
	}
	if err != nil {
		return nil, err
	}

	return &req, nil
}

// List lists leave requests with filters
func (r *LeaveRepository) List(ctx context.Context, params LeaveListParams) ([]*LeaveRequest, int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if params.EmployeeID != nil {
		where += fmt.Sprintf(" AND l.employee_id = $%d", argIdx)
		args = append(args, *params.EmployeeID)
		argIdx++
	}
	if params.Status != nil {
		where += fmt.Sprintf(" AND l.status = $%d", argIdx)
		args = append(args, *params.Status)
		argIdx++
	}
	if params.LeaveType != nil {
		where += fmt.Sprintf(" AND l.leave_type = $%d", argIdx)
		args = append(args, *params.LeaveType)
		argIdx++
	}
	if params.From != nil {
		where += fmt.Sprintf(" AND l.end_date >= $%d", argIdx)
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		where += fmt.Sprintf(" AND l.start_date <= $%d", argIdx)
		args = append(args, *params.To)
		argIdx++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM leave_requests l " + where
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
		SELECT l.id, l.employee_id, l.leave_type, l.start_date, l.end_date, l.days,
		       l.reason, l.status, l.reviewer_id, l.review_note, l.created_at, l.updated_at,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name
		FROM leave_requests l
		LEFT JOIN employees e ON l.employee_id = e.id
		%s
		ORDER BY l.start_date DESC
		LIMIT $%d OFFSET $%d
	`, where, argIdx, argIdx+1)
	args = append(args, params.PerPage, offset)

	requests := []*LeaveRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// Review transitions a pending leave request to approved or rejected.
// Only pending requests can be reviewed.
func (r *LeaveRepository) Review(ctx context.Context, id, status, reviewerID string, note *string) error {
	query := `
		UPDATE leave_requests SET
			status = $2, reviewer_id = $3, review_note = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, id, status, reviewerID, note)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("leave request")
	}

	return nil
}

// Cancel cancels a pending leave request.
func (r *LeaveRepository) Cancel(ctx context.Context, id string) error {
	query := `UPDATE leave_requests SET status = 'cancelled', updated_at = NOW() WHERE id = $1 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("leave request")
	}

	return nil
}

// ListOverlapping returns pending and approved requests that overlap a range
func (r *LeaveRepository) ListOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]*LeaveRequest, error) {
	query := `
		SELECT id, employee_id, leave_type, start_date, end_date, days,
		       reason, status, reviewer_id, review_note, created_at, updated_at
		FROM leave_requests
		WHERE employee_id = $1 AND start_date <= $3 AND end_date >= $2
		      AND status IN ('pending', 'approved')
		ORDER BY start_date
	`

	requests := []*LeaveRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, employeeID, start, end); err != nil {
		return nil, err
	}

	return requests, nil
}

// GetBalance gets the leave balance for an employee and year. Returns nil
// when no balance row exists yet.
func (r *LeaveRepository) GetBalance(ctx context.Context, employeeID string, year int) (*LeaveBalance, error) {
	var balance LeaveBalance

	query := `
		SELECT employee_id, year, total_days, used_days, pending_days
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2
	`

	err := r.db.GetContext(ctx, &balance, query, employeeID, year)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &balance, nil
}

// UpsertBalance creates or replaces the balance row for an employee and year
func (r *LeaveRepository) UpsertBalance(ctx context.Context, balance *LeaveBalance) error {
	query := `
		INSERT INTO leave_balances (employee_id, year, total_days, used_days, pending_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, year)
		DO UPDATE SET total_days = $3, used_days = $4, pending_days = $5
	`

	_, err := r.db.ExecContext(ctx, query,
		balance.EmployeeID, balance.Year, balance.TotalDays,
		balance.UsedDays, balance.PendingDays,
	)
	return err
}
