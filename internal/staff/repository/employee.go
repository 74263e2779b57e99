package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dentiq/dentiq-backend/pkg/database"
	"github.com/dentiq/dentiq-backend/pkg/errors"
)

// Employee represents a clinic staff member.
type Employee struct {
	ID             string    `db:"id" json:"id"`
	EmployeeNumber string    `db:"employee_number" json:"employee_number"`
	UserID         *string   `db:"user_id" json:"user_id,omitempty"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Position       string    `db:"position" json:"position"`
	HireDate       time.Time `db:"hire_date" json:"hire_date"`
	Status         string    `db:"status" json:"status"` // active, on_leave, terminated
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the employee's full name.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EmployeeRepository handles employee persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create creates a new employee
func (r *EmployeeRepository) Create(ctx context.Context, emp *Employee) error {
	if emp.ID == "" {
		emp.ID = uuid.New().String()
	}
	if emp.Status == "" {
		emp.Status = "active"
	}
	if emp.HireDate.IsZero() {
		emp.HireDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	query := `
		INSERT INTO employees (
			id, employee_number, user_id, first_name, last_name,
			email, phone, position, hire_date, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		emp.ID, emp.EmployeeNumber, emp.UserID, emp.FirstName, emp.LastName,
		emp.Email, emp.Phone, emp.Position, emp.HireDate, emp.Status,
	).Scan(&emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	var emp Employee

	query := `
		SELECT id, employee_number, user_id, first_name, last_name,
		       email, phone, position, hire_date, status, created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &emp, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// GetByUserID gets the employee linked to a user account
func (r *EmployeeRepository) GetByUserID(ctx context.Context, userID string) (*Employee, error) {
	var emp Employee

	query := `
		SELECT id, employee_number, user_id, first_name, last_name,
		       email, phone, position, hire_date, status, created_at, updated_at
		FROM employees
		WHERE user_id = $1
	`

	err := r.db.GetContext(ctx, &emp, query, userID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// List lists employees with optional status filter and pagination
func (r *EmployeeRepository) List(ctx context.Context, status string, page, perPage int) ([]*Employee, int64, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = "WHERE status = $1"
		args = append(args, status)
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM employees %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := fmt.Sprintf(`
		SELECT id, employee_number, user_id, first_name, last_name,
		       email, phone, position, hire_date, status, created_at, updated_at
		FROM employees
		%s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	employees := []*Employee{}
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}

// Update updates an employee
func (r *EmployeeRepository) Update(ctx context.Context, emp *Employee) error {
	query := `
		UPDATE employees SET
			user_id = $2, first_name = $3, last_name = $4, email = $5,
			phone = $6, position = $7, hire_date = $8, status = $9,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.UserID, emp.FirstName, emp.LastName, emp.Email,
		emp.Phone, emp.Position, emp.HireDate, emp.Status,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("employee")
	}

	return nil
}

// UpdateStatus sets an employee's status
func (r *EmployeeRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE employees SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("employee")
	}

	return nil
}

// Delete deletes an employee. Leave requests, balances and shifts cascade.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("employee")
	}

	return nil
}

// NextEmployeeNumber allocates the next employee number in the EMP-NNNNN series.
func (r *EmployeeRepository) NextEmployeeNumber(ctx context.Context) (string, error) {
	const prefix = "EMP-"

	var last sql.NullString
	query := `SELECT MAX(employee_number) FROM employees WHERE employee_number LIKE $1`
	if err := r.db.GetContext(ctx, &last, query, prefix+"%"); err != nil {
		return "", err
	}

	seq := 1
	if last.Valid && len(last.String) > len(prefix) {
		if n, err := strconv.Atoi(last.String[len(prefix):]); err == nil {
			seq = n + 1
		}
	}

	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

// NullifyUserReferences clears user_id for employees referencing a deleted user
func (r *EmployeeRepository) NullifyUserReferences(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE employees SET user_id = NULL WHERE user_id = $1`, userID)
	return err
}
