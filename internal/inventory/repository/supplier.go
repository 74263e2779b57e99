package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/dentiq/dentiq-backend/pkg/database"
	"github.com/dentiq/dentiq-backend/pkg/errors"
)

// Supplier represents a supplier of inventory items
type Supplier struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ContactPerson *string   `db:"contact_person" json:"contact_person,omitempty"`
	Email         *string   `db:"email" json:"email,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Address       *string   `db:"address" json:"address,omitempty"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SubCategory groups inventory items
type SubCategory struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SupplierRepository handles supplier and sub-category persistence
type SupplierRepository struct {
	db *database.DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *database.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// Create creates a new supplier
func (r *SupplierRepository) Create(ctx context.Context, supplier *Supplier) error {
	if supplier.ID == "" {
		supplier.ID = uuid.New().String()
	}

	if supplier.Status == "" {
		supplier.Status = "active"
	}

	query := `
		INSERT INTO suppliers (id, name, contact_person, email, phone, address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		supplier.ID, supplier.Name, supplier.ContactPerson,
		supplier.Email, supplier.Phone, supplier.Address, supplier.Status,
	).Scan(&supplier.CreatedAt, &supplier.UpdatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a supplier by ID
func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*Supplier, error) {
	var supplier Supplier
	query := `SELECT * FROM suppliers WHERE id = $1`
	if err := r.db.GetContext(ctx, &supplier, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("supplier")
		}
		return nil, err
	}
	return &supplier, nil
}

// List lists all suppliers by name
func (r *SupplierRepository) List(ctx context.Context) ([]*Supplier, error) {
	suppliers := make([]*Supplier, 0)
	query := `SELECT * FROM suppliers ORDER BY name`
	if err := r.db.SelectContext(ctx, &suppliers, query); err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Update updates a supplier
func (r *SupplierRepository) Update(ctx context.Context, supplier *Supplier) error {
	query := `
		UPDATE suppliers SET
			name = $2, contact_person = $3, email = $4, phone = $5,
			address = $6, status = $7, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		supplier.ID, supplier.Name, supplier.ContactPerson,
		supplier.Email, supplier.Phone, supplier.Address, supplier.Status,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("supplier")
	}

	return nil
}

// Delete deletes a supplier
func (r *SupplierRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("supplier")
	}

	return nil
}

// CreateSubCategory creates a new sub-category
func (r *SupplierRepository) CreateSubCategory(ctx context.Context, sc *SubCategory) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}

	query := `
		INSERT INTO sub_categories (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	if err := r.db.QueryRowxContext(ctx, query, sc.ID, sc.Name, sc.Description).Scan(&sc.CreatedAt); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetSubCategory gets a sub-category by ID
func (r *SupplierRepository) GetSubCategory(ctx context.Context, id string) (*SubCategory, error) {
	var sc SubCategory
	query := `SELECT * FROM sub_categories WHERE id = $1`
	if err := r.db.GetContext(ctx, &sc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("sub-category")
		}
		return nil, err
	}
	return &sc, nil
}

// UpdateSubCategory updates a sub-category
func (r *SupplierRepository) UpdateSubCategory(ctx context.Context, sc *SubCategory) error {
	query := `UPDATE sub_categories SET name = $2, description = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, sc.ID, sc.Name, sc.Description)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("sub-category")
	}

	return nil
}

// ListSubCategories lists all sub-categories by name
func (r *SupplierRepository) ListSubCategories(ctx context.Context) ([]*SubCategory, error) {
	categories := make([]*SubCategory, 0)
	query := `SELECT * FROM sub_categories ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}
	return categories, nil
}

// DeleteSubCategory deletes a sub-category
func (r *SupplierRepository) DeleteSubCategory(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sub_categories WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("sub-category")
	}

	return nil
}
