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

// Item represents an inventory item. Stock lives on batches, not items;
// UnitPriceCents is the default valuation price for batches that carry none.
// Items with BatchTracking disabled keep their stock on a single implicit batch.
type Item struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     *string   `db:"description" json:"description,omitempty"`
	Unit            string    `db:"unit" json:"unit"`
	UnitPriceCents  int64     `db:"unit_price_cents" json:"unit_price_cents"`
	SubCategoryID   *string   `db:"sub_category_id" json:"sub_category_id,omitempty"`
	SupplierID      *string   `db:"supplier_id" json:"supplier_id,omitempty"`
	ExpiryAlertDays int       `db:"expiry_alert_days" json:"expiry_alert_days"`
	BatchTracking   bool      `db:"batch_tracking" json:"batch_tracking"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// BatchStock is one row of the item/batch join used by the stock summaries.
// Every summary recomputes from these rows so reads never go stale.
type BatchStock struct {
	BatchID         string     `db:"batch_id" json:"batch_id"`
	ItemID          string     `db:"item_id" json:"item_id"`
	ItemName        string     `db:"item_name" json:"item_name"`
	Unit            string     `db:"unit" json:"unit"`
	SupplierID      *string    `db:"supplier_id" json:"supplier_id,omitempty"`
	BatchNumber     string     `db:"batch_number" json:"batch_number"`
	CurrentStock    int        `db:"current_stock" json:"current_stock"`
	MinimumStock    int        `db:"minimum_stock" json:"minimum_stock"`
	UnitPriceCents  *int64     `db:"unit_price_cents" json:"unit_price_cents,omitempty"`
	ExpiryDate      *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	ExpiryAlertDays int        `db:"expiry_alert_days" json:"expiry_alert_days"`
}

// ItemRepository handles item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Unit == "" {
		item.Unit = "piece"
	}
	if item.ExpiryAlertDays == 0 {
		item.ExpiryAlertDays = 30
	}

	item.IsActive = true

	query := `
		INSERT INTO inventory_items (
			id, name, description, unit, unit_price_cents,
			sub_category_id, supplier_id, expiry_alert_days, batch_tracking
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.Name, item.Description, item.Unit, item.UnitPriceCents,
		item.SubCategoryID, item.SupplierID, item.ExpiryAlertDays, item.BatchTracking,
	).Scan(&item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	query := `SELECT * FROM inventory_items WHERE id = $1 AND is_active`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// List lists items with pagination and optional name search
func (r *ItemRepository) List(ctx context.Context, search string, page, perPage int) ([]*Item, int64, error) {
	args := []interface{}{}
	argIdx := 1

	countQuery := `SELECT COUNT(*) FROM inventory_items WHERE is_active`
	query := `SELECT * FROM inventory_items WHERE is_active`

	if search != "" {
		countQuery += fmt.Sprintf(` AND name ILIKE $%d`, argIdx)
		query += fmt.Sprintf(` AND name ILIKE $%d`, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	offset := (page - 1) * perPage
	args = append(args, perPage, offset)

	items := make([]*Item, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListBySupplier lists items sourced from a supplier
func (r *ItemRepository) ListBySupplier(ctx context.Context, supplierID string) ([]*Item, error) {
	items := make([]*Item, 0)
	query := `SELECT * FROM inventory_items WHERE supplier_id = $1 AND is_active ORDER BY name`
	if err := r.db.SelectContext(ctx, &items, query, supplierID); err != nil {
		return nil, err
	}
	return items, nil
}

// Update updates an item
func (r *ItemRepository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE inventory_items SET
			name = $2, description = $3, unit = $4, unit_price_cents = $5,
			sub_category_id = $6, supplier_id = $7, expiry_alert_days = $8,
			batch_tracking = $9, updated_at = NOW()
		WHERE id = $1 AND is_active
	`

	result, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, item.Unit, item.UnitPriceCents,
		item.SubCategoryID, item.SupplierID, item.ExpiryAlertDays, item.BatchTracking,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}

// Delete soft-deletes an item. Its batches and adjustment history stay in
// place but the item drops out of listings and stock summaries.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE inventory_items SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}

// ListBatchStock returns the full item/batch join the stock summaries are
// computed from. Batches without a price fall back to the item's price.
// Ordered by item then batch so grouping is deterministic.
func (r *ItemRepository) ListBatchStock(ctx context.Context) ([]BatchStock, error) {
	rows := make([]BatchStock, 0)
	query := `
		SELECT
			b.id AS batch_id,
			i.id AS item_id,
			i.name AS item_name,
			i.unit,
			i.supplier_id,
			b.batch_number,
			b.current_stock,
			b.minimum_stock,
			COALESCE(b.unit_price_cents, i.unit_price_cents) AS unit_price_cents,
			b.expiry_date,
			i.expiry_alert_days
		FROM inventory_batches b
		JOIN inventory_items i ON i.id = b.item_id
		WHERE i.is_active
		ORDER BY i.created_at, i.id, b.received_date, b.id
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}
