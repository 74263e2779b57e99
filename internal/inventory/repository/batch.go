package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dentiq/dentiq-backend/pkg/database"
	"github.com/dentiq/dentiq-backend/pkg/errors"
)

// Batch represents a stock batch of an inventory item
type Batch struct {
	ID             string     `db:"id" json:"id"`
	ItemID         string     `db:"item_id" json:"item_id"`
	BatchNumber    string     `db:"batch_number" json:"batch_number"`
	CurrentStock   int        `db:"current_stock" json:"current_stock"`
	MinimumStock   int        `db:"minimum_stock" json:"minimum_stock"`
	UnitPriceCents *int64     `db:"unit_price_cents" json:"unit_price_cents,omitempty"`
	ExpiryDate     *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	ReceivedDate   time.Time  `db:"received_date" json:"received_date"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Adjustment records a single stock movement on a batch
type Adjustment struct {
	ID            string    `db:"id" json:"id"`
	BatchID       string    `db:"batch_id" json:"batch_id"`
	ItemID        string    `db:"item_id" json:"item_id"`
	PreviousStock int       `db:"previous_stock" json:"previous_stock"`
	NewStock      int       `db:"new_stock" json:"new_stock"`
	Quantity      int       `db:"quantity" json:"quantity"`
	Reason        string    `db:"reason" json:"reason"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	PerformedBy   string    `db:"performed_by" json:"performed_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create creates a new batch
func (r *BatchRepository) Create(ctx context.Context, batch *Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.ReceivedDate.IsZero() {
		batch.ReceivedDate = time.Now()
	}

	query := `
		INSERT INTO inventory_batches (
			id, item_id, batch_number, current_stock, minimum_stock,
			unit_price_cents, expiry_date, received_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		batch.ID, batch.ItemID, batch.BatchNumber, batch.CurrentStock,
		batch.MinimumStock, batch.UnitPriceCents, batch.ExpiryDate, batch.ReceivedDate,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM inventory_batches WHERE id = $1`
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// GetByItemAndNumber looks a batch up by its item and batch number
func (r *BatchRepository) GetByItemAndNumber(ctx context.Context, itemID, batchNumber string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM inventory_batches WHERE item_id = $1 AND batch_number = $2`
	if err := r.db.GetContext(ctx, &batch, query, itemID, batchNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// ListByItem lists batches for an item, soonest expiry first
func (r *BatchRepository) ListByItem(ctx context.Context, itemID string) ([]*Batch, error) {
	batches := make([]*Batch, 0)
	query := `
		SELECT * FROM inventory_batches
		WHERE item_id = $1
		ORDER BY expiry_date ASC NULLS LAST, received_date ASC
	`
	if err := r.db.SelectContext(ctx, &batches, query, itemID); err != nil {
		return nil, err
	}
	return batches, nil
}

// Update updates batch metadata. Stock changes go through IssueStock,
// AddStock or the receiving flow so every movement leaves a record.
func (r *BatchRepository) Update(ctx context.Context, batch *Batch) error {
	query := `
		UPDATE inventory_batches SET
			batch_number = $2, minimum_stock = $3, unit_price_cents = $4,
			expiry_date = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		batch.ID, batch.BatchNumber, batch.MinimumStock,
		batch.UnitPriceCents, batch.ExpiryDate,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("batch")
	}

	return nil
}

// Delete deletes a batch
func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM inventory_batches WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("batch")
	}

	return nil
}

// IssueStock decrements a batch's stock by quantity in a single statement.
// The WHERE clause guards the decrement, so two concurrent issues can never
// drive the stock negative. Returns the stock level after the decrement.
func (r *BatchRepository) IssueStock(ctx context.Context, tx *sqlx.Tx, batchID string, quantity int) (int, error) {
	query := `
		UPDATE inventory_batches
		SET current_stock = current_stock - $2, updated_at = NOW()
		WHERE id = $1 AND current_stock >= $2
		RETURNING current_stock
	`

	var newStock int
	err := tx.QueryRowxContext(ctx, query, batchID, quantity).Scan(&newStock)
	if err == sql.ErrNoRows {
		// Either the batch does not exist or it has too little stock.
		var exists bool
		if chkErr := tx.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM inventory_batches WHERE id = $1)`, batchID); chkErr != nil {
			return 0, chkErr
		}
		if !exists {
			return 0, errors.NotFound("batch")
		}
		return 0, errors.InsufficientStock(batchID)
	}
	if err != nil {
		return 0, err
	}

	return newStock, nil
}

// AddStock increments a batch's stock by quantity and returns the new level
func (r *BatchRepository) AddStock(ctx context.Context, tx *sqlx.Tx, batchID string, quantity int) (int, error) {
	query := `
		UPDATE inventory_batches
		SET current_stock = current_stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING current_stock
	`

	var newStock int
	err := tx.QueryRowxContext(ctx, query, batchID, quantity).Scan(&newStock)
	if err == sql.ErrNoRows {
		return 0, errors.NotFound("batch")
	}
	if err != nil {
		return 0, err
	}

	return newStock, nil
}

// CreateBatchTx creates a batch inside the caller's transaction
func (r *BatchRepository) CreateBatchTx(ctx context.Context, tx *sqlx.Tx, batch *Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.ReceivedDate.IsZero() {
		batch.ReceivedDate = time.Now()
	}

	query := `
		INSERT INTO inventory_batches (
			id, item_id, batch_number, current_stock, minimum_stock,
			unit_price_cents, expiry_date, received_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRowxContext(ctx, query,
		batch.ID, batch.ItemID, batch.BatchNumber, batch.CurrentStock,
		batch.MinimumStock, batch.UnitPriceCents, batch.ExpiryDate, batch.ReceivedDate,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// CreateAdjustment records a stock movement inside the caller's transaction
func (r *BatchRepository) CreateAdjustment(ctx context.Context, tx *sqlx.Tx, adj *Adjustment) error {
	if adj.ID == "" {
		adj.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_adjustments (
			id, batch_id, item_id, previous_stock, new_stock,
			quantity, reason, notes, performed_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		adj.ID, adj.BatchID, adj.ItemID, adj.PreviousStock, adj.NewStock,
		adj.Quantity, adj.Reason, adj.Notes, adj.PerformedBy,
	).Scan(&adj.CreatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// ListAdjustments lists stock movements for a batch, newest first
func (r *BatchRepository) ListAdjustments(ctx context.Context, batchID string, limit int) ([]*Adjustment, error) {
	if limit <= 0 {
		limit = 50
	}

	adjustments := make([]*Adjustment, 0)
	query := `
		SELECT * FROM stock_adjustments
		WHERE batch_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &adjustments, query, batchID, limit); err != nil {
		return nil, err
	}
	return adjustments, nil
}
