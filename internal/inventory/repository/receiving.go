package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dentiq/dentiq-backend/pkg/database"
	"github.com/dentiq/dentiq-backend/pkg/errors"
)

// Receiving represents a stock receiving document
type Receiving struct {
	ID               string    `db:"id" json:"id"`
	ReceivingNumber  string    `db:"receiving_number" json:"receiving_number"`
	SupplierID       *string   `db:"supplier_id" json:"supplier_id,omitempty"`
	ReceivedBy       string    `db:"received_by" json:"received_by"`
	TotalAmountCents int64     `db:"total_amount_cents" json:"total_amount_cents"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// ReceivingLine is one line of a receiving document
type ReceivingLine struct {
	ID             string     `db:"id" json:"id"`
	ReceivingID    string     `db:"receiving_id" json:"receiving_id"`
	ItemID         string     `db:"item_id" json:"item_id"`
	BatchNumber    string     `db:"batch_number" json:"batch_number"`
	Quantity       int        `db:"quantity" json:"quantity"`
	UnitPriceCents *int64     `db:"unit_price_cents" json:"unit_price_cents,omitempty"`
	ExpiryDate     *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	LineTotalCents int64      `db:"line_total_cents" json:"line_total_cents"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// ReceivingRepository handles receiving persistence
type ReceivingRepository struct {
	db *database.DB
}

// NewReceivingRepository creates a new receiving repository
func NewReceivingRepository(db *database.DB) *ReceivingRepository {
	return &ReceivingRepository{db: db}
}

// CreateTx creates a receiving document inside the caller's transaction
func (r *ReceivingRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, rec *Receiving) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_receivings (
			id, receiving_number, supplier_id, received_by, total_amount_cents, notes
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		rec.ID, rec.ReceivingNumber, rec.SupplierID, rec.ReceivedBy,
		rec.TotalAmountCents, rec.Notes,
	).Scan(&rec.CreatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// CreateLineTx creates a receiving line inside the caller's transaction
func (r *ReceivingRepository) CreateLineTx(ctx context.Context, tx *sqlx.Tx, line *ReceivingLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_receiving_lines (
			id, receiving_id, item_id, batch_number, quantity,
			unit_price_cents, expiry_date, line_total_cents
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		line.ID, line.ReceivingID, line.ItemID, line.BatchNumber,
		line.Quantity, line.UnitPriceCents, line.ExpiryDate, line.LineTotalCents,
	).Scan(&line.CreatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// UpdateTx updates a receiving document's header inside the caller's transaction
func (r *ReceivingRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, rec *Receiving) error {
	query := `
		UPDATE stock_receivings
		SET supplier_id = $2, notes = $3
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query, rec.ID, rec.SupplierID, rec.Notes)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("receiving")
	}

	return nil
}

// DeleteTx deletes a receiving document inside the caller's transaction.
// Lines are removed by the FK cascade.
func (r *ReceivingRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM stock_receivings WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("receiving")
	}

	return nil
}

// GetByID gets a receiving document with its lines
func (r *ReceivingRepository) GetByID(ctx context.Context, id string) (*Receiving, []*ReceivingLine, error) {
	var rec Receiving
	if err := r.db.GetContext(ctx, &rec, `SELECT * FROM stock_receivings WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, errors.NotFound("receiving")
		}
		return nil, nil, err
	}

	lines := make([]*ReceivingLine, 0)
	query := `SELECT * FROM stock_receiving_lines WHERE receiving_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &lines, query, id); err != nil {
		return nil, nil, err
	}

	return &rec, lines, nil
}

// List lists receiving documents with pagination, newest first
func (r *ReceivingRepository) List(ctx context.Context, page, perPage int) ([]*Receiving, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM stock_receivings`); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT * FROM stock_receivings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	receivings := make([]*Receiving, 0)
	if err := r.db.SelectContext(ctx, &receivings, query, perPage, offset); err != nil {
		return nil, 0, err
	}

	return receivings, total, nil
}

// NextReceivingNumber allocates the next sequential receiving number for the
// given year, e.g. RCV-2026-00042. MAX()+1 at read committed can race, so the
// caller's transaction takes an advisory lock on the year prefix first; the
// lock is released at commit or rollback.
func (r *ReceivingRepository) NextReceivingNumber(ctx context.Context, tx *sqlx.Tx, now time.Time) (string, error) {
	prefix := now.Format("RCV-2006-")

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, prefix); err != nil {
		return "", err
	}

	var last sql.NullString
	query := `
		SELECT MAX(receiving_number) FROM stock_receivings
		WHERE receiving_number LIKE $1
	`
	if err := tx.GetContext(ctx, &last, query, prefix+"%"); err != nil {
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
