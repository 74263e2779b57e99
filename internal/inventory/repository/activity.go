package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dentiq/dentiq-backend/pkg/database"
)

// ActivityEntry represents one activity log entry.
// Entries are append-only and are never updated or deleted.
type ActivityEntry struct {
	ID         string    `db:"id" json:"id"`
	ActorID    string    `db:"actor_id" json:"actor_id"`
	ActorName  string    `db:"actor_name" json:"actor_name"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    *string   `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ActivityRepository handles activity log persistence.
// All operations are append-only: no UPDATE or DELETE is permitted.
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create creates a new activity entry (append-only, no update/delete)
func (r *ActivityRepository) Create(ctx context.Context, entry *ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO activity_log (
			id, actor_id, actor_name, action, resource, resource_id, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.ActorID, entry.ActorName, entry.Action,
		entry.Resource, entry.ResourceID, entry.Details,
	).Scan(&entry.CreatedAt)
}

// CreateTx creates an activity entry inside the caller's transaction so the
// log line commits or rolls back together with the change it describes.
func (r *ActivityRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, entry *ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO activity_log (
			id, actor_id, actor_name, action, resource, resource_id, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	return tx.QueryRowxContext(ctx, query,
		entry.ID, entry.ActorID, entry.ActorName, entry.Action,
		entry.Resource, entry.ResourceID, entry.Details,
	).Scan(&entry.CreatedAt)
}

// List lists activity entries with optional filters, newest first
func (r *ActivityRepository) List(ctx context.Context, resource, actorID string, from, to *time.Time, page, perPage int) ([]*ActivityEntry, int64, error) {
	args := []interface{}{}
	argIdx := 1

	countQuery := `SELECT COUNT(*) FROM activity_log WHERE 1=1`
	query := `
		SELECT id, actor_id, actor_name, action, resource, resource_id, details, created_at
		FROM activity_log WHERE 1=1
	`

	if resource != "" {
		countQuery += fmt.Sprintf(` AND resource = $%d`, argIdx)
		query += fmt.Sprintf(` AND resource = $%d`, argIdx)
		args = append(args, resource)
		argIdx++
	}

	if actorID != "" {
		countQuery += fmt.Sprintf(` AND actor_id = $%d`, argIdx)
		query += fmt.Sprintf(` AND actor_id = $%d`, argIdx)
		args = append(args, actorID)
		argIdx++
	}

	if from != nil {
		countQuery += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, *from)
		argIdx++
	}

	if to != nil {
		countQuery += fmt.Sprintf(` AND created_at <= $%d`, argIdx)
		query += fmt.Sprintf(` AND created_at <= $%d`, argIdx)
		args = append(args, *to)
		argIdx++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC`

	offset := (page - 1) * perPage
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, perPage, offset)

	entries := make([]*ActivityEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// ListByResource lists activity entries for one resource record, newest first
func (r *ActivityRepository) ListByResource(ctx context.Context, resource, resourceID string, page, perPage int) ([]*ActivityEntry, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM activity_log WHERE resource = $1 AND resource_id = $2`
	if err := r.db.GetContext(ctx, &total, countQuery, resource, resourceID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT id, actor_id, actor_name, action, resource, resource_id, details, created_at
		FROM activity_log
		WHERE resource = $1 AND resource_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	entries := make([]*ActivityEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, resource, resourceID, perPage, offset); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
