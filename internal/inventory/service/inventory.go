package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dentiq/dentiq-backend/internal/inventory/events"
	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	"github.com/dentiq/dentiq-backend/pkg/actor"
	"github.com/dentiq/dentiq-backend/pkg/database"
	"github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// InventoryService handles inventory business logic
type InventoryService struct {
	db           *database.DB
	itemRepo     *repository.ItemRepository
	batchRepo    *repository.BatchRepository
	supplierRepo *repository.SupplierRepository
	activityRepo *repository.ActivityRepository
	publisher    *events.InventoryEventPublisher
	logger       *logger.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	db *database.DB,
	itemRepo *repository.ItemRepository,
	batchRepo *repository.BatchRepository,
	supplierRepo *repository.SupplierRepository,
	activityRepo *repository.ActivityRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		db:           db,
		itemRepo:     itemRepo,
		batchRepo:    batchRepo,
		supplierRepo: supplierRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// ItemWithBatches represents an item with its batches
type ItemWithBatches struct {
	*repository.Item
	Batches    []*repository.Batch `json:"batches"`
	TotalStock int                 `json:"total_stock"`
}

// StockSummary is the recomputed view of the whole inventory. Every request
// rebuilds it from the batch rows so it can never serve stale numbers.
type StockSummary struct {
	TotalValueCents int64       `json:"total_value_cents"`
	BatchCount      int         `json:"batch_count"`
	LowStock        []ItemGroup `json:"low_stock"`
	ExpiringSoon    []ItemGroup `json:"expiring_soon"`
}

// IssueStockRequest is the input for issuing stock out of a batch
type IssueStockRequest struct {
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Reason   string  `json:"reason" validate:"required,oneof=treatment wasted expired damaged other"`
	Notes    *string `json:"notes,omitempty"`
}

// Item operations

// CreateItem creates a new inventory item
func (s *InventoryService) CreateItem(ctx context.Context, item *repository.Item) error {
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return err
	}

	s.recordActivity(ctx, "create", "item", item.ID, map[string]interface{}{"name": item.Name})
	return nil
}

// GetItem gets an item with its batches
func (s *InventoryService) GetItem(ctx context.Context, id string) (*ItemWithBatches, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	batches, err := s.batchRepo.ListByItem(ctx, id)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, b := range batches {
		total += b.CurrentStock
	}

	return &ItemWithBatches{Item: item, Batches: batches, TotalStock: total}, nil
}

// ListItems lists items with pagination
func (s *InventoryService) ListItems(ctx context.Context, search string, page, perPage int) ([]*repository.Item, int64, error) {
	return s.itemRepo.List(ctx, search, page, perPage)
}

// ListItemsBySupplier lists items sourced from a supplier
func (s *InventoryService) ListItemsBySupplier(ctx context.Context, supplierID string) ([]*repository.Item, error) {
	return s.itemRepo.ListBySupplier(ctx, supplierID)
}

// UpdateItem updates an inventory item
func (s *InventoryService) UpdateItem(ctx context.Context, item *repository.Item) error {
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return err
	}

	s.recordActivity(ctx, "update", "item", item.ID, nil)
	return nil
}

// DeleteItem deletes an inventory item and its batches
func (s *InventoryService) DeleteItem(ctx context.Context, id string) error {
	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.recordActivity(ctx, "delete", "item", id, nil)
	return nil
}

// Batch operations

// CreateBatch creates a new batch
func (s *InventoryService) CreateBatch(ctx context.Context, batch *repository.Batch) error {
	item, err := s.itemRepo.GetByID(ctx, batch.ItemID)
	if err != nil {
		return err
	}

	if !item.BatchTracking {
		existing, err := s.batchRepo.ListByItem(ctx, batch.ItemID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errors.Conflict("item is not batch tracked and already has a batch")
		}
	}

	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return err
	}

	s.recordActivity(ctx, "create", "batch", batch.ID, map[string]interface{}{
		"item_id":      batch.ItemID,
		"batch_number": batch.BatchNumber,
		"stock":        batch.CurrentStock,
	})
	return nil
}

// GetBatch gets a batch by ID
func (s *InventoryService) GetBatch(ctx context.Context, id string) (*repository.Batch, error) {
	return s.batchRepo.GetByID(ctx, id)
}

// ListBatchesByItem lists batches for an item
func (s *InventoryService) ListBatchesByItem(ctx context.Context, itemID string) ([]*repository.Batch, error) {
	return s.batchRepo.ListByItem(ctx, itemID)
}

// UpdateBatch updates batch metadata
func (s *InventoryService) UpdateBatch(ctx context.Context, batch *repository.Batch) error {
	if err := s.batchRepo.Update(ctx, batch); err != nil {
		return err
	}

	s.recordActivity(ctx, "update", "batch", batch.ID, nil)
	return nil
}

// DeleteBatch deletes a batch
func (s *InventoryService) DeleteBatch(ctx context.Context, id string) error {
	if err := s.batchRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.recordActivity(ctx, "delete", "batch", id, nil)
	return nil
}

// ListAdjustments lists recent stock movements for a batch
func (s *InventoryService) ListAdjustments(ctx context.Context, batchID string, limit int) ([]*repository.Adjustment, error) {
	if _, err := s.batchRepo.GetByID(ctx, batchID); err != nil {
		return nil, err
	}
	return s.batchRepo.ListAdjustments(ctx, batchID, limit)
}

// IssueStock takes quantity out of a batch. The decrement, the adjustment
// record and the activity entry commit in one transaction; if the batch has
// too little stock the whole operation fails and nothing changes.
func (s *InventoryService) IssueStock(ctx context.Context, batchID string, req *IssueStockRequest) (*repository.Adjustment, error) {
	act := actor.FromContext(ctx)
	if act == nil {
		act = actor.SystemActor()
	}

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	item, err := s.itemRepo.GetByID(ctx, batch.ItemID)
	if err != nil {
		return nil, err
	}

	var adj *repository.Adjustment
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		newStock, err := s.batchRepo.IssueStock(ctx, tx, batchID, req.Quantity)
		if err != nil {
			return err
		}

		adj = &repository.Adjustment{
			BatchID:       batchID,
			ItemID:        batch.ItemID,
			PreviousStock: newStock + req.Quantity,
			NewStock:      newStock,
			Quantity:      req.Quantity,
			Reason:        req.Reason,
			Notes:         req.Notes,
			PerformedBy:   act.ID,
		}
		if err := s.batchRepo.CreateAdjustment(ctx, tx, adj); err != nil {
			return err
		}

		return s.activityRepo.CreateTx(ctx, tx, &repository.ActivityEntry{
			ActorID:    act.ID,
			ActorName:  act.FullName(),
			Action:     "issue_stock",
			Resource:   "batch",
			ResourceID: &batchID,
			Details:    marshalDetails(map[string]interface{}{"quantity": req.Quantity, "reason": req.Reason}),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishStockIssued(ctx, adj, act.ID)

	if adj.NewStock <= batch.MinimumStock {
		s.publisher.PublishLowStock(ctx, item.ID, batchID, item.Name, adj.NewStock, batch.MinimumStock)
	}

	s.logger.Info().
		Str("batch_id", batchID).
		Int("quantity", req.Quantity).
		Int("new_stock", adj.NewStock).
		Str("reason", req.Reason).
		Msg("stock issued")

	return adj, nil
}

// Summaries

// GetStockSummary recomputes the inventory overview from the batch rows
func (s *InventoryService) GetStockSummary(ctx context.Context) (*StockSummary, error) {
	rows, err := s.itemRepo.ListBatchStock(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &StockSummary{
		TotalValueCents: TotalValueCents(rows),
		BatchCount:      len(rows),
		LowStock:        GroupLowStock(rows),
		ExpiringSoon:    GroupExpiringSoon(rows, now),
	}, nil
}

// GetLowStock returns items at or below their minimum stock
func (s *InventoryService) GetLowStock(ctx context.Context) ([]ItemGroup, error) {
	rows, err := s.itemRepo.ListBatchStock(ctx)
	if err != nil {
		return nil, err
	}
	return GroupLowStock(rows), nil
}

// GetExpiringSoon returns items with batches inside their expiry alert window
func (s *InventoryService) GetExpiringSoon(ctx context.Context) ([]ItemGroup, error) {
	rows, err := s.itemRepo.ListBatchStock(ctx)
	if err != nil {
		return nil, err
	}
	return GroupExpiringSoon(rows, time.Now()), nil
}

// GetTotalValue returns the inventory value in cents
func (s *InventoryService) GetTotalValue(ctx context.Context) (int64, error) {
	rows, err := s.itemRepo.ListBatchStock(ctx)
	if err != nil {
		return 0, err
	}
	return TotalValueCents(rows), nil
}

// NotifyExpiringBatches publishes an event per batch inside its alert window.
// Intended to run daily.
func (s *InventoryService) NotifyExpiringBatches(ctx context.Context) error {
	rows, err := s.itemRepo.ListBatchStock(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	day := now.Truncate(24 * time.Hour)
	for _, group := range GroupExpiringSoon(rows, now) {
		for _, row := range group.Batches {
			daysUntil := int(row.ExpiryDate.Truncate(24 * time.Hour).Sub(day).Hours() / 24)
			s.publisher.PublishBatchExpiring(ctx, row, daysUntil)
		}
	}

	return nil
}

// Activity log

// ListActivity lists activity entries with optional filters
func (s *InventoryService) ListActivity(ctx context.Context, resource, actorID string, from, to *time.Time, page, perPage int) ([]*repository.ActivityEntry, int64, error) {
	return s.activityRepo.List(ctx, resource, actorID, from, to, page, perPage)
}

// ListResourceActivity lists activity entries for one record
func (s *InventoryService) ListResourceActivity(ctx context.Context, resource, resourceID string, page, perPage int) ([]*repository.ActivityEntry, int64, error) {
	return s.activityRepo.ListByResource(ctx, resource, resourceID, page, perPage)
}

// recordActivity writes an activity entry outside a transaction. Failures are
// logged, not returned; the underlying change already happened.
func (s *InventoryService) recordActivity(ctx context.Context, action, resource, resourceID string, details map[string]interface{}) {
	act := actor.FromContext(ctx)
	if act == nil {
		act = actor.SystemActor()
	}

	entry := &repository.ActivityEntry{
		ActorID:    act.ID,
		ActorName:  act.FullName(),
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		Details:    marshalDetails(details),
	}

	if err := s.activityRepo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("action", action).
			Str("resource", resource).
			Msg("failed to record activity")
	}
}

func marshalDetails(details map[string]interface{}) *string {
	if len(details) == 0 {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}
