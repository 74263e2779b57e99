package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dentiq/dentiq-backend/internal/inventory/events"
	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	"github.com/dentiq/dentiq-backend/pkg/actor"
	"github.com/dentiq/dentiq-backend/pkg/database"
	"github.com/dentiq/dentiq-backend/pkg/errors"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// ReceivingService handles stock receiving
type ReceivingService struct {
	db            *database.DB
	receivingRepo *repository.ReceivingRepository
	itemRepo      *repository.ItemRepository
	batchRepo     *repository.BatchRepository
	activityRepo  *repository.ActivityRepository
	publisher     *events.InventoryEventPublisher
	logger        *logger.Logger
}

// NewReceivingService creates a new receiving service
func NewReceivingService(
	db *database.DB,
	receivingRepo *repository.ReceivingRepository,
	itemRepo *repository.ItemRepository,
	batchRepo *repository.BatchRepository,
	activityRepo *repository.ActivityRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *ReceivingService {
	return &ReceivingService{
		db:            db,
		receivingRepo: receivingRepo,
		itemRepo:      itemRepo,
		batchRepo:     batchRepo,
		activityRepo:  activityRepo,
		publisher:     publisher,
		logger:        log,
	}
}

// ReceiveLineRequest is one line of a receiving request
type ReceiveLineRequest struct {
	ItemID         string     `json:"item_id" validate:"required,uuid"`
	BatchNumber    string     `json:"batch_number" validate:"required,max=100"`
	Quantity       int        `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents *int64     `json:"unit_price_cents,omitempty" validate:"omitempty,gte=0"`
	MinimumStock   int        `json:"minimum_stock" validate:"gte=0"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
}

// ReceiveStockRequest is the input for recording a stock receiving
type ReceiveStockRequest struct {
	SupplierID *string              `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	Notes      *string              `json:"notes,omitempty"`
	Lines      []ReceiveLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReceivingResult is a receiving document with its lines
type ReceivingResult struct {
	*repository.Receiving
	Lines []*repository.ReceivingLine `json:"lines"`
}

// ReceiveStock records a receiving document and books all stock in one
// transaction. Line totals and the document total are computed here and
// never taken from the client. Lines for an existing item and batch number
// add to that batch; otherwise a new batch is created.
func (s *ReceivingService) ReceiveStock(ctx context.Context, req *ReceiveStockRequest) (*ReceivingResult, error) {
	act := actor.FromContext(ctx)
	if act == nil {
		act = actor.SystemActor()
	}

	items := make(map[string]*repository.Item, len(req.Lines))
	for _, line := range req.Lines {
		if items[line.ItemID] != nil {
			continue
		}
		item, err := s.itemRepo.GetByID(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		items[line.ItemID] = item
	}

	rec := &repository.Receiving{
		SupplierID: req.SupplierID,
		ReceivedBy: act.ID,
		Notes:      req.Notes,
	}
	lines := make([]*repository.ReceivingLine, 0, len(req.Lines))

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		number, err := s.receivingRepo.NextReceivingNumber(ctx, tx, time.Now())
		if err != nil {
			return err
		}
		rec.ReceivingNumber = number

		for _, lr := range req.Lines {
			if lr.UnitPriceCents != nil {
				rec.TotalAmountCents += *lr.UnitPriceCents * int64(lr.Quantity)
			}
		}

		if err := s.receivingRepo.CreateTx(ctx, tx, rec); err != nil {
			return err
		}

		for _, lr := range req.Lines {
			if err := s.bookLine(ctx, tx, items[lr.ItemID], &lr); err != nil {
				return err
			}

			var lineTotal int64
			if lr.UnitPriceCents != nil {
				lineTotal = *lr.UnitPriceCents * int64(lr.Quantity)
			}

			line := &repository.ReceivingLine{
				ReceivingID:    rec.ID,
				ItemID:         lr.ItemID,
				BatchNumber:    lr.BatchNumber,
				Quantity:       lr.Quantity,
				UnitPriceCents: lr.UnitPriceCents,
				ExpiryDate:     lr.ExpiryDate,
				LineTotalCents: lineTotal,
			}
			if err := s.receivingRepo.CreateLineTx(ctx, tx, line); err != nil {
				return err
			}
			lines = append(lines, line)
		}

		return s.activityRepo.CreateTx(ctx, tx, &repository.ActivityEntry{
			ActorID:    act.ID,
			ActorName:  act.FullName(),
			Action:     "receive_stock",
			Resource:   "receiving",
			ResourceID: &rec.ID,
			Details: marshalDetails(map[string]interface{}{
				"receiving_number":   rec.ReceivingNumber,
				"line_count":         len(req.Lines),
				"total_amount_cents": rec.TotalAmountCents,
			}),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishStockReceived(ctx, rec, len(lines))

	s.logger.Info().
		Str("receiving_id", rec.ID).
		Str("receiving_number", rec.ReceivingNumber).
		Int("lines", len(lines)).
		Int64("total_amount_cents", rec.TotalAmountCents).
		Msg("stock received")

	return &ReceivingResult{Receiving: rec, Lines: lines}, nil
}

// bookLine adds the line quantity to an existing batch or creates a new one.
// Items without batch tracking keep all stock on one implicit batch, so the
// line books onto that batch whatever batch number the supplier printed.
func (s *ReceivingService) bookLine(ctx context.Context, tx *sqlx.Tx, item *repository.Item, lr *ReceiveLineRequest) error {
	if !item.BatchTracking {
		batches, err := s.batchRepo.ListByItem(ctx, item.ID)
		if err != nil {
			return err
		}
		if len(batches) > 0 {
			_, err = s.batchRepo.AddStock(ctx, tx, batches[0].ID, lr.Quantity)
			return err
		}
	}

	batch, err := s.batchRepo.GetByItemAndNumber(ctx, lr.ItemID, lr.BatchNumber)
	if err == nil {
		_, err = s.batchRepo.AddStock(ctx, tx, batch.ID, lr.Quantity)
		return err
	}

	if !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	batch = &repository.Batch{
		ItemID:         lr.ItemID,
		BatchNumber:    lr.BatchNumber,
		CurrentStock:   lr.Quantity,
		MinimumStock:   lr.MinimumStock,
		UnitPriceCents: lr.UnitPriceCents,
		ExpiryDate:     lr.ExpiryDate,
	}
	return s.batchRepo.CreateBatchTx(ctx, tx, batch)
}

// UpdateReceivingRequest is the input for editing a receiving document header
type UpdateReceivingRequest struct {
	SupplierID *string `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	Notes      *string `json:"notes,omitempty"`
}

// UpdateReceiving edits a receiving document's header fields. Lines and the
// stock booked through them are untouched, so the document total is unchanged.
func (s *ReceivingService) UpdateReceiving(ctx context.Context, id string, req *UpdateReceivingRequest) (*ReceivingResult, error) {
	act := actor.FromContext(ctx)
	if act == nil {
		act = actor.SystemActor()
	}

	rec, lines, err := s.receivingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rec.SupplierID = req.SupplierID
	rec.Notes = req.Notes

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.receivingRepo.UpdateTx(ctx, tx, rec); err != nil {
			return err
		}

		return s.activityRepo.CreateTx(ctx, tx, &repository.ActivityEntry{
			ActorID:    act.ID,
			ActorName:  act.FullName(),
			Action:     "update",
			Resource:   "receiving",
			ResourceID: &rec.ID,
			Details: marshalDetails(map[string]interface{}{
				"receiving_number": rec.ReceivingNumber,
			}),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("receiving_id", rec.ID).
		Str("receiving_number", rec.ReceivingNumber).
		Msg("receiving updated")

	return &ReceivingResult{Receiving: rec, Lines: lines}, nil
}

// DeleteReceiving removes a receiving document and its lines. Stock that was
// booked through the document stays on its batches.
func (s *ReceivingService) DeleteReceiving(ctx context.Context, id string) error {
	act := actor.FromContext(ctx)
	if act == nil {
		act = actor.SystemActor()
	}

	rec, _, err := s.receivingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.receivingRepo.DeleteTx(ctx, tx, id); err != nil {
			return err
		}

		return s.activityRepo.CreateTx(ctx, tx, &repository.ActivityEntry{
			ActorID:    act.ID,
			ActorName:  act.FullName(),
			Action:     "delete",
			Resource:   "receiving",
			ResourceID: &rec.ID,
			Details: marshalDetails(map[string]interface{}{
				"receiving_number": rec.ReceivingNumber,
			}),
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("receiving_id", rec.ID).
		Str("receiving_number", rec.ReceivingNumber).
		Msg("receiving deleted")

	return nil
}

// GetReceiving gets a receiving document with its lines
func (s *ReceivingService) GetReceiving(ctx context.Context, id string) (*ReceivingResult, error) {
	rec, lines, err := s.receivingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ReceivingResult{Receiving: rec, Lines: lines}, nil
}

// ListReceivings lists receiving documents with pagination
func (s *ReceivingService) ListReceivings(ctx context.Context, page, perPage int) ([]*repository.Receiving, int64, error) {
	return s.receivingRepo.List(ctx, page, perPage)
}
