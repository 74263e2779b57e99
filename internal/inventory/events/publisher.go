package events

import (
	"context"

	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	"github.com/dentiq/dentiq-backend/pkg/logger"
	"github.com/dentiq/dentiq-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory-related events
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "dentiq", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockIssued publishes a stock issued event
func (p *InventoryEventPublisher) PublishStockIssued(ctx context.Context, adj *repository.Adjustment, performedBy string) {
	if p == nil {
		return
	}

	data := messaging.StockIssuedEvent{
		ItemID:      adj.ItemID,
		BatchID:     adj.BatchID,
		Quantity:    adj.Quantity,
		NewStock:    adj.NewStock,
		Reason:      adj.Reason,
		PerformedBy: performedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockIssued, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", adj.BatchID).Msg("failed to publish stock issued event")
	}
}

// PublishStockReceived publishes a stock received event
func (p *InventoryEventPublisher) PublishStockReceived(ctx context.Context, rec *repository.Receiving, lineCount int) {
	if p == nil {
		return
	}

	supplierID := ""
	if rec.SupplierID != nil {
		supplierID = *rec.SupplierID
	}

	data := messaging.StockReceivedEvent{
		ReceivingID:      rec.ID,
		ReceivingNumber:  rec.ReceivingNumber,
		SupplierID:       supplierID,
		LineCount:        lineCount,
		TotalAmountCents: rec.TotalAmountCents,
		ReceivedBy:       rec.ReceivedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockReceived, data); err != nil {
		p.logger.Error().Err(err).Str("receiving_id", rec.ID).Msg("failed to publish stock received event")
	}
}

// PublishLowStock publishes a low stock event for a batch that dropped to or
// below its minimum
func (p *InventoryEventPublisher) PublishLowStock(ctx context.Context, itemID, batchID, itemName string, currentStock, minimumStock int) {
	if p == nil {
		return
	}

	data := messaging.LowStockEvent{
		ItemID:       itemID,
		BatchID:      batchID,
		ItemName:     itemName,
		CurrentStock: currentStock,
		MinimumStock: minimumStock,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLowStock, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batchID).Msg("failed to publish low stock event")
	}
}

// PublishBatchExpiring publishes a batch expiring event
func (p *InventoryEventPublisher) PublishBatchExpiring(ctx context.Context, row repository.BatchStock, daysUntil int) {
	if p == nil {
		return
	}

	if row.ExpiryDate == nil {
		return
	}

	data := messaging.BatchExpiringEvent{
		ItemID:     row.ItemID,
		BatchID:    row.BatchID,
		ItemName:   row.ItemName,
		BatchNo:    row.BatchNumber,
		ExpiryDate: *row.ExpiryDate,
		DaysUntil:  daysUntil,
		Quantity:   row.CurrentStock,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchExpiring, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", row.BatchID).Msg("failed to publish batch expiring event")
	}
}
