package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	"github.com/dentiq/dentiq-backend/internal/inventory/service"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// BatchHandler handles batch endpoints
type BatchHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(svc *service.InventoryService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		service: svc,
		logger:  log,
	}
}

// BatchRequest is the create/update payload for a batch
type BatchRequest struct {
	ItemID         string     `json:"item_id" validate:"required,uuid"`
	BatchNumber    string     `json:"batch_number" validate:"required,max=100"`
	CurrentStock   int        `json:"current_stock" validate:"gte=0"`
	MinimumStock   int        `json:"minimum_stock" validate:"gte=0"`
	UnitPriceCents *int64     `json:"unit_price_cents,omitempty" validate:"omitempty,gte=0"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
}

// ListByItem lists batches for an item
func (h *BatchHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	batches, err := h.service.ListBatchesByItem(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}

// Get gets a batch by ID
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	batch, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// Create creates a new batch
func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch := &repository.Batch{
		ItemID:         req.ItemID,
		BatchNumber:    req.BatchNumber,
		CurrentStock:   req.CurrentStock,
		MinimumStock:   req.MinimumStock,
		UnitPriceCents: req.UnitPriceCents,
		ExpiryDate:     req.ExpiryDate,
	}

	if err := h.service.CreateBatch(r.Context(), batch); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, batch)
}

// Update updates batch metadata
func (h *BatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req BatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch := &repository.Batch{
		ID:             id,
		BatchNumber:    req.BatchNumber,
		MinimumStock:   req.MinimumStock,
		UnitPriceCents: req.UnitPriceCents,
		ExpiryDate:     req.ExpiryDate,
	}

	if err := h.service.UpdateBatch(r.Context(), batch); err != nil {
		httputil.Error(w, err)
		return
	}

	updated, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, updated)
}

// Delete deletes a batch
func (h *BatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteBatch(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// IssueStock issues stock out of a batch
func (h *BatchHandler) IssueStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req service.IssueStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	adj, err := h.service.IssueStock(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, adj)
}

// ListAdjustments lists recent stock movements for a batch
func (h *BatchHandler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	adjustments, err := h.service.ListAdjustments(r.Context(), id, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, adjustments)
}
