package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	"github.com/dentiq/dentiq-backend/internal/inventory/service"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// ItemHandler handles item endpoints
type ItemHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(svc *service.InventoryService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		service: svc,
		logger:  log,
	}
}

// ItemRequest is the create/update payload for an item
type ItemRequest struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Description     *string `json:"description,omitempty"`
	Unit            string  `json:"unit" validate:"omitempty,max=50"`
	UnitPriceCents  int64   `json:"unit_price_cents" validate:"gte=0"`
	SubCategoryID   *string `json:"sub_category_id,omitempty" validate:"omitempty,uuid"`
	SupplierID      *string `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	ExpiryAlertDays int     `json:"expiry_alert_days" validate:"gte=0,lte=365"`
	BatchTracking   *bool   `json:"batch_tracking,omitempty"`
}

// batchTracking defaults to per-batch tracking when the field is omitted
func (r *ItemRequest) batchTracking() bool {
	return r.BatchTracking == nil || *r.BatchTracking
}

// List lists inventory items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	search := r.URL.Query().Get("search")

	items, total, err := h.service.ListItems(r.Context(), search, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, items, pageMeta(page, perPage, total))
}

// Get gets an item with its batches
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Create creates a new item
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	item := &repository.Item{
		Name:            req.Name,
		Description:     req.Description,
		Unit:            req.Unit,
		UnitPriceCents:  req.UnitPriceCents,
		SubCategoryID:   req.SubCategoryID,
		SupplierID:      req.SupplierID,
		ExpiryAlertDays: req.ExpiryAlertDays,
		BatchTracking:   req.batchTracking(),
	}

	if err := h.service.CreateItem(r.Context(), item); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// Update updates an item
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	item := &repository.Item{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		Unit:            req.Unit,
		UnitPriceCents:  req.UnitPriceCents,
		SubCategoryID:   req.SubCategoryID,
		SupplierID:      req.SupplierID,
		ExpiryAlertDays: req.ExpiryAlertDays,
		BatchTracking:   req.batchTracking(),
	}
	if item.Unit == "" {
		item.Unit = "piece"
	}
	if item.ExpiryAlertDays == 0 {
		item.ExpiryAlertDays = 30
	}

	if err := h.service.UpdateItem(r.Context(), item); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// ListBySupplier lists items sourced from a supplier
func (h *ItemHandler) ListBySupplier(w http.ResponseWriter, r *http.Request) {
	supplierID := chi.URLParam(r, "supplierID")

	items, err := h.service.ListItemsBySupplier(r.Context(), supplierID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Delete deletes an item
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return page, perPage
}

func pageMeta(page, perPage int, total int64) *httputil.Meta {
	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	return &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
