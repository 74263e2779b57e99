package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dentiq/dentiq-backend/internal/inventory/service"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// ReceivingHandler handles stock receiving endpoints
type ReceivingHandler struct {
	service   *service.ReceivingService
	inventory *service.InventoryService
	logger    *logger.Logger
}

// NewReceivingHandler creates a new receiving handler
func NewReceivingHandler(svc *service.ReceivingService, inv *service.InventoryService, log *logger.Logger) *ReceivingHandler {
	return &ReceivingHandler{
		service:   svc,
		inventory: inv,
		logger:    log,
	}
}

// Create records a stock receiving
func (h *ReceivingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ReceiveStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.ReceiveStock(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// Get gets a receiving document with its lines
func (h *ReceivingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.service.GetReceiving(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Update edits a receiving document's header fields
func (h *ReceivingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req service.UpdateReceivingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.UpdateReceiving(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Delete removes a receiving document
func (h *ReceivingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteReceiving(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// List lists receiving documents
func (h *ReceivingHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	receivings, total, err := h.service.ListReceivings(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, receivings, pageMeta(page, perPage, total))
}

// ExportPDF downloads a receiving document as a PDF
func (h *ReceivingHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.service.GetReceiving(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	itemNames := make(map[string]string, len(result.Lines))
	for _, line := range result.Lines {
		if _, ok := itemNames[line.ItemID]; ok {
			continue
		}
		item, err := h.inventory.GetItem(r.Context(), line.ItemID)
		if err != nil {
			continue
		}
		itemNames[line.ItemID] = item.Name
	}

	pdfBytes, err := h.inventory.ExportReceiving(r.Context(), result.Receiving, result.Lines, itemNames)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, result.ReceivingNumber))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}
