package handler

import (
	"net/http"

	"github.com/dentiq/dentiq-backend/internal/inventory/service"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// SummaryHandler serves the recomputed stock summaries
type SummaryHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(svc *service.InventoryService, log *logger.Logger) *SummaryHandler {
	return &SummaryHandler{
		service: svc,
		logger:  log,
	}
}

// Get returns the full stock summary
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStockSummary(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// LowStock returns items at or below their minimum stock
func (h *SummaryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.GetLowStock(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, groups)
}

// ExpiringSoon returns items with batches inside their expiry alert window
func (h *SummaryHandler) ExpiringSoon(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.GetExpiringSoon(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, groups)
}

// TotalValue returns the inventory value in cents
func (h *SummaryHandler) TotalValue(w http.ResponseWriter, r *http.Request) {
	value, err := h.service.GetTotalValue(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"total_value_cents": value})
}
