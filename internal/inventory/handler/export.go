package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dentiq/dentiq-backend/internal/inventory/service"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// ExportHandler handles PDF export endpoints
type ExportHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.InventoryService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

// ExportStockRegister generates and serves the stock register PDF
func (h *ExportHandler) ExportStockRegister(w http.ResponseWriter, r *http.Request) {
	pdfBytes, err := h.service.ExportStockRegister(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate stock register PDF")
		http.Error(w, "Failed to generate PDF", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("stock-register-%s.pdf", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	w.Write(pdfBytes)
}
