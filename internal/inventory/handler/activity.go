package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentiq/dentiq-backend/internal/inventory/service"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// ActivityHandler serves the activity log
type ActivityHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(svc *service.InventoryService, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: svc,
		logger:  log,
	}
}

// List lists activity entries with optional filters
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	resource := r.URL.Query().Get("resource")
	actorID := r.URL.Query().Get("actor_id")
	from := parseDateParam(r, "from")
	to := parseDateParam(r, "to")

	entries, total, err := h.service.ListActivity(r.Context(), resource, actorID, from, to, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, entries, pageMeta(page, perPage, total))
}

// ListByResource lists activity entries for one record
func (h *ActivityHandler) ListByResource(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	resourceID := chi.URLParam(r, "id")
	page, perPage := pagination(r)

	entries, total, err := h.service.ListResourceActivity(r.Context(), resource, resourceID, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, entries, pageMeta(page, perPage, total))
}

func parseDateParam(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse("2006-01-02", raw); err != nil {
			return nil
		}
	}
	return &t
}
