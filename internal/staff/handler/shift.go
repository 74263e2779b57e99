package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentiq/dentiq-backend/internal/staff/repository"
	"github.com/dentiq/dentiq-backend/internal/staff/service"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// ShiftHandler handles shift endpoints
type ShiftHandler struct {
	service *service.ShiftService
	logger  *logger.Logger
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(svc *service.ShiftService, log *logger.Logger) *ShiftHandler {
	return &ShiftHandler{
		service: svc,
		logger:  log,
	}
}

// List lists shift assignments, optionally filtered by employee and date range
func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	params := repository.ShiftListParams{
		Page:    page,
		PerPage: perPage,
	}
	if v := r.URL.Query().Get("employee_id"); v != "" {
		params.EmployeeID = &v
	}
	if t, ok := parseDateParam(r, "from"); ok {
		params.From = &t
	}
	if t, ok := parseDateParam(r, "to"); ok {
		params.To = &t
	}

	shifts, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, shifts, pageMeta(page, perPage, total))
}

// Get gets a shift assignment by ID
func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	shift, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, shift)
}

// Create assigns a shift to an employee
func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.AssignShiftInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	shift, err := h.service.Assign(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, shift)
}

// Update reschedules a shift
func (h *ShiftHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input service.AssignShiftInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	shift, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, shift)
}

// Delete removes a shift assignment
func (h *ShiftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

func parseDateParam(r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
