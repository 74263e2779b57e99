package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentiq/dentiq-backend/internal/staff/repository"
	"github.com/dentiq/dentiq-backend/internal/staff/service"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// LeaveHandler handles leave request endpoints
type LeaveHandler struct {
	service *service.LeaveService
	logger  *logger.Logger
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(svc *service.LeaveService, log *logger.Logger) *LeaveHandler {
	return &LeaveHandler{
		service: svc,
		logger:  log,
	}
}

// ReviewRequest is the payload for approving or rejecting a leave request
type ReviewRequest struct {
	Note *string `json:"note,omitempty"`
}

// List lists leave requests with filters
func (h *LeaveHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	params := repository.LeaveListParams{
		Page:    page,
		PerPage: perPage,
	}
	if v := r.URL.Query().Get("employee_id"); v != "" {
		params.EmployeeID = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		params.Status = &v
	}
	if v := r.URL.Query().Get("leave_type"); v != "" {
		params.LeaveType = &v
	}
	if t, ok := parseDateParam(r, "from"); ok {
		params.From = &t
	}
	if t, ok := parseDateParam(r, "to"); ok {
		params.To = &t
	}

	requests, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, requests, pageMeta(page, perPage, total))
}

// Get gets a leave request by ID
func (h *LeaveHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, req)
}

// Create submits a new leave request
func (h *LeaveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.RequestLeaveInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	req, err := h.service.Request(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, req)
}

// Approve approves a pending leave request
func (h *LeaveHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Approve)
}

// Reject rejects a pending leave request
func (h *LeaveHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Reject)
}

func (h *LeaveHandler) review(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, reviewerID string, note *string) (*repository.LeaveRequest, error)) {
	id := chi.URLParam(r, "id")

	var body ReviewRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.Error(w, err)
		return
	}

	reviewerID := httputil.GetUserID(r.Context())

	req, err := fn(r.Context(), id, reviewerID, body.Note)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, req)
}

// Cancel cancels a pending leave request
func (h *LeaveHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, req)
}

// Balance returns an employee's leave balance for a year
func (h *LeaveHandler) Balance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	year := time.Now().UTC().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			year = n
		}
	}

	balance, err := h.service.GetBalance(r.Context(), employeeID, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, balance)
}
