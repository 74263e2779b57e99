package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentiq/dentiq-backend/internal/staff/repository"
	"github.com/dentiq/dentiq-backend/internal/staff/service"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// EmployeeHandler handles employee endpoints
type EmployeeHandler struct {
	service *service.StaffService
	logger  *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(svc *service.StaffService, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: svc,
		logger:  log,
	}
}

// EmployeeRequest is the create/update payload for an employee
type EmployeeRequest struct {
	EmployeeNumber string     `json:"employee_number" validate:"omitempty,max=50"`
	UserID         *string    `json:"user_id,omitempty" validate:"omitempty,uuid"`
	FirstName      string     `json:"first_name" validate:"required,max=100"`
	LastName       string     `json:"last_name" validate:"required,max=100"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	Position       string     `json:"position" validate:"required,max=100"`
	HireDate       *time.Time `json:"hire_date,omitempty"`
	Status         string     `json:"status" validate:"omitempty,oneof=active on_leave terminated"`
}

// StatusRequest is the payload for changing an employee's status
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active on_leave terminated"`
}

// List lists employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	status := r.URL.Query().Get("status")

	employees, total, err := h.service.List(r.Context(), status, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, employees, pageMeta(page, perPage, total))
}

// Get gets an employee by ID
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, emp)
}

// Create creates a new employee
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	emp := &repository.Employee{
		EmployeeNumber: req.EmployeeNumber,
		UserID:         req.UserID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Position:       req.Position,
		Status:         req.Status,
	}
	if req.HireDate != nil {
		emp.HireDate = *req.HireDate
	}

	if err := h.service.Create(r.Context(), emp); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, emp)
}

// Update updates an employee
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req EmployeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	current, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	emp := &repository.Employee{
		ID:             id,
		EmployeeNumber: current.EmployeeNumber,
		UserID:         req.UserID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Position:       req.Position,
		HireDate:       current.HireDate,
		Status:         req.Status,
	}
	if req.HireDate != nil {
		emp.HireDate = *req.HireDate
	}
	if emp.Status == "" {
		emp.Status = current.Status
	}

	if err := h.service.Update(r.Context(), emp); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, emp)
}

// UpdateStatus changes an employee's status
func (h *EmployeeHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req StatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, req.Status); err != nil {
		httputil.Error(w, err)
		return
	}

	emp, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, emp)
}

// Delete deletes an employee
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
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
