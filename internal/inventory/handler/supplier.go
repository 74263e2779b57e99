package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// SupplierHandler handles supplier and sub-category endpoints
type SupplierHandler struct {
	repo   *repository.SupplierRepository
	logger *logger.Logger
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(repo *repository.SupplierRepository, log *logger.Logger) *SupplierHandler {
	return &SupplierHandler{
		repo:   repo,
		logger: log,
	}
}

// SupplierRequest is the create/update payload for a supplier
type SupplierRequest struct {
	Name          string  `json:"name" validate:"required,max=255"`
	ContactPerson *string `json:"contact_person,omitempty" validate:"omitempty,max=255"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address       *string `json:"address,omitempty"`
	Status        string  `json:"status" validate:"omitempty,oneof=active inactive"`
}

// SubCategoryRequest is the create payload for a sub-category
type SubCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description,omitempty"`
}

// List lists all suppliers
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.repo.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, suppliers)
}

// Get gets a supplier by ID
func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	supplier, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, supplier)
}

// Create creates a new supplier
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	supplier := &repository.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Status:        req.Status,
	}

	if err := h.repo.Create(r.Context(), supplier); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, supplier)
}

// Update updates a supplier
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SupplierRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	supplier := &repository.Supplier{
		ID:            id,
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Status:        req.Status,
	}
	if supplier.Status == "" {
		supplier.Status = "active"
	}

	if err := h.repo.Update(r.Context(), supplier); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, supplier)
}

// Delete deletes a supplier
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListSubCategories lists all sub-categories
func (h *SupplierHandler) ListSubCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListSubCategories(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, categories)
}

// CreateSubCategory creates a new sub-category
func (h *SupplierHandler) CreateSubCategory(w http.ResponseWriter, r *http.Request) {
	var req SubCategoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	sc := &repository.SubCategory{Name: req.Name, Description: req.Description}
	if err := h.repo.CreateSubCategory(r.Context(), sc); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, sc)
}

// GetSubCategory gets a sub-category by ID
func (h *SupplierHandler) GetSubCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sc, err := h.repo.GetSubCategory(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sc)
}

// UpdateSubCategory updates a sub-category
func (h *SupplierHandler) UpdateSubCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SubCategoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	sc := &repository.SubCategory{ID: id, Name: req.Name, Description: req.Description}
	if err := h.repo.UpdateSubCategory(r.Context(), sc); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sc)
}

// DeleteSubCategory deletes a sub-category
func (h *SupplierHandler) DeleteSubCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.DeleteSubCategory(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
