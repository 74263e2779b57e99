package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentiq/dentiq-backend/internal/appointment/repository"
	"github.com/dentiq/dentiq-backend/internal/appointment/service"
	"github.com/dentiq/dentiq-backend/pkg/httputil"
	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// AppointmentHandler handles appointment endpoints
type AppointmentHandler struct {
	service *service.AppointmentService
	logger  *logger.Logger
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(svc *service.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: svc,
		logger:  log,
	}
}

// RescheduleRequest is the payload for moving an appointment
type RescheduleRequest struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

// StatusRequest is the payload for an appointment status transition
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed cancelled no_show"`
}

// List lists appointments with filters
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	params := repository.AppointmentListParams{
		Page:    page,
		PerPage: perPage,
	}
	if v := r.URL.Query().Get("patient_id"); v != "" {
		params.PatientID = &v
	}
	if v := r.URL.Query().Get("dentist_id"); v != "" {
		params.DentistID = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		params.Status = &v
	}
	if t, ok := parseDateParam(r, "from"); ok {
		params.From = &t
	}
	if t, ok := parseDateParam(r, "to"); ok {
		params.To = &t
	}

	appointments, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, appointments, pageMeta(page, perPage, total))
}

// Get gets an appointment by ID
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	appt, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, appt)
}

// Create books a new appointment
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.BookAppointmentInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	appt, err := h.service.Book(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, appt)
}

// Reschedule moves an appointment to a new time window
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RescheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	appt, err := h.service.Reschedule(r.Context(), id, req.StartsAt, req.EndsAt)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, appt)
}

// UpdateStatus transitions an appointment's status
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	appt, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, appt)
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
