package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// User events
	EventUserCreated     = "user.created"
	EventUserUpdated     = "user.updated"
	EventUserDeactivated = "user.deactivated"

	// Staff events
	EventEmployeeCreated = "staff.employee.created"
	EventEmployeeUpdated = "staff.employee.updated"
	EventEmployeeDeleted = "staff.employee.deleted"

	// Shift events
	EventShiftAssigned = "staff.shift.assigned"
	EventShiftUpdated  = "staff.shift.updated"
	EventShiftDeleted  = "staff.shift.deleted"

	// Leave events
	EventLeaveRequested = "staff.leave.requested"
	EventLeaveApproved  = "staff.leave.approved"
	EventLeaveRejected  = "staff.leave.rejected"
	EventLeaveCancelled = "staff.leave.cancelled"

	// Appointment events
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentUpdated   = "appointment.updated"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentCompleted = "appointment.completed"

	// Inventory events
	EventStockIssued    = "inventory.stock.issued"
	EventStockAdjusted  = "inventory.stock.adjusted"
	EventStockReceived  = "inventory.stock.received"
	EventBatchExpiring  = "inventory.batch.expiring"
	EventLowStock       = "inventory.stock.low"

	// Report events
	EventReportCreated   = "report.created"
	EventReportFinalized = "report.finalized"
)

// Exchange names
const (
	ExchangeUserEvents        = "user.events"
	ExchangeStaffEvents       = "staff.events"
	ExchangeAppointmentEvents = "appointment.events"
	ExchangeInventoryEvents   = "inventory.events"
	ExchangeReportEvents      = "report.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// User Events

// UserCreatedEvent is published when a user account is created
type UserCreatedEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// FullName returns the user's full name
func (e *UserCreatedEvent) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Staff Events

// EmployeeCreatedEvent is published when an employee is created
type EmployeeCreatedEvent struct {
	EmployeeID string  `json:"employee_id"`
	UserID     *string `json:"user_id,omitempty"`
	Name       string  `json:"name"`
	Position   string  `json:"position"`
}

// EmployeeUpdatedEvent is published when an employee is updated
type EmployeeUpdatedEvent struct {
	EmployeeID string         `json:"employee_id"`
	Fields     map[string]any `json:"fields"`
}

// EmployeeDeletedEvent is published when an employee is deleted
type EmployeeDeletedEvent struct {
	EmployeeID string `json:"employee_id"`
}

// ShiftAssignedEvent is published when a shift is assigned to an employee
type ShiftAssignedEvent struct {
	AssignmentID string    `json:"assignment_id"`
	EmployeeID   string    `json:"employee_id"`
	ShiftDate    time.Time `json:"shift_date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
}

// LeaveRequestedEvent is published when a leave request is submitted
type LeaveRequestedEvent struct {
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	LeaveType  string    `json:"leave_type"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Days       int       `json:"days"`
}

// LeaveReviewedEvent is published when a leave request is approved or rejected
type LeaveReviewedEvent struct {
	LeaveID    string `json:"leave_id"`
	EmployeeID string `json:"employee_id"`
	Status     string `json:"status"`
	ReviewerID string `json:"reviewer_id"`
	Reason     string `json:"reason,omitempty"`
}

// Appointment Events

// AppointmentBookedEvent is published when an appointment is booked
type AppointmentBookedEvent struct {
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	DentistID     string    `json:"dentist_id"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Treatment     string    `json:"treatment,omitempty"`
}

// AppointmentStatusEvent is published on appointment status transitions
type AppointmentStatusEvent struct {
	AppointmentID string `json:"appointment_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	ChangedBy     string `json:"changed_by"`
}

// Inventory Events

// StockIssuedEvent is published when stock is issued out of a batch
type StockIssuedEvent struct {
	ItemID      string `json:"item_id"`
	BatchID     string `json:"batch_id"`
	Quantity    int    `json:"quantity"`
	NewStock    int    `json:"new_stock"`
	Reason      string `json:"reason"`
	PerformedBy string `json:"performed_by"`
}

// StockReceivedEvent is published when a stock receiving is recorded
type StockReceivedEvent struct {
	ReceivingID      string `json:"receiving_id"`
	ReceivingNumber  string `json:"receiving_number"`
	SupplierID       string `json:"supplier_id"`
	LineCount        int    `json:"line_count"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	ReceivedBy       string `json:"received_by"`
}

// BatchExpiringEvent is published when a batch is nearing expiry
type BatchExpiringEvent struct {
	ItemID     string    `json:"item_id"`
	BatchID    string    `json:"batch_id"`
	ItemName   string    `json:"item_name"`
	BatchNo    string    `json:"batch_no"`
	ExpiryDate time.Time `json:"expiry_date"`
	DaysUntil  int       `json:"days_until"`
	Quantity   int       `json:"quantity"`
}

// LowStockEvent is published when a batch falls to or below its minimum stock
type LowStockEvent struct {
	ItemID       string `json:"item_id"`
	BatchID      string `json:"batch_id"`
	ItemName     string `json:"item_name"`
	CurrentStock int    `json:"current_stock"`
	MinimumStock int    `json:"minimum_stock"`
}

// Report Events

// ReportFinalizedEvent is published when a radiology report is finalized
type ReportFinalizedEvent struct {
	ReportID    string `json:"report_id"`
	PatientID   string `json:"patient_id"`
	AuthoredBy  string `json:"authored_by"`
	StudyType   string `json:"study_type"`
	FinalizedAt string `json:"finalized_at"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
