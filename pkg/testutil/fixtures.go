package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserFixture represents test user data
type UserFixture struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ItemFixture represents test inventory item data
type ItemFixture struct {
	ID              string
	Name            string
	Unit            string
	UnitPriceCents  int64
	SubCategoryID   *string
	SupplierID      *string
	ExpiryAlertDays int
	BatchTracking   bool
	Description     string
	CreatedAt       time.Time
}

// BatchFixture represents test inventory batch data
type BatchFixture struct {
	ID             string
	ItemID         string
	BatchNumber    string
	CurrentStock   int
	MinimumStock   int
	UnitPriceCents *int64
	ExpiryDate     *time.Time
	ReceivedDate   time.Time
	CreatedAt      time.Time
}

// SupplierFixture represents test supplier data
type SupplierFixture struct {
	ID            string
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Status        string
	CreatedAt     time.Time
}

// EmployeeFixture represents test employee data
type EmployeeFixture struct {
	ID             string
	EmployeeNumber string
	FirstName      string
	LastName       string
	Email          string
	Position       string
	HireDate       time.Time
	Status         string
	CreatedAt      time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// User creates a user fixture with defaults
func (f *FixtureFactory) User(opts ...func(*UserFixture)) UserFixture {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	user := UserFixture{
		ID:           uuid.New().String(),
		Email:        fmt.Sprintf("user%d@test.dentiq.io", seq),
		PasswordHash: string(hash),
		FirstName:    fmt.Sprintf("Test%d", seq),
		LastName:     "User",
		Role:         "receptionist",
		Status:       "active",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&user)
	}

	return user
}

// WithEmail sets the user email
func WithEmail(email string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Email = email
	}
}

// WithName sets the user's first and last name
func WithName(first, last string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.FirstName = first
		u.LastName = last
	}
}

// WithRole sets the user role
func WithRole(role string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Role = role
	}
}

// WithStatus sets the user status
func WithStatus(status string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Status = status
	}
}

// WithPassword sets the user password (hashed)
func WithPassword(password string) func(*UserFixture) {
	return func(u *UserFixture) {
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		u.PasswordHash = string(hash)
	}
}

// Item creates an inventory item fixture with defaults
func (f *FixtureFactory) Item(opts ...func(*ItemFixture)) ItemFixture {
	seq := f.nextSeq()

	item := ItemFixture{
		ID:              uuid.New().String(),
		Name:            fmt.Sprintf("Test Item %d", seq),
		Unit:            "piece",
		ExpiryAlertDays: 30,
		BatchTracking:   true,
		Description:     "Test inventory item",
		CreatedAt:       time.Now(),
	}

	for _, opt := range opts {
		opt(&item)
	}

	return item
}

// WithItemName sets the inventory item name
func WithItemName(name string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.Name = name
	}
}

// WithExpiryAlertDays sets the item's expiry alert window
func WithExpiryAlertDays(days int) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.ExpiryAlertDays = days
	}
}

// WithSupplier sets the item's supplier
func WithSupplier(supplierID string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.SupplierID = &supplierID
	}
}

// WithItemPrice sets the item's default unit price
func WithItemPrice(cents int64) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.UnitPriceCents = cents
	}
}

// WithoutBatchTracking puts the item's stock on a single implicit batch
func WithoutBatchTracking() func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.BatchTracking = false
	}
}

// Batch creates an inventory batch fixture with defaults
func (f *FixtureFactory) Batch(itemID string, opts ...func(*BatchFixture)) BatchFixture {
	seq := f.nextSeq()
	price := int64(1000)

	batch := BatchFixture{
		ID:             uuid.New().String(),
		ItemID:         itemID,
		BatchNumber:    fmt.Sprintf("BATCH-%04d", seq),
		CurrentStock:   100,
		MinimumStock:   10,
		UnitPriceCents: &price,
		ReceivedDate:   time.Now(),
		CreatedAt:      time.Now(),
	}

	for _, opt := range opts {
		opt(&batch)
	}

	return batch
}

// WithStock sets the batch's current and minimum stock
func WithStock(current, minimum int) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.CurrentStock = current
		b.MinimumStock = minimum
	}
}

// WithUnitPrice sets the batch's unit price in cents
func WithUnitPrice(cents int64) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.UnitPriceCents = &cents
	}
}

// WithoutUnitPrice clears the batch's unit price
func WithoutUnitPrice() func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.UnitPriceCents = nil
	}
}

// WithExpiry sets the batch's expiry date
func WithExpiry(date time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.ExpiryDate = &date
	}
}

// Supplier creates a supplier fixture with defaults
func (f *FixtureFactory) Supplier(opts ...func(*SupplierFixture)) SupplierFixture {
	seq := f.nextSeq()

	supplier := SupplierFixture{
		ID:            uuid.New().String(),
		Name:          fmt.Sprintf("Supplier %d", seq),
		ContactPerson: "Test Contact",
		Phone:         "+1-555-0100",
		Email:         fmt.Sprintf("supplier%d@test.dentiq.io", seq),
		Status:        "active",
		CreatedAt:     time.Now(),
	}

	for _, opt := range opts {
		opt(&supplier)
	}

	return supplier
}

// Employee creates an employee fixture with defaults
func (f *FixtureFactory) Employee(opts ...func(*EmployeeFixture)) EmployeeFixture {
	seq := f.nextSeq()

	emp := EmployeeFixture{
		ID:             uuid.New().String(),
		EmployeeNumber: fmt.Sprintf("EMP-%04d", seq),
		FirstName:      fmt.Sprintf("Employee%d", seq),
		LastName:       "Test",
		Email:          fmt.Sprintf("employee%d@test.dentiq.io", seq),
		Position:       "Dental Assistant",
		HireDate:       time.Now().AddDate(-1, 0, 0),
		Status:         "active",
		CreatedAt:      time.Now(),
	}

	for _, opt := range opts {
		opt(&emp)
	}

	return emp
}

// WithEmployeeName sets the employee's first and last name
func WithEmployeeName(first, last string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.FirstName = first
		e.LastName = last
	}
}

// WithPosition sets the employee's position
func WithPosition(position string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.Position = position
	}
}

// WithEmployeeStatus sets the employee's status
func WithEmployeeStatus(status string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.Status = status
	}
}

// DefaultTestUsers returns a set of standard test users
func DefaultTestUsers(factory *FixtureFactory) []UserFixture {
	return []UserFixture{
		factory.User(WithEmail("admin@smile-dental.io"), WithName("Grace", "Okafor"), WithRole("admin")),
		factory.User(WithEmail("dentist@smile-dental.io"), WithName("Daniel", "Reyes"), WithRole("dentist")),
		factory.User(WithEmail("reception@smile-dental.io"), WithName("Mina", "Park"), WithRole("receptionist")),
		factory.User(WithEmail("inactive@smile-dental.io"), WithName("Lee", "Turner"), WithStatus("inactive")),
	}
}
