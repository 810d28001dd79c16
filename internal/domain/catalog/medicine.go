package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Category is the dosage form of a medicine
type Category string

const (
	CategoryTablet    Category = "Tablet"
	CategoryCapsule   Category = "Capsule"
	CategorySyrup     Category = "Syrup"
	CategoryInjection Category = "Injection"
	CategoryOintment  Category = "Ointment"
	CategoryDrops     Category = "Drops"
	CategoryInhaler   Category = "Inhaler"
	CategoryOther     Category = "Other"
)

// AllCategories returns every category in display order
func AllCategories() []Category {
	return []Category{
		CategoryTablet, CategoryCapsule, CategorySyrup, CategoryInjection,
		CategoryOintment, CategoryDrops, CategoryInhaler, CategoryOther,
	}
}

// IsValid checks if the category is one of the known values
func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// StockStatus is a coarse bucket of a medicine's quantity
type StockStatus string

const (
	StockStatusInStock    StockStatus = "inStock"
	StockStatusLowStock   StockStatus = "lowStock"
	StockStatusOutOfStock StockStatus = "outOfStock"
)

// IsValid checks if the stock status is one of the known values
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusInStock, StockStatusLowStock, StockStatusOutOfStock:
		return true
	}
	return false
}

const (
	// DefaultLowStockAlert is the threshold used when none is supplied
	DefaultLowStockAlert = 5
	// ExpiringSoonDays is the look-ahead window for expiry warnings
	ExpiringSoonDays = 30

	maxNameLength    = 200
	maxBatchNoLength = 50
)

// Medicine is one stock-keeping unit (by batch) in a tenant's inventory.
// It is the aggregate root of the catalog context.
type Medicine struct {
	shared.TenantAggregateRoot
	Name            string
	BatchNo         string
	Category        Category
	Quantity        int
	Price           decimal.Decimal
	MRP             decimal.Decimal
	DiscountPercent decimal.Decimal
	ExpiryDate      time.Time
	LowStockAlert   int
	Supplier        string
	Description     string
}

// MedicineInput carries the fields needed to register a medicine
type MedicineInput struct {
	Name            string
	BatchNo         string
	Category        Category
	Quantity        int
	Price           decimal.Decimal
	MRP             decimal.Decimal
	DiscountPercent decimal.Decimal
	ExpiryDate      time.Time
	LowStockAlert   *int
	Supplier        string
	Description     string
}

// MedicinePatch is a partial update. Nil fields are left untouched.
type MedicinePatch struct {
	Name            *string
	BatchNo         *string
	Category        *Category
	Quantity        *int
	Price           *decimal.Decimal
	MRP             *decimal.Decimal
	DiscountPercent *decimal.Decimal
	ExpiryDate      *time.Time
	LowStockAlert   *int
	Supplier        *string
	Description     *string
}

// NewMedicine validates the input and creates a medicine owned by tenantID
func NewMedicine(tenantID uuid.UUID, in MedicineInput, now time.Time) (*Medicine, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant is required")
	}
	lowStock := DefaultLowStockAlert
	if in.LowStockAlert != nil {
		lowStock = *in.LowStockAlert
	}

	m := &Medicine{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, now),
		Name:                strings.TrimSpace(in.Name),
		BatchNo:             NormalizeBatchNo(in.BatchNo),
		Category:            in.Category,
		Quantity:            in.Quantity,
		Price:               in.Price,
		MRP:                 in.MRP,
		DiscountPercent:     in.DiscountPercent,
		ExpiryDate:          CalendarDate(in.ExpiryDate),
		LowStockAlert:       lowStock,
		Supplier:            strings.TrimSpace(in.Supplier),
		Description:         strings.TrimSpace(in.Description),
	}
	if m.Category == "" {
		m.Category = CategoryOther
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply applies a partial update and bumps the version
func (m *Medicine) Apply(p MedicinePatch, now time.Time) error {
	next := *m
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.BatchNo != nil {
		next.BatchNo = NormalizeBatchNo(*p.BatchNo)
	}
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.Quantity != nil {
		next.Quantity = *p.Quantity
	}
	if p.Price != nil {
		next.Price = *p.Price
	}
	if p.MRP != nil {
		next.MRP = *p.MRP
	}
	if p.DiscountPercent != nil {
		next.DiscountPercent = *p.DiscountPercent
	}
	if p.ExpiryDate != nil {
		next.ExpiryDate = CalendarDate(*p.ExpiryDate)
	}
	if p.LowStockAlert != nil {
		next.LowStockAlert = *p.LowStockAlert
	}
	if p.Supplier != nil {
		next.Supplier = strings.TrimSpace(*p.Supplier)
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if err := next.validate(); err != nil {
		return err
	}

	*m = next
	m.Touch(now)
	m.IncrementVersion()
	return nil
}

// Restock adds received units to the on-hand quantity
func (m *Medicine) Restock(qty int, now time.Time) error {
	if qty < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Restock quantity must be at least 1")
	}
	m.Quantity += qty
	m.Touch(now)
	m.IncrementVersion()
	return nil
}

// IsExpired reports whether the expiry day is strictly before today.
// An item expiring today is still sellable.
func (m *Medicine) IsExpired(now time.Time) bool {
	return CalendarDate(m.ExpiryDate).Before(CalendarDate(now))
}

// ExpiringSoon reports whether the item is not yet expired but will be
// within ExpiringSoonDays.
func (m *Medicine) ExpiringSoon(now time.Time) bool {
	if m.IsExpired(now) {
		return false
	}
	horizon := CalendarDate(now).AddDate(0, 0, ExpiringSoonDays)
	return !CalendarDate(m.ExpiryDate).After(horizon)
}

// IsOutOfStock reports whether no units are left
func (m *Medicine) IsOutOfStock() bool {
	return m.Quantity == 0
}

// IsLowStock reports whether stock is positive but at or below the alert threshold
func (m *Medicine) IsLowStock() bool {
	return m.Quantity > 0 && m.Quantity <= m.LowStockAlert
}

// StockStatus buckets the current quantity
func (m *Medicine) StockStatus() StockStatus {
	switch {
	case m.IsOutOfStock():
		return StockStatusOutOfStock
	case m.IsLowStock():
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// StockValue is price times on-hand quantity
func (m *Medicine) StockValue() decimal.Decimal {
	return m.Price.Mul(decimal.NewFromInt(int64(m.Quantity)))
}

func (m *Medicine) validate() error {
	if m.Name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Medicine name is required")
	}
	if len(m.Name) > maxNameLength {
		return shared.NewDomainError("INVALID_INPUT", "Medicine name cannot exceed 200 characters")
	}
	if m.BatchNo == "" {
		return shared.NewDomainError("INVALID_INPUT", "Batch number is required")
	}
	if len(m.BatchNo) > maxBatchNoLength {
		return shared.NewDomainError("INVALID_INPUT", "Batch number cannot exceed 50 characters")
	}
	if !m.Category.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown category: "+string(m.Category))
	}
	if m.Quantity < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Quantity cannot be negative")
	}
	if m.Price.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Price cannot be negative")
	}
	if m.MRP.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "MRP cannot be negative")
	}
	if m.DiscountPercent.IsNegative() || m.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_INPUT", "Discount must be between 0 and 100")
	}
	for _, amount := range []struct {
		field string
		value decimal.Decimal
	}{{"Price", m.Price}, {"MRP", m.MRP}, {"Discount", m.DiscountPercent}} {
		if err := shared.CheckMoneyScale(amount.field, amount.value); err != nil {
			return err
		}
	}
	if m.ExpiryDate.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "Expiry date is required")
	}
	if m.LowStockAlert < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Low stock alert cannot be negative")
	}
	return nil
}

// NormalizeBatchNo trims and upper-cases a batch identifier
func NormalizeBatchNo(batchNo string) string {
	return strings.ToUpper(strings.TrimSpace(batchNo))
}

// CalendarDate drops the clock part of t, keeping the calendar day as seen
// in t's own location.
func CalendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
