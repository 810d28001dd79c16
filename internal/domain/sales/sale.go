package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is a label for how the customer paid. No gateway is involved.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "Cash"
	PaymentMethodCard   PaymentMethod = "Card"
	PaymentMethodUPI    PaymentMethod = "UPI"
	PaymentMethodOnline PaymentMethod = "Online"
)

// IsValid checks if the payment method is known
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodOnline:
		return true
	}
	return false
}

// PaymentStatus of a bill
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

// IsValid checks if the payment status is known
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// Customer identifies who the bill was issued to
type Customer struct {
	Name   string
	Mobile string
	Email  string
}

func (c Customer) normalized() Customer {
	return Customer{
		Name:   strings.TrimSpace(c.Name),
		Mobile: strings.TrimSpace(c.Mobile),
		Email:  strings.ToLower(strings.TrimSpace(c.Email)),
	}
}

func (c Customer) validate() error {
	if c.Name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Customer name is required")
	}
	if len(c.Name) > 200 {
		return shared.NewDomainError("INVALID_INPUT", "Customer name cannot exceed 200 characters")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return shared.NewDomainError("INVALID_INPUT", "Customer email is malformed")
	}
	return nil
}

// SaleLine is one priced line of a bill. Name, batch and prices are frozen
// copies of the catalog entry at sale time.
type SaleLine struct {
	MedicineID      uuid.UUID
	Name            string
	BatchNo         string
	Quantity        int
	Price           decimal.Decimal
	MRP             decimal.Decimal
	DiscountPercent decimal.Decimal
	LineTotal       decimal.Decimal
}

// Sale is an immutable bill. It is created once by a committed billing
// transaction and never updated or deleted.
type Sale struct {
	shared.TenantAggregateRoot
	BillNumber    string
	BillSequence  int64
	Customer      Customer
	Lines         []SaleLine
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
}

// SaleDraft is the input to NewSale. Lines must already be priced.
type SaleDraft struct {
	Customer      Customer
	Lines         []SaleLine
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
}

// NewSale validates the draft and computes the bill totals.
// The bill number is assigned later by AssignNumber.
func NewSale(tenantID uuid.UUID, d SaleDraft, now time.Time) (*Sale, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant is required")
	}
	customer := d.Customer.normalized()
	if err := customer.validate(); err != nil {
		return nil, err
	}
	if len(d.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "A bill needs at least one line")
	}

	method := d.PaymentMethod
	if method == "" {
		method = PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown payment method: "+string(method))
	}
	status := d.PaymentStatus
	if status == "" {
		status = PaymentStatusCompleted
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown payment status: "+string(status))
	}

	lineTotals := make([]decimal.Decimal, len(d.Lines))
	for i, l := range d.Lines {
		lineTotals[i] = l.LineTotal
	}
	subtotal, total, err := BillTotals(lineTotals, d.Discount, d.Tax)
	if err != nil {
		return nil, err
	}

	lines := make([]SaleLine, len(d.Lines))
	copy(lines, d.Lines)

	return &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, now),
		Customer:            customer,
		Lines:               lines,
		Subtotal:            subtotal,
		Discount:            d.Discount,
		Tax:                 d.Tax,
		Total:               total,
		PaymentMethod:       method,
		PaymentStatus:       status,
	}, nil
}

// AssignNumber sets the bill number from the allocated sequence
func (s *Sale) AssignNumber(seq int64) error {
	if s.BillNumber != "" {
		return shared.NewDomainError("INVALID_STATE", "Bill number already assigned")
	}
	if seq < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Bill sequence must be positive")
	}
	s.BillSequence = seq
	s.BillNumber = FormatBillNumber(seq)
	return nil
}

// TotalUnits is the number of units sold across all lines
func (s *Sale) TotalUnits() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}
