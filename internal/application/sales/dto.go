package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// CreateSaleRequest is the input of Coordinator.CreateSale
type CreateSaleRequest struct {
	CustomerName   string
	CustomerMobile string
	CustomerEmail  string
	Items          []SaleItemInput
	Discount       decimal.Decimal
	Tax            decimal.Decimal
	PaymentMethod  sales.PaymentMethod
	PaymentStatus  sales.PaymentStatus
	// CashierID is the authenticated user ringing up the bill, if known
	CashierID uuid.UUID
}

// SaleItemInput requests Quantity units of one medicine. DiscountPercent,
// when set, overrides the catalog discount for this line.
type SaleItemInput struct {
	MedicineID      uuid.UUID
	Quantity        int
	DiscountPercent *decimal.Decimal
}

// SaleListFilter represents filter options for the bill list
type SaleListFilter struct {
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
	OrderBy   string
	OrderDir  string
}

// SaleResponse is a committed bill as returned to callers and to the
// PDF/report consumers
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	BillNumber     string             `json:"bill_number"`
	CustomerName   string             `json:"customer_name"`
	CustomerMobile string             `json:"customer_mobile,omitempty"`
	CustomerEmail  string             `json:"customer_email,omitempty"`
	Items          []SaleLineResponse `json:"items"`
	ItemCount      int                `json:"item_count"`
	TotalUnits     int                `json:"total_units"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Discount       decimal.Decimal    `json:"discount"`
	Tax            decimal.Decimal    `json:"tax"`
	Total          decimal.Decimal    `json:"total"`
	PaymentMethod  string             `json:"payment_method"`
	PaymentStatus  string             `json:"payment_status"`
	CreatedBy      *uuid.UUID         `json:"created_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// SaleLineResponse is one frozen line of a bill
type SaleLineResponse struct {
	MedicineID      uuid.UUID       `json:"medicine_id"`
	Name            string          `json:"medicine_name"`
	BatchNo         string          `json:"batch_no"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	MRP             decimal.Decimal `json:"mrp"`
	DiscountPercent decimal.Decimal `json:"discount"`
	LineTotal       decimal.Decimal `json:"total"`
}

// SaleListItemResponse is the compact row used by the bill list
type SaleListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	BillNumber    string          `json:"bill_number"`
	CustomerName  string          `json:"customer_name"`
	ItemCount     int             `json:"item_count"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToSaleResponse converts a domain Sale to a response DTO
func ToSaleResponse(s *sales.Sale) SaleResponse {
	items := make([]SaleLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		items[i] = SaleLineResponse{
			MedicineID:      l.MedicineID,
			Name:            l.Name,
			BatchNo:         l.BatchNo,
			Quantity:        l.Quantity,
			Price:           l.Price,
			MRP:             l.MRP,
			DiscountPercent: l.DiscountPercent,
			LineTotal:       l.LineTotal,
		}
	}
	return SaleResponse{
		ID:             s.ID,
		TenantID:       s.TenantID,
		BillNumber:     s.BillNumber,
		CustomerName:   s.Customer.Name,
		CustomerMobile: s.Customer.Mobile,
		CustomerEmail:  s.Customer.Email,
		Items:          items,
		ItemCount:      len(items),
		TotalUnits:     s.TotalUnits(),
		Subtotal:       s.Subtotal,
		Discount:       s.Discount,
		Tax:            s.Tax,
		Total:          s.Total,
		PaymentMethod:  string(s.PaymentMethod),
		PaymentStatus:  string(s.PaymentStatus),
		CreatedBy:      s.CreatedBy,
		CreatedAt:      s.CreatedAt,
	}
}

// ToSaleListItemResponse converts a domain Sale to a list row
func ToSaleListItemResponse(s *sales.Sale) SaleListItemResponse {
	return SaleListItemResponse{
		ID:            s.ID,
		BillNumber:    s.BillNumber,
		CustomerName:  s.Customer.Name,
		ItemCount:     len(s.Lines),
		Total:         s.Total,
		PaymentMethod: string(s.PaymentMethod),
		PaymentStatus: string(s.PaymentStatus),
		CreatedAt:     s.CreatedAt,
	}
}
