package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateMedicineRequest represents a request to register a medicine batch
type CreateMedicineRequest struct {
	Name            string
	BatchNo         string
	Category        string
	Quantity        int
	Price           decimal.Decimal
	MRP             decimal.Decimal
	DiscountPercent decimal.Decimal
	ExpiryDate      time.Time
	LowStockAlert   *int
	Supplier        string
	Description     string
}

// UpdateMedicineRequest is a partial update. Version, when set, must match
// the stored version.
type UpdateMedicineRequest struct {
	Name            *string
	BatchNo         *string
	Category        *string
	Quantity        *int
	Price           *decimal.Decimal
	MRP             *decimal.Decimal
	DiscountPercent *decimal.Decimal
	ExpiryDate      *time.Time
	LowStockAlert   *int
	Supplier        *string
	Description     *string
	Version         *int
}

// BulkUpdateItem is one entry of a bulk update
type BulkUpdateItem struct {
	ID uuid.UUID
	UpdateMedicineRequest
}

// BulkUpdateFailure names an item that could not be updated and why
type BulkUpdateFailure struct {
	ID    uuid.UUID `json:"id"`
	Code  string    `json:"code"`
	Error string    `json:"error"`
}

// BulkUpdateResult summarizes a bulk update
type BulkUpdateResult struct {
	Updated []uuid.UUID         `json:"updated"`
	Failed  []BulkUpdateFailure `json:"failed"`
}

// MedicineListFilter represents filter options for the medicine list
type MedicineListFilter struct {
	Search      string
	Category    string
	StockStatus string
	Page        int
	PageSize    int
	OrderBy     string
	OrderDir    string
}

// MedicineResponse represents a medicine in API responses
type MedicineResponse struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	Name            string          `json:"name"`
	BatchNo         string          `json:"batch_no"`
	Category        string          `json:"category"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	MRP             decimal.Decimal `json:"mrp"`
	DiscountPercent decimal.Decimal `json:"discount"`
	ExpiryDate      string          `json:"expiry_date"`
	LowStockAlert   int             `json:"low_stock_alert"`
	Supplier        string          `json:"supplier,omitempty"`
	Description     string          `json:"description,omitempty"`
	StockStatus     string          `json:"stock_status"`
	IsExpired       bool            `json:"is_expired"`
	ExpiringSoon    bool            `json:"expiring_soon"`
	IsLowStock      bool            `json:"is_low_stock"`
	IsOutOfStock    bool            `json:"is_out_of_stock"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ExpiryListResponse splits medicines into expired and expiring soon
type ExpiryListResponse struct {
	Expired      []MedicineResponse `json:"expired"`
	ExpiringSoon []MedicineResponse `json:"expiring_soon"`
}

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ToMedicineResponse converts a domain Medicine to a response DTO
func ToMedicineResponse(m *catalog.Medicine, now time.Time) MedicineResponse {
	return MedicineResponse{
		ID:              m.ID,
		TenantID:        m.TenantID,
		Name:            m.Name,
		BatchNo:         m.BatchNo,
		Category:        string(m.Category),
		Quantity:        m.Quantity,
		Price:           m.Price,
		MRP:             m.MRP,
		DiscountPercent: m.DiscountPercent,
		ExpiryDate:      m.ExpiryDate.Format(DateLayout),
		LowStockAlert:   m.LowStockAlert,
		Supplier:        m.Supplier,
		Description:     m.Description,
		StockStatus:     string(m.StockStatus()),
		IsExpired:       m.IsExpired(now),
		ExpiringSoon:    m.ExpiringSoon(now),
		IsLowStock:      m.IsLowStock(),
		IsOutOfStock:    m.IsOutOfStock(),
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ToMedicineResponses converts a slice of medicines
func ToMedicineResponses(ms []catalog.Medicine, now time.Time) []MedicineResponse {
	out := make([]MedicineResponse, len(ms))
	for i := range ms {
		out[i] = ToMedicineResponse(&ms[i], now)
	}
	return out
}

func (r UpdateMedicineRequest) toPatch() catalog.MedicinePatch {
	p := catalog.MedicinePatch{
		Name:            r.Name,
		BatchNo:         r.BatchNo,
		Quantity:        r.Quantity,
		Price:           r.Price,
		MRP:             r.MRP,
		DiscountPercent: r.DiscountPercent,
		ExpiryDate:      r.ExpiryDate,
		LowStockAlert:   r.LowStockAlert,
		Supplier:        r.Supplier,
		Description:     r.Description,
	}
	if r.Category != nil {
		c := catalog.Category(*r.Category)
		p.Category = &c
	}
	return p
}
