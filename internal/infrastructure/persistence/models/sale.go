package models

import (
	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for a committed bill. Rows are only
// ever inserted.
type SaleModel struct {
	TenantAggregateModel
	BillNumber     string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_sales_bill_number"`
	BillSequence   int64           `gorm:"not null;uniqueIndex:idx_sales_bill_sequence"`
	CustomerName   string          `gorm:"type:varchar(200);not null"`
	CustomerMobile string          `gorm:"type:varchar(20);not null;default:''"`
	CustomerEmail  string          `gorm:"type:varchar(200);not null;default:''"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Discount       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Tax            decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PaymentMethod  string          `gorm:"type:varchar(20);not null"`
	PaymentStatus  string          `gorm:"type:varchar(20);not null"`
	Lines          []SaleLineModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleLineModel is one frozen line of a bill
type SaleLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_sale_lines_sale_line,priority:1"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_sale_lines_tenant_medicine,priority:1"`
	LineNo          int             `gorm:"not null;uniqueIndex:idx_sale_lines_sale_line,priority:2"`
	MedicineID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_sale_lines_tenant_medicine,priority:2"`
	Name            string          `gorm:"type:varchar(200);not null"`
	BatchNo         string          `gorm:"type:varchar(50);not null"`
	Quantity        int             `gorm:"not null"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MRP             decimal.Decimal `gorm:"column:mrp;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the model (with its lines loaded) to a domain Sale
func (m *SaleModel) ToDomain() *sales.Sale {
	lines := make([]sales.SaleLine, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = sales.SaleLine{
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
	return &sales.Sale{
		TenantAggregateRoot: m.toTenantAggregateRoot(),
		BillNumber:          m.BillNumber,
		BillSequence:        m.BillSequence,
		Customer: sales.Customer{
			Name:   m.CustomerName,
			Mobile: m.CustomerMobile,
			Email:  m.CustomerEmail,
		},
		Lines:         lines,
		Subtotal:      m.Subtotal,
		Discount:      m.Discount,
		Tax:           m.Tax,
		Total:         m.Total,
		PaymentMethod: sales.PaymentMethod(m.PaymentMethod),
		PaymentStatus: sales.PaymentStatus(m.PaymentStatus),
	}
}

// SaleModelFromDomain creates the sale row and its numbered line rows
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{
		BillNumber:     s.BillNumber,
		BillSequence:   s.BillSequence,
		CustomerName:   s.Customer.Name,
		CustomerMobile: s.Customer.Mobile,
		CustomerEmail:  s.Customer.Email,
		Subtotal:       s.Subtotal,
		Discount:       s.Discount,
		Tax:            s.Tax,
		Total:          s.Total,
		PaymentMethod:  string(s.PaymentMethod),
		PaymentStatus:  string(s.PaymentStatus),
		Lines:          make([]SaleLineModel, len(s.Lines)),
	}
	m.fromTenantAggregateRoot(s.TenantAggregateRoot)
	for i, l := range s.Lines {
		m.Lines[i] = SaleLineModel{
			ID:              uuid.New(),
			SaleID:          s.ID,
			TenantID:        s.TenantID,
			LineNo:          i + 1,
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
	return m
}

// SalesToDomain converts a slice of models
func SalesToDomain(rows []SaleModel) []sales.Sale {
	out := make([]sales.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// All returns every model AutoMigrate must create
func All() []any {
	return []any{&TenantModel{}, &MedicineModel{}, &SaleModel{}, &SaleLineModel{}}
}
