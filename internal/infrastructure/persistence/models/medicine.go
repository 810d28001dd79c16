package models

import (
	"time"

	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MedicineModel is the persistence model for a catalog entry (one batch)
type MedicineModel struct {
	TenantAggregateModel
	Name            string          `gorm:"type:varchar(200);not null"`
	BatchNo         string          `gorm:"type:varchar(50);not null"`
	Category        string          `gorm:"type:varchar(20);not null;default:'Other'"`
	Quantity        int             `gorm:"not null;default:0;check:quantity >= 0"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MRP             decimal.Decimal `gorm:"column:mrp;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	ExpiryDate      time.Time       `gorm:"type:date;not null"`
	LowStockAlert   int             `gorm:"not null;default:5"`
	Supplier        string          `gorm:"type:varchar(200);not null;default:''"`
	Description     string          `gorm:"type:text;not null;default:''"`
	DeletedAt       gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (MedicineModel) TableName() string {
	return "medicines"
}

// ToDomain converts the persistence model to a domain Medicine
func (m *MedicineModel) ToDomain() *catalog.Medicine {
	return &catalog.Medicine{
		TenantAggregateRoot: m.toTenantAggregateRoot(),
		Name:                m.Name,
		BatchNo:             m.BatchNo,
		Category:            catalog.Category(m.Category),
		Quantity:            m.Quantity,
		Price:               m.Price,
		MRP:                 m.MRP,
		DiscountPercent:     m.DiscountPercent,
		ExpiryDate:          catalog.CalendarDate(m.ExpiryDate),
		LowStockAlert:       m.LowStockAlert,
		Supplier:            m.Supplier,
		Description:         m.Description,
	}
}

// MedicineModelFromDomain creates a persistence model from a domain Medicine
func MedicineModelFromDomain(d *catalog.Medicine) *MedicineModel {
	m := &MedicineModel{
		Name:            d.Name,
		BatchNo:         d.BatchNo,
		Category:        string(d.Category),
		Quantity:        d.Quantity,
		Price:           d.Price,
		MRP:             d.MRP,
		DiscountPercent: d.DiscountPercent,
		ExpiryDate:      catalog.CalendarDate(d.ExpiryDate),
		LowStockAlert:   d.LowStockAlert,
		Supplier:        d.Supplier,
		Description:     d.Description,
	}
	m.fromTenantAggregateRoot(d.TenantAggregateRoot)
	return m
}

// MedicinesToDomain converts a slice of models
func MedicinesToDomain(rows []MedicineModel) []catalog.Medicine {
	out := make([]catalog.Medicine, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
