// Package report holds read models for sales and inventory reporting.
// These are query-only views over the catalog and sale ledger; nothing in
// here participates in a billing transaction.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockCounts summarizes a tenant's catalog at a point in time
type StockCounts struct {
	TotalMedicines int64
	TotalUnits     int64
	LowStock       int64
	OutOfStock     int64
	Expired        int64
	ExpiringSoon   int64
}

// SalesTotals aggregates committed bills in a window
type SalesTotals struct {
	BillCount     int64
	Revenue       decimal.Decimal
	TotalDiscount decimal.Decimal
	TotalTax      decimal.Decimal
}

// SalePoint is one committed bill reduced to the figures reports bucket on
type SalePoint struct {
	CreatedAt time.Time
	Total     decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
	Units     int64
}

// MedicineSales ranks a medicine by units sold. Name is the frozen name
// from the most recent bill line.
type MedicineSales struct {
	MedicineID uuid.UUID
	Name       string
	Quantity   int64
	Revenue    decimal.Decimal
}

// CategoryStock summarizes stock held in one category
type CategoryStock struct {
	Category   string
	Medicines  int64
	Units      int64
	StockValue decimal.Decimal
}

// Window is a half-open time range [From, To)
type Window struct {
	From time.Time
	To   time.Time
}

// Repository defines the aggregate queries behind the reporting endpoints
type Repository interface {
	// StockCounts counts medicines by stock and expiry state. today is the
	// current calendar day; horizon is the end of the expiring-soon window.
	StockCounts(ctx context.Context, tenantID uuid.UUID, today, horizon time.Time) (*StockCounts, error)

	// SalesTotals aggregates bills in the window. A zero window covers all time.
	SalesTotals(ctx context.Context, tenantID uuid.UUID, w Window) (*SalesTotals, error)

	// SalePoints returns every bill in the window ordered by creation time
	SalePoints(ctx context.Context, tenantID uuid.UUID, w Window) ([]SalePoint, error)

	// TopMedicines ranks medicines by units sold in the window
	TopMedicines(ctx context.Context, tenantID uuid.UUID, w Window, limit int) ([]MedicineSales, error)

	// CategoryStock groups the live catalog by category
	CategoryStock(ctx context.Context, tenantID uuid.UUID) ([]CategoryStock, error)
}
