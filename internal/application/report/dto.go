package report

import (
	"github.com/google/uuid"
	catalogapp "github.com/pharmabill/backend/internal/application/catalog"
	"github.com/shopspring/decimal"
)

// StoreHeader names the store a dashboard belongs to
type StoreHeader struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// DashboardResponse is the landing-page summary for a tenant. Store is
// omitted until the tenant saves a store profile.
type DashboardResponse struct {
	Store          *StoreHeader    `json:"store,omitempty"`
	TotalMedicines int64           `json:"total_medicines"`
	TotalUnits     int64           `json:"total_units"`
	LowStock       int64           `json:"low_stock"`
	OutOfStock     int64           `json:"out_of_stock"`
	Expired        int64           `json:"expired"`
	ExpiringSoon   int64           `json:"expiring_soon"`
	TodaySales     int64           `json:"today_sales"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	TotalSales     int64           `json:"total_sales"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

// SalesPeriodResponse is one bucket of a sales report
type SalesPeriodResponse struct {
	Period            string          `json:"period"`
	BillCount         int64           `json:"bill_count"`
	Revenue           decimal.Decimal `json:"revenue"`
	Discount          decimal.Decimal `json:"discount"`
	Tax               decimal.Decimal `json:"tax"`
	ItemsSold         int64           `json:"items_sold"`
	AverageBillAmount decimal.Decimal `json:"average_bill_amount"`
}

// SalesReportResponse groups committed bills by period
type SalesReportResponse struct {
	StartDate     string                `json:"start_date"`
	EndDate       string                `json:"end_date"`
	GroupBy       string                `json:"group_by"`
	Periods       []SalesPeriodResponse `json:"periods"`
	TotalBills    int64                 `json:"total_bills"`
	TotalRevenue  decimal.Decimal       `json:"total_revenue"`
	TotalDiscount decimal.Decimal       `json:"total_discount"`
}

// TopMedicineResponse ranks a medicine by units sold
type TopMedicineResponse struct {
	Rank       int             `json:"rank"`
	MedicineID uuid.UUID       `json:"medicine_id"`
	Name       string          `json:"medicine_name"`
	Quantity   int64           `json:"total_quantity"`
	Revenue    decimal.Decimal `json:"total_revenue"`
}

// SalesStatsResponse covers a fixed look-back window
type SalesStatsResponse struct {
	PeriodDays   int                   `json:"period_days"`
	DailySales   []SalesPeriodResponse `json:"daily_sales"`
	BillCount    int64                 `json:"bill_count"`
	Revenue      decimal.Decimal       `json:"revenue"`
	TopMedicines []TopMedicineResponse `json:"top_medicines"`
}

// CategoryStockResponse is one category row of the inventory report
type CategoryStockResponse struct {
	Category   string          `json:"category"`
	Medicines  int64           `json:"medicines"`
	Units      int64           `json:"units"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// InventoryReportResponse values the live catalog
type InventoryReportResponse struct {
	TotalMedicines int64                   `json:"total_medicines"`
	TotalUnits     int64                   `json:"total_units"`
	StockValue     decimal.Decimal         `json:"stock_value"`
	LowStock       int64                   `json:"low_stock"`
	OutOfStock     int64                   `json:"out_of_stock"`
	Categories     []CategoryStockResponse `json:"categories"`
}

// ExpiryMonthResponse lists medicines expiring in one calendar month
type ExpiryMonthResponse struct {
	Month     string                        `json:"month"`
	Count     int                           `json:"count"`
	Medicines []catalogapp.MedicineResponse `json:"medicines"`
}

// ExpiryReportResponse groups expired and soon-expiring stock by month
type ExpiryReportResponse struct {
	TotalExpired  int                   `json:"total_expired"`
	TotalExpiring int                   `json:"total_expiring"`
	Months        []ExpiryMonthResponse `json:"months"`
}
