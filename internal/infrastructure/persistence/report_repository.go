package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/report"
	"github.com/pharmabill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReportRepository implements report.Repository with aggregate SQL that
// runs unchanged on PostgreSQL and SQLite. Bucketing by day, week or month
// is left to the caller so that no dialect-specific date function is needed.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// StockCounts counts live medicines by stock and expiry state
func (r *GormReportRepository) StockCounts(ctx context.Context, tenantID uuid.UUID, today, horizon time.Time) (*report.StockCounts, error) {
	var result report.StockCounts
	err := r.db.WithContext(ctx).Model(&models.MedicineModel{}).
		Select(`
			COUNT(*) AS total_medicines,
			COALESCE(SUM(quantity), 0) AS total_units,
			COALESCE(SUM(CASE WHEN quantity > 0 AND quantity <= low_stock_alert THEN 1 ELSE 0 END), 0) AS low_stock,
			COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock,
			COALESCE(SUM(CASE WHEN expiry_date < ? THEN 1 ELSE 0 END), 0) AS expired,
			COALESCE(SUM(CASE WHEN expiry_date >= ? AND expiry_date <= ? THEN 1 ELSE 0 END), 0) AS expiring_soon
		`, today, today, horizon).
		Where("tenant_id = ?", tenantID).
		Scan(&result).Error
	if err != nil {
		return nil, ClassifyError(err)
	}
	return &result, nil
}

// SalesTotals sums bill figures over the window
func (r *GormReportRepository) SalesTotals(ctx context.Context, tenantID uuid.UUID, w report.Window) (*report.SalesTotals, error) {
	var result report.SalesTotals
	err := r.salesIn(ctx, tenantID, w).
		Select(`
			COUNT(*) AS bill_count,
			COALESCE(SUM(total), 0) AS revenue,
			COALESCE(SUM(discount), 0) AS total_discount,
			COALESCE(SUM(tax), 0) AS total_tax
		`).
		Scan(&result).Error
	if err != nil {
		return nil, ClassifyError(err)
	}
	// SQLite sums NUMERIC as REAL
	result.Revenue = result.Revenue.Round(2)
	result.TotalDiscount = result.TotalDiscount.Round(2)
	result.TotalTax = result.TotalTax.Round(2)
	return &result, nil
}

// SalePoints returns each bill in the window with its unit count
func (r *GormReportRepository) SalePoints(ctx context.Context, tenantID uuid.UUID, w report.Window) ([]report.SalePoint, error) {
	var points []report.SalePoint
	err := r.salesIn(ctx, tenantID, w).
		Select(`
			sales.created_at,
			sales.total,
			sales.discount,
			sales.tax,
			(SELECT COALESCE(SUM(sl.quantity), 0) FROM sale_lines sl WHERE sl.sale_id = sales.id) AS units
		`).
		Order("sales.created_at ASC").Order("sales.bill_sequence ASC").
		Scan(&points).Error
	if err != nil {
		return nil, ClassifyError(err)
	}
	for i := range points {
		points[i].CreatedAt = points[i].CreatedAt.UTC()
	}
	return points, nil
}

// TopMedicines ranks medicines by units sold in the window. The name comes
// from the newest bill line, so a later catalog rename shows up once the
// medicine sells again.
func (r *GormReportRepository) TopMedicines(ctx context.Context, tenantID uuid.UUID, w report.Window, limit int) ([]report.MedicineSales, error) {
	var ranked []report.MedicineSales
	q := r.db.WithContext(ctx).Table("sale_lines AS sl").
		Select("sl.medicine_id, SUM(sl.quantity) AS quantity, COALESCE(SUM(sl.line_total), 0) AS revenue").
		Joins("JOIN sales ON sales.id = sl.sale_id").
		Where("sl.tenant_id = ?", tenantID)
	q = applyWindow(q, "sales.created_at", w)
	err := q.Group("sl.medicine_id").
		Order("quantity DESC").Order("revenue DESC").Order("sl.medicine_id ASC").
		Limit(limit).
		Scan(&ranked).Error
	if err != nil {
		return nil, ClassifyError(err)
	}
	if len(ranked) == 0 {
		return []report.MedicineSales{}, nil
	}

	ids := make([]uuid.UUID, len(ranked))
	for i := range ranked {
		ids[i] = ranked[i].MedicineID
		ranked[i].Revenue = ranked[i].Revenue.Round(2)
	}

	var named []struct {
		MedicineID uuid.UUID
		Name       string
	}
	err = r.db.WithContext(ctx).Table("sale_lines AS sl").
		Select("sl.medicine_id, sl.name").
		Joins("JOIN sales ON sales.id = sl.sale_id").
		Where("sl.tenant_id = ? AND sl.medicine_id IN ?", tenantID, ids).
		Order("sales.bill_sequence DESC").Order("sl.line_no DESC").
		Scan(&named).Error
	if err != nil {
		return nil, ClassifyError(err)
	}
	latest := make(map[uuid.UUID]string, len(ids))
	for _, n := range named {
		if _, seen := latest[n.MedicineID]; !seen {
			latest[n.MedicineID] = n.Name
		}
	}
	for i := range ranked {
		ranked[i].Name = latest[ranked[i].MedicineID]
	}
	return ranked, nil
}

// CategoryStock groups the live catalog by category
func (r *GormReportRepository) CategoryStock(ctx context.Context, tenantID uuid.UUID) ([]report.CategoryStock, error) {
	var rows []report.CategoryStock
	err := r.db.WithContext(ctx).Model(&models.MedicineModel{}).
		Select(`
			category,
			COUNT(*) AS medicines,
			COALESCE(SUM(quantity), 0) AS units,
			COALESCE(SUM(price * quantity), 0) AS stock_value
		`).
		Where("tenant_id = ?", tenantID).
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, ClassifyError(err)
	}
	for i := range rows {
		rows[i].StockValue = rows[i].StockValue.Round(2)
	}
	return rows, nil
}

func (r *GormReportRepository) salesIn(ctx context.Context, tenantID uuid.UUID, w report.Window) *gorm.DB {
	q := r.db.WithContext(ctx).Table("sales").Where("sales.tenant_id = ?", tenantID)
	return applyWindow(q, "sales.created_at", w)
}

// applyWindow restricts column to [w.From, w.To); zero bounds are open
func applyWindow(q *gorm.DB, column string, w report.Window) *gorm.DB {
	if !w.From.IsZero() {
		q = q.Where(column+" >= ?", w.From.UTC())
	}
	if !w.To.IsZero() {
		q = q.Where(column+" < ?", w.To.UTC())
	}
	return q
}

var _ report.Repository = (*GormReportRepository)(nil)
