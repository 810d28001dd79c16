package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errMedicineNotFound = shared.NewDomainError("NOT_FOUND", "Medicine not found")

// GormMedicineRepository implements catalog.MedicineRepository using GORM
type GormMedicineRepository struct {
	db *gorm.DB
}

// NewGormMedicineRepository creates a new GormMedicineRepository
func NewGormMedicineRepository(db *gorm.DB) *GormMedicineRepository {
	return &GormMedicineRepository{db: db}
}

// FindByIDForTenant finds a medicine by ID within a tenant
func (r *GormMedicineRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Medicine, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate reads the row with SELECT ... FOR UPDATE. The lock is
// held until the surrounding transaction ends, so this is only meaningful
// on a repository built from a transaction handle. SQLite has no row locks;
// its single writer connection serialises transactions instead.
func (r *GormMedicineRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Medicine, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), tenantID, id)
}

func (r *GormMedicineRepository) findOne(db *gorm.DB, tenantID, id uuid.UUID) (*catalog.Medicine, error) {
	var model models.MedicineModel
	err := db.Where("tenant_id = ? AND id = ?", tenantID, id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errMedicineNotFound
	}
	if err != nil {
		return nil, ClassifyError(err)
	}
	return model.ToDomain(), nil
}

// ExistsByBatchNo checks batch uniqueness among live medicines of a tenant
func (r *GormMedicineRepository) ExistsByBatchNo(ctx context.Context, tenantID uuid.UUID, batchNo string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.MedicineModel{}).
		Where("tenant_id = ? AND batch_no = ?", tenantID, catalog.NormalizeBatchNo(batchNo))
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, ClassifyError(err)
	}
	return count > 0, nil
}

// FindAllForTenant lists medicines with filters, sorting and paging
func (r *GormMedicineRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter catalog.MedicineFilter) ([]catalog.Medicine, int64, error) {
	f := filter.Filter.Normalize()
	q := r.db.WithContext(ctx).Model(&models.MedicineModel{}).Where("tenant_id = ?", tenantID)

	if filter.Category != "" {
		q = q.Where("category = ?", string(filter.Category))
	}
	switch filter.StockStatus {
	case catalog.StockStatusOutOfStock:
		q = q.Where("quantity = 0")
	case catalog.StockStatusLowStock:
		q = q.Where("quantity > 0 AND quantity <= low_stock_alert")
	case catalog.StockStatusInStock:
		q = q.Where("quantity > low_stock_alert")
	}
	if term := likeTerm(f.Search); term != "" {
		q = q.Where("LOWER(name) LIKE ? OR LOWER(batch_no) LIKE ? OR LOWER(supplier) LIKE ?", term, term, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, ClassifyError(err)
	}

	var rows []models.MedicineModel
	if err := q.Clauses(orderBy(f, MedicineSortColumns, "created_at")).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, ClassifyError(err)
	}
	return models.MedicinesToDomain(rows), total, nil
}

// Search matches name, batch or supplier among in-stock medicines that have
// not expired before today
func (r *GormMedicineRepository) Search(ctx context.Context, tenantID uuid.UUID, query string, today time.Time, limit int) ([]catalog.Medicine, error) {
	term := likeTerm(query)
	if term == "" {
		return []catalog.Medicine{}, nil
	}
	var rows []models.MedicineModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND quantity > 0 AND expiry_date >= ?", tenantID, catalog.CalendarDate(today)).
		Where("LOWER(name) LIKE ? OR LOWER(batch_no) LIKE ? OR LOWER(supplier) LIKE ?", term, term, term).
		Order("name ASC").Order("expiry_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, ClassifyError(err)
	}
	return models.MedicinesToDomain(rows), nil
}

// FindExpiringBefore returns medicines expiring on or before until, soonest first
func (r *GormMedicineRepository) FindExpiringBefore(ctx context.Context, tenantID uuid.UUID, until time.Time) ([]catalog.Medicine, error) {
	return r.findWhere(ctx, tenantID, "expiry_date ASC, name ASC", "expiry_date <= ?", catalog.CalendarDate(until))
}

// FindLowStock returns medicines with 0 < quantity <= low_stock_alert
func (r *GormMedicineRepository) FindLowStock(ctx context.Context, tenantID uuid.UUID) ([]catalog.Medicine, error) {
	return r.findWhere(ctx, tenantID, "quantity ASC, name ASC", "quantity > 0 AND quantity <= low_stock_alert")
}

// FindOutOfStock returns medicines with no units left
func (r *GormMedicineRepository) FindOutOfStock(ctx context.Context, tenantID uuid.UUID) ([]catalog.Medicine, error) {
	return r.findWhere(ctx, tenantID, "name ASC", "quantity = 0")
}

func (r *GormMedicineRepository) findWhere(ctx context.Context, tenantID uuid.UUID, order string, cond string, args ...any) ([]catalog.Medicine, error) {
	var rows []models.MedicineModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where(cond, args...).
		Order(order).
		Find(&rows).Error
	if err != nil {
		return nil, ClassifyError(err)
	}
	return models.MedicinesToDomain(rows), nil
}

// DistinctCategories returns the categories in use, alphabetically
func (r *GormMedicineRepository) DistinctCategories(ctx context.Context, tenantID uuid.UUID) ([]catalog.Category, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.MedicineModel{}).
		Where("tenant_id = ?", tenantID).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &names).Error
	if err != nil {
		return nil, ClassifyError(err)
	}
	out := make([]catalog.Category, len(names))
	for i, n := range names {
		out[i] = catalog.Category(n)
	}
	return out, nil
}

// Create inserts a new medicine. A batch clash that slipped past
// ExistsByBatchNo surfaces as ALREADY_EXISTS.
func (r *GormMedicineRepository) Create(ctx context.Context, m *catalog.Medicine) error {
	err := r.db.WithContext(ctx).Create(models.MedicineModelFromDomain(m)).Error
	if isUniqueViolation(err) {
		return shared.NewDomainError("ALREADY_EXISTS", "A medicine with batch number "+m.BatchNo+" already exists")
	}
	return ClassifyError(err)
}

// SaveWithLock writes an edited medicine if nobody changed it since it was
// read. m.Version is the new version; the row must still hold m.Version-1.
func (r *GormMedicineRepository) SaveWithLock(ctx context.Context, m *catalog.Medicine) error {
	model := models.MedicineModelFromDomain(m)
	result := r.db.WithContext(ctx).
		Model(&models.MedicineModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", m.TenantID, m.ID, m.Version-1).
		Updates(map[string]any{
			"name":             model.Name,
			"batch_no":         model.BatchNo,
			"category":         model.Category,
			"quantity":         model.Quantity,
			"price":            model.Price,
			"mrp":              model.MRP,
			"discount_percent": model.DiscountPercent,
			"expiry_date":      model.ExpiryDate,
			"low_stock_alert":  model.LowStockAlert,
			"supplier":         model.Supplier,
			"description":      model.Description,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if isUniqueViolation(result.Error) {
		return shared.NewDomainError("ALREADY_EXISTS", "A medicine with batch number "+m.BatchNo+" already exists")
	}
	if result.Error != nil {
		return ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteForTenant soft-deletes a medicine. Sale lines keep their frozen copy.
func (r *GormMedicineRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.MedicineModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errMedicineNotFound
	}
	return nil
}

// DecrementQuantity subtracts amount in a single conditional UPDATE. The
// quantity >= amount guard keeps stock from going negative even without a
// prior row lock. The version bump makes concurrent catalog edits based on
// the old quantity fail their optimistic check.
func (r *GormMedicineRepository) DecrementQuantity(ctx context.Context, tenantID, id uuid.UUID, amount int) error {
	if amount < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Decrement amount must be at least 1")
	}
	result := r.db.WithContext(ctx).
		Model(&models.MedicineModel{}).
		Where("tenant_id = ? AND id = ? AND quantity >= ?", tenantID, id, amount).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", amount),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

// likeTerm lower-cases q and wraps it for a substring LIKE match
func likeTerm(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	replacer := strings.NewReplacer(`%`, ``, `_`, ``)
	return "%" + strings.ToLower(replacer.Replace(q)) + "%"
}

var _ catalog.MedicineRepository = (*GormMedicineRepository)(nil)
