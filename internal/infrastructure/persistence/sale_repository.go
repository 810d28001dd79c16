package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errSaleNotFound = shared.NewDomainError("NOT_FOUND", "Sale not found")

// GormSaleRepository implements sales.SaleRepository using GORM. The ledger
// is append-only: there is no update or delete path.
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Insert writes the sale header and then its lines. Call it inside a
// transaction; a header without lines must never be committed.
func (r *GormSaleRepository) Insert(ctx context.Context, sale *sales.Sale) error {
	if sale.BillNumber == "" || sale.BillSequence < 1 {
		return shared.NewDomainError("INVALID_STATE", "Sale has no bill number")
	}
	if len(sale.Lines) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Sale has no lines")
	}

	model := models.SaleModelFromDomain(sale)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return ClassifyError(err)
	}
	if err := db.Create(&model.Lines).Error; err != nil {
		return ClassifyError(err)
	}
	return nil
}

// FindByIDForTenant finds a sale by ID within a tenant
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	return r.findOne(ctx, "tenant_id = ? AND id = ?", tenantID, id)
}

// FindByBillNumber finds a sale by its bill number within a tenant
func (r *GormSaleRepository) FindByBillNumber(ctx context.Context, tenantID uuid.UUID, billNumber string) (*sales.Sale, error) {
	return r.findOne(ctx, "tenant_id = ? AND bill_number = ?", tenantID, billNumber)
}

func (r *GormSaleRepository) findOne(ctx context.Context, cond string, args ...any) (*sales.Sale, error) {
	var model models.SaleModel
	err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where(cond, args...).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errSaleNotFound
	}
	if err != nil {
		return nil, ClassifyError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists sales with date and customer filters
func (r *GormSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, int64, error) {
	f := filter.Filter.Normalize()
	q := r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("tenant_id = ?", tenantID)

	if filter.From != nil {
		q = q.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", filter.To.UTC())
	}
	if term := likeTerm(filter.CustomerName); term != "" {
		q = q.Where("LOWER(customer_name) LIKE ? OR LOWER(bill_number) LIKE ?", term, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, ClassifyError(err)
	}

	var rows []models.SaleModel
	if err := q.Preload("Lines", orderedLines).
		Clauses(orderBy(f, SaleSortColumns, "created_at")).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, ClassifyError(err)
	}
	return models.SalesToDomain(rows), total, nil
}

// CountAll counts every sale in the ledger across tenants
func (r *GormSaleRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).Count(&count).Error; err != nil {
		return 0, ClassifyError(err)
	}
	return count, nil
}

// NextBillSequence reads MAX(bill_sequence)+1. It takes no lock: the unique
// index on bill_sequence rejects the second of two racing inserts and the
// caller retries with a fresh read.
func (r *GormSaleRepository) NextBillSequence(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Select("COALESCE(MAX(bill_sequence), 0) + 1").
		Scan(&next).Error
	if err != nil {
		return 0, ClassifyError(err)
	}
	return next, nil
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
