package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/domain/tenant"
	"github.com/pharmabill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errStoreNotFound = shared.NewDomainError("NOT_FOUND", "Store profile not found")

// GormTenantRepository implements tenant.Repository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByTenant finds the profile whose ID is the tenant ID
func (r *GormTenantRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*tenant.Store, error) {
	var model models.TenantModel
	err := r.db.WithContext(ctx).Where("id = ?", tenantID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errStoreNotFound
	}
	if err != nil {
		return nil, ClassifyError(err)
	}
	return model.ToDomain(), nil
}

// Save upserts the profile. created_at is kept from the first insert.
func (r *GormTenantRepository) Save(ctx context.Context, store *tenant.Store) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "address", "phone", "updated_at"}),
	}).Create(models.TenantModelFromDomain(store)).Error
	return ClassifyError(err)
}

var _ tenant.Repository = (*GormTenantRepository)(nil)
