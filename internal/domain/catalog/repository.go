package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
)

// MedicineFilter narrows a catalog listing
type MedicineFilter struct {
	shared.Filter
	Category    Category
	StockStatus StockStatus
}

// MedicineRepository is the Catalog Store port. Every method takes the
// owning tenant explicitly; there is no ambient tenant scope.
type MedicineRepository interface {
	// FindByIDForTenant finds a medicine by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Medicine, error)

	// FindByIDForUpdate is FindByIDForTenant plus a row lock held until
	// the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Medicine, error)

	// ExistsByBatchNo checks batch uniqueness, ignoring excludeID when set
	ExistsByBatchNo(ctx context.Context, tenantID uuid.UUID, batchNo string, excludeID *uuid.UUID) (bool, error)

	// FindAllForTenant lists medicines with paging and returns the total count
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter MedicineFilter) ([]Medicine, int64, error)

	// Search matches name, batch or supplier among sellable medicines
	Search(ctx context.Context, tenantID uuid.UUID, query string, today time.Time, limit int) ([]Medicine, error)

	// FindExpiringBefore returns medicines whose expiry date is on or before until
	FindExpiringBefore(ctx context.Context, tenantID uuid.UUID, until time.Time) ([]Medicine, error)

	// FindLowStock returns medicines with 0 < quantity <= low_stock_alert
	FindLowStock(ctx context.Context, tenantID uuid.UUID) ([]Medicine, error)

	// FindOutOfStock returns medicines with quantity 0
	FindOutOfStock(ctx context.Context, tenantID uuid.UUID) ([]Medicine, error)

	// DistinctCategories returns the categories in use by a tenant
	DistinctCategories(ctx context.Context, tenantID uuid.UUID) ([]Category, error)

	// Create inserts a new medicine
	Create(ctx context.Context, m *Medicine) error

	// SaveWithLock updates a medicine if its version has not moved
	SaveWithLock(ctx context.Context, m *Medicine) error

	// DeleteForTenant soft-deletes a medicine
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// DecrementQuantity subtracts amount if at least amount units remain.
	// It returns shared.ErrInsufficientStock otherwise.
	DecrementQuantity(ctx context.Context, tenantID, id uuid.UUID, amount int) error
}
