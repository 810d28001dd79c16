package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
)

// SaleFilter narrows a bill listing
type SaleFilter struct {
	shared.Filter
	From         *time.Time
	To           *time.Time
	CustomerName string
}

// SaleRepository is the Sale Ledger port. It has no update or delete.
type SaleRepository interface {
	// Insert appends a numbered sale together with its lines
	Insert(ctx context.Context, sale *Sale) error

	// FindByIDForTenant finds a sale by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindByBillNumber finds a sale by its bill number within a tenant
	FindByBillNumber(ctx context.Context, tenantID uuid.UUID, billNumber string) (*Sale, error)

	// FindAllForTenant lists sales with paging and returns the total count
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SaleFilter) ([]Sale, int64, error)

	// CountAll counts every sale in the ledger, across tenants
	CountAll(ctx context.Context) (int64, error)

	// NextBillSequence returns one past the highest sequence in the ledger.
	// Two concurrent callers may see the same value; the loser's Insert
	// fails with shared.ErrConflictRetryable.
	NextBillSequence(ctx context.Context) (int64, error)
}
