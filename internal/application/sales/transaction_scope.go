package sales

import (
	"context"

	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the catalog and ledger
// repositories. Everything done through the repositories handed to fn is
// committed together when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to one transaction
type TransactionalRepositories interface {
	// MedicineRepo returns the Catalog Store scoped to the current transaction
	MedicineRepo() catalog.MedicineRepository
	// SaleRepo returns the Sale Ledger scoped to the current transaction
	SaleRepo() sales.SaleRepository
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Only suitable for tests that do not exercise rollback.
type NoOpTransactionScope struct {
	medicineRepo catalog.MedicineRepository
	saleRepo     sales.SaleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(medicineRepo catalog.MedicineRepository, saleRepo sales.SaleRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{medicineRepo: medicineRepo, saleRepo: saleRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// MedicineRepo returns the medicine repository.
func (s *NoOpTransactionScope) MedicineRepo() catalog.MedicineRepository {
	return s.medicineRepo
}

// SaleRepo returns the sale repository.
func (s *NoOpTransactionScope) SaleRepo() sales.SaleRepository {
	return s.saleRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
