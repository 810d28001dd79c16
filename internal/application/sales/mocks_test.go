package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockMedicineRepository is a mock implementation of catalog.MedicineRepository
type MockMedicineRepository struct {
	mock.Mock
}

func (m *MockMedicineRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Medicine, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Medicine, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) ExistsByBatchNo(ctx context.Context, tenantID uuid.UUID, batchNo string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, batchNo, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMedicineRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter catalog.MedicineFilter) ([]catalog.Medicine, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]catalog.Medicine), args.Get(1).(int64), args.Error(2)
}

func (m *MockMedicineRepository) Search(ctx context.Context, tenantID uuid.UUID, query string, today time.Time, limit int) ([]catalog.Medicine, error) {
	args := m.Called(ctx, tenantID, query, today, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) FindExpiringBefore(ctx context.Context, tenantID uuid.UUID, until time.Time) ([]catalog.Medicine, error) {
	args := m.Called(ctx, tenantID, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) FindLowStock(ctx context.Context, tenantID uuid.UUID) ([]catalog.Medicine, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) FindOutOfStock(ctx context.Context, tenantID uuid.UUID) ([]catalog.Medicine, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) DistinctCategories(ctx context.Context, tenantID uuid.UUID) ([]catalog.Category, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockMedicineRepository) Create(ctx context.Context, med *catalog.Medicine) error {
	return m.Called(ctx, med).Error(0)
}

func (m *MockMedicineRepository) SaveWithLock(ctx context.Context, med *catalog.Medicine) error {
	return m.Called(ctx, med).Error(0)
}

func (m *MockMedicineRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockMedicineRepository) DecrementQuantity(ctx context.Context, tenantID, id uuid.UUID, amount int) error {
	return m.Called(ctx, tenantID, id, amount).Error(0)
}

// MockSaleRepository is a mock implementation of sales.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) Insert(ctx context.Context, sale *sales.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByBillNumber(ctx context.Context, tenantID uuid.UUID, billNumber string) (*sales.Sale, error) {
	args := m.Called(ctx, tenantID, billNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]sales.Sale), args.Get(1).(int64), args.Error(2)
}

func (m *MockSaleRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) NextBillSequence(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher captures published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

var _ catalog.MedicineRepository = (*MockMedicineRepository)(nil)
var _ sales.SaleRepository = (*MockSaleRepository)(nil)
