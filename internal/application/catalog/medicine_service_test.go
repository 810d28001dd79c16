package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var serviceNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*MedicineService, *MockMedicineRepository) {
	repo := new(MockMedicineRepository)
	svc := NewMedicineService(repo)
	svc.SetClock(func() time.Time { return serviceNow })
	return svc, repo
}

func createRequest() CreateMedicineRequest {
	return CreateMedicineRequest{
		Name:       "Ibuprofen 400mg",
		BatchNo:    "ibu-77",
		Category:   "Tablet",
		Quantity:   40,
		Price:      decimal.NewFromInt(12),
		MRP:        decimal.NewFromInt(15),
		ExpiryDate: serviceNow.AddDate(0, 8, 0),
	}
}

func existingMedicine(t *testing.T, tenantID uuid.UUID) *catalog.Medicine {
	t.Helper()
	m, err := catalog.NewMedicine(tenantID, catalog.MedicineInput{
		Name:       "Ibuprofen 400mg",
		BatchNo:    "IBU-77",
		Category:   catalog.CategoryTablet,
		Quantity:   40,
		Price:      decimal.NewFromInt(12),
		MRP:        decimal.NewFromInt(15),
		ExpiryDate: serviceNow.AddDate(0, 8, 0),
	}, serviceNow)
	require.NoError(t, err)
	return m
}

func TestMedicineService_Create(t *testing.T) {
	tenantID := uuid.New()

	t.Run("create medicine successfully", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("ExistsByBatchNo", mock.Anything, tenantID, "IBU-77", (*uuid.UUID)(nil)).Return(false, nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*catalog.Medicine")).Return(nil)

		resp, err := svc.Create(context.Background(), tenantID, createRequest())
		require.NoError(t, err)
		assert.Equal(t, "IBU-77", resp.BatchNo)
		assert.Equal(t, "inStock", resp.StockStatus)
		assert.Equal(t, serviceNow.AddDate(0, 8, 0).Format(DateLayout), resp.ExpiryDate)
		repo.AssertExpectations(t)
	})

	t.Run("fail on duplicate batch", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("ExistsByBatchNo", mock.Anything, tenantID, "IBU-77", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := svc.Create(context.Background(), tenantID, createRequest())
		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("fail on invalid category", func(t *testing.T) {
		svc, _ := newTestService()
		req := createRequest()
		req.Category = "Powder"

		_, err := svc.Create(context.Background(), tenantID, req)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestMedicineService_Update(t *testing.T) {
	tenantID := uuid.New()

	t.Run("update price successfully", func(t *testing.T) {
		svc, repo := newTestService()
		m := existingMedicine(t, tenantID)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, m.ID).Return(m, nil)
		repo.On("SaveWithLock", mock.Anything, m).Return(nil)

		price := decimal.NewFromInt(14)
		resp, err := svc.Update(context.Background(), tenantID, m.ID, UpdateMedicineRequest{Price: &price})
		require.NoError(t, err)
		assert.True(t, price.Equal(resp.Price))
		assert.Equal(t, 2, resp.Version)
		repo.AssertNotCalled(t, "ExistsByBatchNo", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fail on batch conflict with another medicine", func(t *testing.T) {
		svc, repo := newTestService()
		m := existingMedicine(t, tenantID)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, m.ID).Return(m, nil)
		repo.On("ExistsByBatchNo", mock.Anything, tenantID, "TAKEN-1", &m.ID).Return(true, nil)

		batch := "taken-1"
		_, err := svc.Update(context.Background(), tenantID, m.ID, UpdateMedicineRequest{BatchNo: &batch})
		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("fail on stale version", func(t *testing.T) {
		svc, repo := newTestService()
		m := existingMedicine(t, tenantID)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, m.ID).Return(m, nil)

		stale := 0
		_, err := svc.Update(context.Background(), tenantID, m.ID, UpdateMedicineRequest{Version: &stale})
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})

	t.Run("fail when medicine not found", func(t *testing.T) {
		svc, repo := newTestService()
		id := uuid.New()
		repo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := svc.Update(context.Background(), tenantID, id, UpdateMedicineRequest{})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestMedicineService_Restock(t *testing.T) {
	tenantID := uuid.New()
	svc, repo := newTestService()
	m := existingMedicine(t, tenantID)
	repo.On("FindByIDForTenant", mock.Anything, tenantID, m.ID).Return(m, nil)
	repo.On("SaveWithLock", mock.Anything, m).Return(nil)

	resp, err := svc.Restock(context.Background(), tenantID, m.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 50, resp.Quantity)

	_, err = svc.Restock(context.Background(), tenantID, m.ID, -1)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestMedicineService_List(t *testing.T) {
	tenantID := uuid.New()

	t.Run("list with defaults", func(t *testing.T) {
		svc, repo := newTestService()
		m := existingMedicine(t, tenantID)
		repo.On("FindAllForTenant", mock.Anything, tenantID, mock.MatchedBy(func(f catalog.MedicineFilter) bool {
			return f.Page == 1 && f.PageSize == 20 && f.Category == "" && f.StockStatus == ""
		})).Return([]catalog.Medicine{*m}, int64(1), nil)

		page, err := svc.List(context.Background(), tenantID, MedicineListFilter{})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("rejects unknown stock status", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.List(context.Background(), tenantID, MedicineListFilter{StockStatus: "plenty"})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestMedicineService_ExpiryList(t *testing.T) {
	tenantID := uuid.New()
	svc, repo := newTestService()

	expired := existingMedicine(t, tenantID)
	expired.ExpiryDate = catalog.CalendarDate(serviceNow.AddDate(0, 0, -2))
	soon := existingMedicine(t, tenantID)
	soon.ExpiryDate = catalog.CalendarDate(serviceNow.AddDate(0, 0, 10))

	horizon := catalog.CalendarDate(serviceNow).AddDate(0, 0, catalog.ExpiringSoonDays)
	repo.On("FindExpiringBefore", mock.Anything, tenantID, horizon).Return([]catalog.Medicine{*expired, *soon}, nil)

	resp, err := svc.ExpiryList(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, resp.Expired, 1)
	require.Len(t, resp.ExpiringSoon, 1)
	assert.Equal(t, expired.ID, resp.Expired[0].ID)
	assert.True(t, resp.Expired[0].IsExpired)
	assert.True(t, resp.ExpiringSoon[0].ExpiringSoon)
}

func TestMedicineService_Search(t *testing.T) {
	tenantID := uuid.New()
	svc, repo := newTestService()

	empty, err := svc.Search(context.Background(), tenantID, "")
	require.NoError(t, err)
	assert.Empty(t, empty)

	m := existingMedicine(t, tenantID)
	repo.On("Search", mock.Anything, tenantID, "ibu", catalog.CalendarDate(serviceNow), SearchLimit).Return([]catalog.Medicine{*m}, nil)
	found, err := svc.Search(context.Background(), tenantID, "ibu")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestMedicineService_BulkUpdate(t *testing.T) {
	tenantID := uuid.New()
	svc, repo := newTestService()

	ok := existingMedicine(t, tenantID)
	missing := uuid.New()
	repo.On("FindByIDForTenant", mock.Anything, tenantID, ok.ID).Return(ok, nil)
	repo.On("FindByIDForTenant", mock.Anything, tenantID, missing).Return(nil, shared.ErrNotFound)
	repo.On("SaveWithLock", mock.Anything, ok).Return(nil)

	qty := 3
	result, err := svc.BulkUpdate(context.Background(), tenantID, []BulkUpdateItem{
		{ID: ok.ID, UpdateMedicineRequest: UpdateMedicineRequest{Quantity: &qty}},
		{ID: missing, UpdateMedicineRequest: UpdateMedicineRequest{Quantity: &qty}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ok.ID}, result.Updated)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, missing, result.Failed[0].ID)
	assert.Equal(t, "NOT_FOUND", result.Failed[0].Code)
}

func TestLowStockAlertHandler(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := NewLowStockAlertHandler(zap.New(core))

	sale := &sales.Sale{TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New(), serviceNow), BillNumber: "BILL-000010"}
	event := sales.NewSaleCompletedEvent(sale, []sales.StockLevel{
		{MedicineID: uuid.New(), Name: "A", Remaining: 0, LowStockAlert: 5},
		{MedicineID: uuid.New(), Name: "B", Remaining: 4, LowStockAlert: 5},
		{MedicineID: uuid.New(), Name: "C", Remaining: 40, LowStockAlert: 5},
	}, serviceNow)

	require.NoError(t, h.Handle(context.Background(), event))
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "out_of_stock", logs.All()[0].ContextMap()["alert_type"])
	assert.Equal(t, "low_stock", logs.All()[1].ContextMap()["alert_type"])
	assert.Equal(t, []string{sales.EventTypeSaleCompleted}, h.EventTypes())
}

func TestLowStockAlertHandler_CountsAlerts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	bm, err := telemetry.NewBillingMetrics(provider.Meter("test"))
	require.NoError(t, err)

	h := NewLowStockAlertHandler(zap.NewNop()).WithMetrics(bm)
	sale := &sales.Sale{TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New(), serviceNow), BillNumber: "BILL-000011"}
	event := sales.NewSaleCompletedEvent(sale, []sales.StockLevel{
		{MedicineID: uuid.New(), Name: "A", Remaining: 0, LowStockAlert: 5},
		{MedicineID: uuid.New(), Name: "B", Remaining: 5, LowStockAlert: 5},
		{MedicineID: uuid.New(), Name: "C", Remaining: 6, LowStockAlert: 5},
	}, serviceNow)
	require.NoError(t, h.Handle(context.Background(), event))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "pharma_stock_alerts_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}
