package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/report"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/domain/tenant"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) StockCounts(ctx context.Context, tenantID uuid.UUID, today, horizon time.Time) (*report.StockCounts, error) {
	args := m.Called(ctx, tenantID, today, horizon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.StockCounts), args.Error(1)
}

func (m *MockReportRepository) SalesTotals(ctx context.Context, tenantID uuid.UUID, w report.Window) (*report.SalesTotals, error) {
	args := m.Called(ctx, tenantID, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.SalesTotals), args.Error(1)
}

func (m *MockReportRepository) SalePoints(ctx context.Context, tenantID uuid.UUID, w report.Window) ([]report.SalePoint, error) {
	args := m.Called(ctx, tenantID, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.SalePoint), args.Error(1)
}

func (m *MockReportRepository) TopMedicines(ctx context.Context, tenantID uuid.UUID, w report.Window, limit int) ([]report.MedicineSales, error) {
	args := m.Called(ctx, tenantID, w, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.MedicineSales), args.Error(1)
}

func (m *MockReportRepository) CategoryStock(ctx context.Context, tenantID uuid.UUID) ([]report.CategoryStock, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.CategoryStock), args.Error(1)
}

var _ report.Repository = (*MockReportRepository)(nil)

// expiringRepo serves only FindExpiringBefore; every other method panics
// through the nil embedded interface if reached.
type expiringRepo struct {
	catalog.MedicineRepository
	items []catalog.Medicine
}

func (r *expiringRepo) FindExpiringBefore(_ context.Context, _ uuid.UUID, _ time.Time) ([]catalog.Medicine, error) {
	return r.items, nil
}

var reportNow = time.Date(2026, 6, 15, 18, 30, 0, 0, time.UTC)

func newReportService(repo report.Repository, meds catalog.MedicineRepository) *ReportService {
	svc := NewReportService(repo, meds)
	svc.SetClock(func() time.Time { return reportNow })
	return svc
}

func TestReportService_Dashboard(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockReportRepository)
	today := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	repo.On("StockCounts", mock.Anything, tenantID, today, today.AddDate(0, 0, 30)).
		Return(&report.StockCounts{TotalMedicines: 12, TotalUnits: 340, LowStock: 2, OutOfStock: 1, Expired: 1, ExpiringSoon: 3}, nil)
	repo.On("SalesTotals", mock.Anything, tenantID, report.Window{From: today, To: today.AddDate(0, 0, 1)}).
		Return(&report.SalesTotals{BillCount: 4, Revenue: decimal.RequireFromString("512.40")}, nil)
	repo.On("SalesTotals", mock.Anything, tenantID, report.Window{}).
		Return(&report.SalesTotals{BillCount: 90, Revenue: decimal.RequireFromString("10400.00")}, nil)

	resp, err := newReportService(repo, nil).Dashboard(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), resp.TotalMedicines)
	assert.Equal(t, int64(4), resp.TodaySales)
	assert.Equal(t, "512.4", resp.TodayRevenue.String())
	assert.Equal(t, int64(90), resp.TotalSales)
	assert.Nil(t, resp.Store)
	repo.AssertExpectations(t)
}

// storeRepo serves a fixed profile lookup
type storeRepo struct {
	tenant.Repository
	store *tenant.Store
	err   error
}

func (r *storeRepo) FindByTenant(_ context.Context, _ uuid.UUID) (*tenant.Store, error) {
	return r.store, r.err
}

func TestReportService_DashboardStoreHeader(t *testing.T) {
	tenantID := uuid.New()
	today := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	newRepo := func() *MockReportRepository {
		repo := new(MockReportRepository)
		repo.On("StockCounts", mock.Anything, tenantID, today, today.AddDate(0, 0, 30)).Return(&report.StockCounts{}, nil)
		repo.On("SalesTotals", mock.Anything, tenantID, mock.Anything).Return(&report.SalesTotals{}, nil)
		return repo
	}

	t.Run("includes the saved profile", func(t *testing.T) {
		store, err := tenant.NewStore(tenantID, tenant.StoreInput{Name: "City Pharmacy", Address: "12 MG Road", Phone: "9876543210"}, reportNow)
		require.NoError(t, err)
		svc := newReportService(newRepo(), nil)
		svc.SetStoreRepository(&storeRepo{store: store})

		resp, err := svc.Dashboard(context.Background(), tenantID)
		require.NoError(t, err)
		require.NotNil(t, resp.Store)
		assert.Equal(t, "City Pharmacy", resp.Store.Name)
		assert.Equal(t, "9876543210", resp.Store.Phone)
	})

	t.Run("omits the header before a profile exists", func(t *testing.T) {
		svc := newReportService(newRepo(), nil)
		svc.SetStoreRepository(&storeRepo{err: shared.NewDomainError("NOT_FOUND", "Store profile not found")})

		resp, err := svc.Dashboard(context.Background(), tenantID)
		require.NoError(t, err)
		assert.Nil(t, resp.Store)
	})

	t.Run("fails on storage errors", func(t *testing.T) {
		svc := newReportService(newRepo(), nil)
		svc.SetStoreRepository(&storeRepo{err: shared.ErrStorageFailure})

		_, err := svc.Dashboard(context.Background(), tenantID)
		assert.True(t, errors.Is(err, shared.ErrStorageFailure))
	})
}

func TestReportService_SalesReport(t *testing.T) {
	tenantID := uuid.New()

	t.Run("group by month", func(t *testing.T) {
		repo := new(MockReportRepository)
		from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
		repo.On("SalePoints", mock.Anything, tenantID, report.Window{From: from, To: to.AddDate(0, 0, 1)}).Return([]report.SalePoint{
			{CreatedAt: time.Date(2026, 4, 3, 10, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(100), Discount: decimal.NewFromInt(5), Tax: decimal.Zero, Units: 3},
			{CreatedAt: time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(50), Discount: decimal.Zero, Tax: decimal.Zero, Units: 1},
			{CreatedAt: time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(30), Discount: decimal.Zero, Tax: decimal.NewFromInt(2), Units: 2},
		}, nil)

		resp, err := newReportService(repo, nil).SalesReport(context.Background(), tenantID, from, to, "month")
		require.NoError(t, err)
		require.Len(t, resp.Periods, 2)
		assert.Equal(t, "2026-04", resp.Periods[0].Period)
		assert.Equal(t, int64(2), resp.Periods[0].BillCount)
		assert.Equal(t, int64(4), resp.Periods[0].ItemsSold)
		assert.Equal(t, "75", resp.Periods[0].AverageBillAmount.String())
		assert.Equal(t, "2026-05", resp.Periods[1].Period)
		assert.Equal(t, int64(3), resp.TotalBills)
		assert.Equal(t, "180", resp.TotalRevenue.String())
		assert.Equal(t, "5", resp.TotalDiscount.String())
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		from := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
		_, err := newReportService(new(MockReportRepository), nil).SalesReport(context.Background(), tenantID, from, from.AddDate(0, 0, -1), "day")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("requires both dates", func(t *testing.T) {
		_, err := newReportService(new(MockReportRepository), nil).SalesReport(context.Background(), tenantID, time.Time{}, reportNow, "day")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestReportService_SalesStats(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockReportRepository)
	today := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	window := report.Window{From: today.AddDate(0, 0, -6), To: today.AddDate(0, 0, 1)}
	first, second := uuid.New(), uuid.New()

	repo.On("SalePoints", mock.Anything, tenantID, window).Return([]report.SalePoint{
		{CreatedAt: today.Add(-20 * time.Hour), Total: decimal.NewFromInt(10), Discount: decimal.Zero, Tax: decimal.Zero, Units: 1},
		{CreatedAt: today.Add(2 * time.Hour), Total: decimal.NewFromInt(20), Discount: decimal.Zero, Tax: decimal.Zero, Units: 2},
	}, nil)
	repo.On("TopMedicines", mock.Anything, tenantID, window, TopMedicinesLimit).Return([]report.MedicineSales{
		{MedicineID: first, Name: "Paracetamol", Quantity: 2, Revenue: decimal.NewFromInt(20)},
		{MedicineID: second, Name: "Cetirizine", Quantity: 1, Revenue: decimal.NewFromInt(10)},
	}, nil)

	resp, err := newReportService(repo, nil).SalesStats(context.Background(), tenantID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, resp.PeriodDays)
	assert.Len(t, resp.DailySales, 2)
	assert.Equal(t, int64(2), resp.BillCount)
	require.Len(t, resp.TopMedicines, 2)
	assert.Equal(t, 1, resp.TopMedicines[0].Rank)
	assert.Equal(t, first, resp.TopMedicines[0].MedicineID)

	_, err = newReportService(repo, nil).SalesStats(context.Background(), tenantID, 45)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestReportService_InventoryReport(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockReportRepository)
	repo.On("StockCounts", mock.Anything, tenantID, mock.Anything, mock.Anything).
		Return(&report.StockCounts{TotalMedicines: 3, TotalUnits: 60, LowStock: 1}, nil)
	repo.On("CategoryStock", mock.Anything, tenantID).Return([]report.CategoryStock{
		{Category: "Tablet", Medicines: 2, Units: 50, StockValue: decimal.RequireFromString("250.004")},
		{Category: "Syrup", Medicines: 1, Units: 10, StockValue: decimal.RequireFromString("95.5")},
	}, nil)

	resp, err := newReportService(repo, nil).InventoryReport(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, "345.5", resp.StockValue.String())
	require.Len(t, resp.Categories, 2)
	assert.Equal(t, "250", resp.Categories[0].StockValue.String())
}

func TestReportService_ExpiryReport(t *testing.T) {
	tenantID := uuid.New()
	mk := func(name string, expiry time.Time) catalog.Medicine {
		m, err := catalog.NewMedicine(tenantID, catalog.MedicineInput{
			Name:       name,
			BatchNo:    name + "-1",
			Quantity:   5,
			Price:      decimal.NewFromInt(1),
			MRP:        decimal.NewFromInt(1),
			ExpiryDate: expiry,
		}, reportNow)
		require.NoError(t, err)
		return *m
	}
	meds := &expiringRepo{items: []catalog.Medicine{
		mk("a", time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)),
		mk("b", time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)),
		mk("c", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)),
		mk("d", time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)),
	}}

	resp, err := newReportService(new(MockReportRepository), meds).ExpiryReport(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalExpired)
	assert.Equal(t, 3, resp.TotalExpiring)
	require.Len(t, resp.Months, 3)
	assert.Equal(t, "2026-05", resp.Months[0].Month)
	assert.Equal(t, 2, resp.Months[2].Count)
}
