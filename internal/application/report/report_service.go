package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/pharmabill/backend/internal/application/catalog"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/report"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/domain/tenant"
	"github.com/shopspring/decimal"
)

// TopMedicinesLimit caps the ranking returned with sales statistics
const TopMedicinesLimit = 10

// ReportService provides read-only reporting over the catalog and sale ledger
type ReportService struct {
	reportRepo   report.Repository
	medicineRepo catalog.MedicineRepository
	storeRepo    tenant.Repository
	now          func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(reportRepo report.Repository, medicineRepo catalog.MedicineRepository) *ReportService {
	return &ReportService{
		reportRepo:   reportRepo,
		medicineRepo: medicineRepo,
		now:          time.Now,
	}
}

// SetClock replaces the clock used to resolve "today"
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// SetStoreRepository enables the store header on the dashboard
func (s *ReportService) SetStoreRepository(repo tenant.Repository) {
	s.storeRepo = repo
}

// Dashboard returns stock counts plus today's and lifetime sales
func (s *ReportService) Dashboard(ctx context.Context, tenantID uuid.UUID) (*DashboardResponse, error) {
	today := catalog.CalendarDate(s.now())
	horizon := today.AddDate(0, 0, catalog.ExpiringSoonDays)

	counts, err := s.reportRepo.StockCounts(ctx, tenantID, today, horizon)
	if err != nil {
		return nil, err
	}
	todays, err := s.reportRepo.SalesTotals(ctx, tenantID, report.Window{From: today, To: today.AddDate(0, 0, 1)})
	if err != nil {
		return nil, err
	}
	lifetime, err := s.reportRepo.SalesTotals(ctx, tenantID, report.Window{})
	if err != nil {
		return nil, err
	}

	header, err := s.storeHeader(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &DashboardResponse{
		Store:          header,
		TotalMedicines: counts.TotalMedicines,
		TotalUnits:     counts.TotalUnits,
		LowStock:       counts.LowStock,
		OutOfStock:     counts.OutOfStock,
		Expired:        counts.Expired,
		ExpiringSoon:   counts.ExpiringSoon,
		TodaySales:     todays.BillCount,
		TodayRevenue:   todays.Revenue,
		TotalSales:     lifetime.BillCount,
		TotalRevenue:   lifetime.Revenue,
	}, nil
}

func (s *ReportService) storeHeader(ctx context.Context, tenantID uuid.UUID) (*StoreHeader, error) {
	if s.storeRepo == nil {
		return nil, nil
	}
	store, err := s.storeRepo.FindByTenant(ctx, tenantID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &StoreHeader{Name: store.Name, Address: store.Address, Phone: store.Phone}, nil
}

// SalesReport buckets bills created between startDate and endDate (both
// inclusive calendar days) by day, ISO week or month
func (s *ReportService) SalesReport(ctx context.Context, tenantID uuid.UUID, startDate, endDate time.Time, groupBy string) (*SalesReportResponse, error) {
	if startDate.IsZero() || endDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Start date and end date are required")
	}
	group, err := report.ParseGroupBy(groupBy)
	if err != nil {
		return nil, err
	}
	from := catalog.CalendarDate(startDate)
	to := catalog.CalendarDate(endDate)
	if to.Before(from) {
		return nil, shared.NewDomainError("INVALID_INPUT", "End date must not be before start date")
	}

	points, err := s.reportRepo.SalePoints(ctx, tenantID, report.Window{From: from, To: to.AddDate(0, 0, 1)})
	if err != nil {
		return nil, err
	}

	resp := &SalesReportResponse{
		StartDate:     from.Format(catalogapp.DateLayout),
		EndDate:       to.Format(catalogapp.DateLayout),
		GroupBy:       string(group),
		Periods:       bucketSales(points, group),
		TotalRevenue:  decimal.Zero,
		TotalDiscount: decimal.Zero,
	}
	for _, p := range resp.Periods {
		resp.TotalBills += p.BillCount
		resp.TotalRevenue = resp.TotalRevenue.Add(p.Revenue)
		resp.TotalDiscount = resp.TotalDiscount.Add(p.Discount)
	}
	return resp, nil
}

// SalesStats returns daily sales and the top sellers over the last
// periodDays days, today included
func (s *ReportService) SalesStats(ctx context.Context, tenantID uuid.UUID, periodDays int) (*SalesStatsResponse, error) {
	days, err := report.ParseStatsPeriod(periodDays)
	if err != nil {
		return nil, err
	}
	today := catalog.CalendarDate(s.now())
	window := report.Window{From: today.AddDate(0, 0, -(days - 1)), To: today.AddDate(0, 0, 1)}

	points, err := s.reportRepo.SalePoints(ctx, tenantID, window)
	if err != nil {
		return nil, err
	}
	top, err := s.reportRepo.TopMedicines(ctx, tenantID, window, TopMedicinesLimit)
	if err != nil {
		return nil, err
	}

	resp := &SalesStatsResponse{
		PeriodDays:   days,
		DailySales:   bucketSales(points, report.GroupByDay),
		Revenue:      decimal.Zero,
		TopMedicines: make([]TopMedicineResponse, len(top)),
	}
	for _, p := range resp.DailySales {
		resp.BillCount += p.BillCount
		resp.Revenue = resp.Revenue.Add(p.Revenue)
	}
	for i, m := range top {
		resp.TopMedicines[i] = TopMedicineResponse{
			Rank:       i + 1,
			MedicineID: m.MedicineID,
			Name:       m.Name,
			Quantity:   m.Quantity,
			Revenue:    m.Revenue,
		}
	}
	return resp, nil
}

// InventoryReport values the live catalog per category
func (s *ReportService) InventoryReport(ctx context.Context, tenantID uuid.UUID) (*InventoryReportResponse, error) {
	today := catalog.CalendarDate(s.now())
	counts, err := s.reportRepo.StockCounts(ctx, tenantID, today, today.AddDate(0, 0, catalog.ExpiringSoonDays))
	if err != nil {
		return nil, err
	}
	categories, err := s.reportRepo.CategoryStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	resp := &InventoryReportResponse{
		TotalMedicines: counts.TotalMedicines,
		TotalUnits:     counts.TotalUnits,
		StockValue:     decimal.Zero,
		LowStock:       counts.LowStock,
		OutOfStock:     counts.OutOfStock,
		Categories:     make([]CategoryStockResponse, len(categories)),
	}
	for i, c := range categories {
		value := c.StockValue.Round(2)
		resp.Categories[i] = CategoryStockResponse{
			Category:   c.Category,
			Medicines:  c.Medicines,
			Units:      c.Units,
			StockValue: value,
		}
		resp.StockValue = resp.StockValue.Add(value)
	}
	return resp, nil
}

// ExpiryReport groups expired and soon-expiring medicines by expiry month
func (s *ReportService) ExpiryReport(ctx context.Context, tenantID uuid.UUID) (*ExpiryReportResponse, error) {
	now := s.now()
	horizon := catalog.CalendarDate(now).AddDate(0, 0, catalog.ExpiringSoonDays)
	found, err := s.medicineRepo.FindExpiringBefore(ctx, tenantID, horizon)
	if err != nil {
		return nil, err
	}

	resp := &ExpiryReportResponse{Months: []ExpiryMonthResponse{}}
	index := map[string]int{}
	for i := range found {
		m := &found[i]
		if m.IsExpired(now) {
			resp.TotalExpired++
		} else {
			resp.TotalExpiring++
		}

		month := m.ExpiryDate.Format("2006-01")
		pos, ok := index[month]
		if !ok {
			pos = len(resp.Months)
			index[month] = pos
			resp.Months = append(resp.Months, ExpiryMonthResponse{Month: month, Medicines: []catalogapp.MedicineResponse{}})
		}
		resp.Months[pos].Medicines = append(resp.Months[pos].Medicines, catalogapp.ToMedicineResponse(m, now))
		resp.Months[pos].Count++
	}
	return resp, nil
}

// bucketSales folds points, which arrive ordered by creation time, into
// consecutive periods
func bucketSales(points []report.SalePoint, group report.GroupBy) []SalesPeriodResponse {
	periods := []SalesPeriodResponse{}
	for _, p := range points {
		key := group.PeriodKey(p.CreatedAt.UTC())
		if n := len(periods); n == 0 || periods[n-1].Period != key {
			periods = append(periods, SalesPeriodResponse{
				Period:   key,
				Revenue:  decimal.Zero,
				Discount: decimal.Zero,
				Tax:      decimal.Zero,
			})
		}
		cur := &periods[len(periods)-1]
		cur.BillCount++
		cur.Revenue = cur.Revenue.Add(p.Total)
		cur.Discount = cur.Discount.Add(p.Discount)
		cur.Tax = cur.Tax.Add(p.Tax)
		cur.ItemsSold += p.Units
	}
	for i := range periods {
		periods[i].AverageBillAmount = periods[i].Revenue.
			Div(decimal.NewFromInt(periods[i].BillCount)).Round(2)
	}
	return periods
}
