package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// BillingMetrics counts bills, units and stock alerts. A nil *BillingMetrics
// records nothing, so callers never need to guard on it.
type BillingMetrics struct {
	salesCommitted *Counter
	salesAborted   *Counter
	retries        *Counter
	unitsSold      *Counter
	stockAlerts    *Counter
	billAmount     *Histogram
}

// NewBillingMetrics registers the billing instruments on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		bm  BillingMetrics
		err error
	)
	if bm.salesCommitted, err = NewCounter(meter, "pharma_sales_committed_total", "Bills committed", "{bills}"); err != nil {
		return nil, err
	}
	if bm.salesAborted, err = NewCounter(meter, "pharma_sales_aborted_total", "Bills aborted, by error code", "{bills}"); err != nil {
		return nil, err
	}
	if bm.retries, err = NewCounter(meter, "pharma_billing_retries_total", "Bill transactions retried after a storage conflict", "{retries}"); err != nil {
		return nil, err
	}
	if bm.unitsSold, err = NewCounter(meter, "pharma_units_sold_total", "Medicine units sold", "{units}"); err != nil {
		return nil, err
	}
	if bm.stockAlerts, err = NewCounter(meter, "pharma_stock_alerts_total", "Medicines left low or out of stock by a sale", "{alerts}"); err != nil {
		return nil, err
	}
	if bm.billAmount, err = NewHistogram(meter, "pharma_bill_amount", "Bill totals", "{currency}", BillAmountBuckets...); err != nil {
		return nil, err
	}
	return &bm, nil
}

// RecordSaleCommitted counts a committed bill with its total and units
func (bm *BillingMetrics) RecordSaleCommitted(ctx context.Context, tenantID uuid.UUID, total decimal.Decimal, units int) {
	if bm == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())
	bm.salesCommitted.Inc(ctx, tenant)
	bm.unitsSold.Add(ctx, int64(units), tenant)
	bm.billAmount.Record(ctx, total.InexactFloat64(), tenant)
}

// RecordSaleAborted counts a bill that was not committed
func (bm *BillingMetrics) RecordSaleAborted(ctx context.Context, tenantID uuid.UUID, code string) {
	if bm == nil {
		return
	}
	if code == "" {
		code = "UNKNOWN"
	}
	bm.salesAborted.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrErrorCode.String(code))
}

// RecordRetry counts one retried bill transaction
func (bm *BillingMetrics) RecordRetry(ctx context.Context, tenantID uuid.UUID) {
	if bm == nil {
		return
	}
	bm.retries.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordStockAlert counts a low_stock or out_of_stock alert
func (bm *BillingMetrics) RecordStockAlert(ctx context.Context, tenantID uuid.UUID, alert string) {
	if bm == nil {
		return
	}
	bm.stockAlerts.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrAlertType.String(alert))
}

// MetricsError is returned when metrics cannot be set up
type MetricsError struct {
	Message string
}

func (e *MetricsError) Error() string {
	return e.Message
}

// ErrMeterNil is returned when a nil meter is passed in
var ErrMeterNil = &MetricsError{Message: "meter cannot be nil"}
