package catalog

import (
	"context"
	"fmt"

	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LowStockAlertHandler reacts to committed sales that leave a medicine at or
// below its alert threshold
type LowStockAlertHandler struct {
	logger  *zap.Logger
	metrics *telemetry.BillingMetrics
}

// NewLowStockAlertHandler creates a new handler for SaleCompleted events
func NewLowStockAlertHandler(logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{logger: logger}
}

// WithMetrics sets the metrics collector
func (h *LowStockAlertHandler) WithMetrics(m *telemetry.BillingMetrics) *LowStockAlertHandler {
	h.metrics = m
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{sales.EventTypeSaleCompleted}
}

// Handle logs one warning per medicine that is now low or out of stock
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*sales.SaleCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T for %s", event, event.EventType())
	}

	for _, level := range completed.StockAfter {
		alert := ""
		switch {
		case level.Remaining == 0:
			alert = "out_of_stock"
		case level.Remaining <= level.LowStockAlert:
			alert = "low_stock"
		default:
			continue
		}

		h.logger.Warn("stock alert after sale",
			zap.String("tenant_id", event.TenantID().String()),
			zap.String("bill_number", completed.BillNumber),
			zap.String("medicine_id", level.MedicineID.String()),
			zap.String("medicine_name", level.Name),
			zap.String("batch_no", level.BatchNo),
			zap.Int("remaining", level.Remaining),
			zap.Int("threshold", level.LowStockAlert),
			zap.String("alert_type", alert),
		)
		if h.metrics != nil {
			h.metrics.RecordStockAlert(ctx, event.TenantID(), alert)
		}
	}
	return nil
}

var _ shared.EventHandler = (*LowStockAlertHandler)(nil)
