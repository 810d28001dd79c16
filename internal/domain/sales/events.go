package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EventTypeSaleCompleted is published after a bill commits
const EventTypeSaleCompleted = "sales.sale_completed"

// StockLevel is a medicine's quantity right after the sale's decrement
type StockLevel struct {
	MedicineID    uuid.UUID
	Name          string
	BatchNo       string
	Remaining     int
	LowStockAlert int
}

// SaleCompletedEvent carries what downstream consumers need about a committed bill
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID
	BillNumber string
	Total      decimal.Decimal
	Units      int
	StockAfter []StockLevel
}

// RecordCompleted queues a SaleCompleted event on the sale. The coordinator
// publishes queued events only after the transaction commits.
func (s *Sale) RecordCompleted(stockAfter []StockLevel, at time.Time) {
	s.AddDomainEvent(NewSaleCompletedEvent(s, stockAfter, at))
}

// NewSaleCompletedEvent builds the event for a committed sale
func NewSaleCompletedEvent(s *Sale, stockAfter []StockLevel, at time.Time) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, s.ID, s.TenantID, at),
		SaleID:          s.ID,
		BillNumber:      s.BillNumber,
		Total:           s.Total,
		Units:           s.TotalUnits(),
		StockAfter:      stockAfter,
	}
}
