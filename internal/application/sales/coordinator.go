package sales

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/infrastructure/logger"
	"github.com/pharmabill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// State is a step of the billing transaction
type State string

const (
	StateStarted    State = "started"
	StateValidating State = "validating"
	StatePricing    State = "pricing"
	StateNumbering  State = "numbering"
	StateCommitting State = "committing"
	StateCommitted  State = "committed"
	StateAborted    State = "aborted"
)

// CoordinatorConfig tunes conflict retries
type CoordinatorConfig struct {
	// MaxRetries is how many times a CONFLICT_RETRYABLE attempt is re-run
	// from scratch before it surfaces as STORAGE_FAILURE
	MaxRetries int
	// RetryBackoff is the base delay between attempts; each retry waits
	// attempt*RetryBackoff plus jitter
	RetryBackoff time.Duration
}

// DefaultCoordinatorConfig returns the production defaults
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MaxRetries:   3,
		RetryBackoff: 20 * time.Millisecond,
	}
}

// Coordinator runs a sale as one all-or-nothing unit of work: lock and
// validate every catalog line, price it, number it, insert the bill and
// decrement stock. Nothing is visible to other transactions until commit.
type Coordinator struct {
	scope          TransactionScope
	cfg            CoordinatorConfig
	now            func() time.Time
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BillingMetrics
}

// NewCoordinator creates a billing coordinator
func NewCoordinator(scope TransactionScope, cfg CoordinatorConfig, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Coordinator{
		scope:  scope,
		cfg:    cfg,
		now:    time.Now,
		logger: log.Named("billing"),
	}
}

// SetClock replaces the clock used for expiry checks and timestamps
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// SetEventPublisher sets the publisher for SaleCompleted events
func (c *Coordinator) SetEventPublisher(publisher shared.EventPublisher) {
	c.eventPublisher = publisher
}

// SetBillingMetrics sets the billing metrics collector
func (c *Coordinator) SetBillingMetrics(m *telemetry.BillingMetrics) {
	c.metrics = m
}

// run tracks one attempt through the state machine
type run struct {
	state State
	log   *zap.Logger
}

func (r *run) enter(s State) {
	r.state = s
	r.log.Debug("billing state", zap.String("state", string(s)))
}

// CreateSale validates, prices, numbers and commits a bill for tenantID.
// Line-attributable failures are returned as *sales.LineError wrapping a
// shared.DomainError.
func (c *Coordinator) CreateSale(ctx context.Context, tenantID uuid.UUID, req CreateSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "billing.create_sale",
		telemetry.WithAttribute("tenant_id", tenantID.String()),
		telemetry.WithAttribute("line_count", len(req.Items)),
	)
	defer span.End()

	started := c.now()
	log := logger.WithTraceContext(ctx, c.logger).With(zap.String("tenant_id", tenantID.String()))

	if err := validateRequest(tenantID, req); err != nil {
		c.aborted(ctx, log, tenantID, StateStarted, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		sale *sales.Sale
		err  error
	)
	for attempt := 0; ; attempt++ {
		r := &run{log: log.With(zap.Int("attempt", attempt+1))}
		sale, err = c.attempt(ctx, tenantID, req, r)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConflictRetryable) {
			c.aborted(ctx, log, tenantID, r.state, err)
			telemetry.RecordError(span, err)
			return nil, err
		}
		if attempt >= c.cfg.MaxRetries {
			err = shared.NewDomainError("STORAGE_FAILURE", "Bill could not be committed after repeated storage conflicts")
			c.aborted(ctx, log, tenantID, r.state, err)
			telemetry.RecordError(span, err)
			return nil, err
		}

		log.Info("retrying bill after storage conflict",
			zap.Int("attempt", attempt+1),
			zap.String("state", string(r.state)),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordRetry(ctx, tenantID)
		}
		if werr := c.backoff(ctx, attempt); werr != nil {
			c.aborted(ctx, log, tenantID, r.state, werr)
			telemetry.RecordError(span, werr)
			return nil, werr
		}
	}

	telemetry.AddSpanAttributes(span,
		telemetry.WithAttribute("bill_number", sale.BillNumber),
		telemetry.WithAttribute("state", string(StateCommitted)),
	)
	log.Info("bill committed",
		zap.String("bill_number", sale.BillNumber),
		zap.String("sale_id", sale.ID.String()),
		zap.String("total", sale.Total.StringFixed(sales.CurrencyPlaces)),
		zap.Duration("elapsed", c.now().Sub(started)),
	)
	if c.metrics != nil {
		c.metrics.RecordSaleCommitted(ctx, tenantID, sale.Total, sale.TotalUnits())
	}
	c.publish(ctx, sale)

	resp := ToSaleResponse(sale)
	return &resp, nil
}

// attempt is one pass through Started..Committed inside a single transaction
func (c *Coordinator) attempt(ctx context.Context, tenantID uuid.UUID, req CreateSaleRequest, r *run) (*sales.Sale, error) {
	var out *sales.Sale

	r.enter(StateStarted)
	err := c.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		medicines := repos.MedicineRepo()
		ledger := repos.SaleRepo()
		now := c.now()

		r.enter(StateValidating)
		locked, err := c.lockAndValidate(ctx, tenantID, req.Items, medicines, now)
		if err != nil {
			return err
		}

		r.enter(StatePricing)
		sale, err := c.price(tenantID, req, locked, now)
		if err != nil {
			return err
		}

		r.enter(StateNumbering)
		seq, err := ledger.NextBillSequence(ctx)
		if err != nil {
			return err
		}
		if err := sale.AssignNumber(seq); err != nil {
			return err
		}

		r.enter(StateCommitting)
		if err := sales.VerifySale(sale); err != nil {
			return err
		}
		if err := ledger.Insert(ctx, sale); err != nil {
			return err
		}
		for i, line := range sale.Lines {
			if err := medicines.DecrementQuantity(ctx, tenantID, line.MedicineID, line.Quantity); err != nil {
				return lineError(i, line.MedicineID, err)
			}
		}

		sale.RecordCompleted(stockAfter(sale, locked), now)
		out = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.enter(StateCommitted)
	return out, nil
}

// lockAndValidate row-locks every distinct medicine in ID order, then runs
// the stock guard per line against the cumulative quantity requested so far.
func (c *Coordinator) lockAndValidate(
	ctx context.Context,
	tenantID uuid.UUID,
	items []SaleItemInput,
	medicines catalog.MedicineRepository,
	now time.Time,
) (map[uuid.UUID]*catalog.Medicine, error) {
	firstLine := make(map[uuid.UUID]int, len(items))
	for i, item := range items {
		if _, seen := firstLine[item.MedicineID]; !seen {
			firstLine[item.MedicineID] = i
		}
	}
	ids := make([]uuid.UUID, 0, len(firstLine))
	for id := range firstLine {
		ids = append(ids, id)
	}
	// A fixed lock order keeps two bills over the same medicines from
	// deadlocking each other.
	sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })

	locked := make(map[uuid.UUID]*catalog.Medicine, len(ids))
	for _, id := range ids {
		m, err := medicines.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return nil, lineError(firstLine[id], id, err)
		}
		if !m.BelongsTo(tenantID) {
			return nil, lineError(firstLine[id], id, shared.NewDomainError("NOT_FOUND", "Medicine not found"))
		}
		locked[id] = m
	}

	requested := make(map[uuid.UUID]int, len(ids))
	for i, item := range items {
		requested[item.MedicineID] += item.Quantity
		if err := sales.CheckSellable(locked[item.MedicineID], requested[item.MedicineID], now); err != nil {
			return nil, lineError(i, item.MedicineID, err)
		}
	}
	return locked, nil
}

// price freezes name, batch and prices from the locked rows and computes
// every line and the bill totals
func (c *Coordinator) price(tenantID uuid.UUID, req CreateSaleRequest, locked map[uuid.UUID]*catalog.Medicine, now time.Time) (*sales.Sale, error) {
	lines := make([]sales.SaleLine, len(req.Items))
	for i, item := range req.Items {
		m := locked[item.MedicineID]
		discount := m.DiscountPercent
		if item.DiscountPercent != nil {
			discount = *item.DiscountPercent
		}
		lines[i] = sales.SaleLine{
			MedicineID:      m.ID,
			Name:            m.Name,
			BatchNo:         m.BatchNo,
			Quantity:        item.Quantity,
			Price:           m.Price,
			MRP:             m.MRP,
			DiscountPercent: discount,
		}
		if err := sales.PriceLine(&lines[i]); err != nil {
			return nil, lineError(i, item.MedicineID, err)
		}
	}

	sale, err := sales.NewSale(tenantID, sales.SaleDraft{
		Customer: sales.Customer{
			Name:   req.CustomerName,
			Mobile: req.CustomerMobile,
			Email:  req.CustomerEmail,
		},
		Lines:         lines,
		Discount:      req.Discount,
		Tax:           req.Tax,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: req.PaymentStatus,
	}, now)
	if err != nil {
		return nil, err
	}
	if req.CashierID != uuid.Nil {
		sale.SetCreatedBy(req.CashierID)
	}
	return sale, nil
}

func (c *Coordinator) backoff(ctx context.Context, attempt int) error {
	delay := c.cfg.RetryBackoff * time.Duration(attempt+1)
	if c.cfg.RetryBackoff > 0 {
		delay += time.Duration(rand.Int64N(int64(c.cfg.RetryBackoff)))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return shared.NewDomainError("STORAGE_FAILURE", "Request cancelled before the bill was committed")
	case <-timer.C:
		return nil
	}
}

func (c *Coordinator) aborted(ctx context.Context, log *zap.Logger, tenantID uuid.UUID, at State, err error) {
	fields := []zap.Field{
		zap.String("state", string(StateAborted)),
		zap.String("failed_in", string(at)),
		zap.String("code", shared.CodeOf(err)),
		zap.Error(err),
	}
	var le *sales.LineError
	if errors.As(err, &le) {
		fields = append(fields, zap.Int("line_index", le.Index), zap.String("medicine_id", le.MedicineID.String()))
	}
	if errors.Is(err, shared.ErrStorageFailure) {
		log.Error("bill aborted", fields...)
	} else {
		log.Info("bill aborted", fields...)
	}
	if c.metrics != nil {
		c.metrics.RecordSaleAborted(ctx, tenantID, shared.CodeOf(err))
	}
}

func (c *Coordinator) publish(ctx context.Context, sale *sales.Sale) {
	events := sale.GetDomainEvents()
	sale.ClearDomainEvents()
	if c.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := c.eventPublisher.Publish(ctx, events...); err != nil {
		// The bill is already committed; a lost notification is not a billing failure.
		c.logger.Warn("failed to publish sale completed event",
			zap.String("bill_number", sale.BillNumber),
			zap.Error(err),
		)
	}
}

// validateRequest rejects malformed input before any transaction is opened
func validateRequest(tenantID uuid.UUID, req CreateSaleRequest) error {
	if tenantID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Tenant is required")
	}
	if len(req.Items) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "A bill needs at least one line")
	}
	for i, item := range req.Items {
		if item.MedicineID == uuid.Nil {
			return lineError(i, item.MedicineID, shared.NewDomainError("INVALID_INPUT", "Medicine is required"))
		}
		if item.Quantity < 1 {
			return lineError(i, item.MedicineID, shared.NewDomainError("INVALID_INPUT", "Quantity must be at least 1"))
		}
		if item.DiscountPercent != nil {
			if err := sales.ValidateDiscountPercent(*item.DiscountPercent); err != nil {
				return lineError(i, item.MedicineID, err)
			}
		}
	}
	if req.Discount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Bill discount cannot be negative")
	}
	if req.Tax.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Tax cannot be negative")
	}
	if err := shared.CheckMoneyScale("Bill discount", req.Discount); err != nil {
		return err
	}
	return shared.CheckMoneyScale("Tax", req.Tax)
}

func lineError(index int, medicineID uuid.UUID, err error) error {
	var le *sales.LineError
	if errors.As(err, &le) {
		return err
	}
	// Storage failures are not the line's fault and are reported as-is.
	if errors.Is(err, shared.ErrConflictRetryable) || errors.Is(err, shared.ErrStorageFailure) {
		return err
	}
	return &sales.LineError{Index: index, MedicineID: medicineID, Err: err}
}

func stockAfter(sale *sales.Sale, locked map[uuid.UUID]*catalog.Medicine) []sales.StockLevel {
	sold := make(map[uuid.UUID]int, len(locked))
	order := make([]uuid.UUID, 0, len(locked))
	for _, l := range sale.Lines {
		if _, seen := sold[l.MedicineID]; !seen {
			order = append(order, l.MedicineID)
		}
		sold[l.MedicineID] += l.Quantity
	}
	levels := make([]sales.StockLevel, 0, len(order))
	for _, id := range order {
		m := locked[id]
		levels = append(levels, sales.StockLevel{
			MedicineID:    id,
			Name:          m.Name,
			BatchNo:       m.BatchNo,
			Remaining:     m.Quantity - sold[id],
			LowStockAlert: m.LowStockAlert,
		})
	}
	return levels
}
