package sales

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type coordinatorFixture struct {
	tenantID  uuid.UUID
	medicines *MockMedicineRepository
	ledger    *MockSaleRepository
	publisher *MockEventPublisher
	coord     *Coordinator
}

func newCoordinatorFixture() *coordinatorFixture {
	f := &coordinatorFixture{
		tenantID:  uuid.New(),
		medicines: new(MockMedicineRepository),
		ledger:    new(MockSaleRepository),
		publisher: new(MockEventPublisher),
	}
	f.coord = NewCoordinator(
		NewNoOpTransactionScope(f.medicines, f.ledger),
		CoordinatorConfig{MaxRetries: 2, RetryBackoff: 0},
		nil,
	)
	f.coord.SetClock(func() time.Time { return fixedNow })
	f.coord.SetEventPublisher(f.publisher)
	return f
}

func (f *coordinatorFixture) medicine(qty int, price, discount string, expiry time.Time) *catalog.Medicine {
	return &catalog.Medicine{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(f.tenantID, fixedNow),
		Name:                "Amoxicillin 250mg",
		BatchNo:             "AMX-" + uuid.NewString()[:4],
		Category:            catalog.CategoryCapsule,
		Quantity:            qty,
		Price:               decimal.RequireFromString(price),
		MRP:                 decimal.RequireFromString(price),
		DiscountPercent:     decimal.RequireFromString(discount),
		ExpiryDate:          catalog.CalendarDate(expiry),
		LowStockAlert:       5,
	}
}

func (f *coordinatorFixture) lockable(m *catalog.Medicine) {
	f.medicines.On("FindByIDForUpdate", mock.Anything, f.tenantID, m.ID).Return(m, nil)
}

func request(items ...SaleItemInput) CreateSaleRequest {
	return CreateSaleRequest{CustomerName: "Meera", Items: items}
}

func TestCoordinator_CreateSale(t *testing.T) {
	future := fixedNow.AddDate(1, 0, 0)

	t.Run("commits sale and decrements stock", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(10, "50", "10", future)
		f.lockable(m)
		f.ledger.On("NextBillSequence", mock.Anything).Return(int64(1), nil)
		f.ledger.On("Insert", mock.Anything, mock.AnythingOfType("*sales.Sale")).Return(nil)
		f.medicines.On("DecrementQuantity", mock.Anything, f.tenantID, m.ID, 4).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 4}))
		require.NoError(t, err)

		assert.Equal(t, "BILL-000001", resp.BillNumber)
		require.Len(t, resp.Items, 1)
		assert.True(t, decimal.RequireFromString("180.00").Equal(resp.Items[0].LineTotal))
		assert.True(t, decimal.RequireFromString("180.00").Equal(resp.Total))
		assert.Equal(t, m.BatchNo, resp.Items[0].BatchNo)
		assert.Equal(t, "Completed", resp.PaymentStatus)
		assert.Equal(t, "Cash", resp.PaymentMethod)
		f.medicines.AssertExpectations(t)
		f.ledger.AssertExpectations(t)
	})

	t.Run("computes two-line bill with discount and tax", func(t *testing.T) {
		f := newCoordinatorFixture()
		a := f.medicine(10, "25", "0", future)
		b := f.medicine(10, "40", "0", future)
		f.lockable(a)
		f.lockable(b)
		f.ledger.On("NextBillSequence", mock.Anything).Return(int64(7), nil)
		f.ledger.On("Insert", mock.Anything, mock.Anything).Return(nil)
		f.medicines.On("DecrementQuantity", mock.Anything, f.tenantID, mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		twenty := decimal.NewFromInt(20)
		req := request(
			SaleItemInput{MedicineID: a.ID, Quantity: 2},
			SaleItemInput{MedicineID: b.ID, Quantity: 1, DiscountPercent: &twenty},
		)
		req.Discount = decimal.NewFromInt(10)
		req.Tax = decimal.NewFromInt(5)

		resp, err := f.coord.CreateSale(ctx(), f.tenantID, req)
		require.NoError(t, err)

		assert.True(t, decimal.NewFromInt(82).Equal(resp.Subtotal))
		assert.True(t, resp.Subtotal.Sub(decimal.NewFromInt(10)).Add(decimal.NewFromInt(5)).Equal(resp.Total))
		assert.True(t, twenty.Equal(resp.Items[1].DiscountPercent), "override replaces catalog discount")
		assert.Equal(t, "BILL-000007", resp.BillNumber)
	})

	t.Run("aborts with insufficient stock and writes nothing", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(2, "10", "0", future)
		f.lockable(m)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 5}))
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

		var le *sales.LineError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, 0, le.Index)
		assert.Equal(t, m.ID, le.MedicineID)
		f.ledger.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		f.medicines.AssertNotCalled(t, "DecrementQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("aborts with expired item", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(10, "10", "0", fixedNow.AddDate(0, 0, -1))
		f.lockable(m)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 1}))
		assert.True(t, errors.Is(err, shared.ErrExpiredItem))
		f.ledger.AssertNotCalled(t, "NextBillSequence", mock.Anything)
	})

	t.Run("sells item expiring today", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(1, "10", "0", fixedNow)
		f.lockable(m)
		f.ledger.On("NextBillSequence", mock.Anything).Return(int64(3), nil)
		f.ledger.On("Insert", mock.Anything, mock.Anything).Return(nil)
		f.medicines.On("DecrementQuantity", mock.Anything, f.tenantID, m.ID, 1).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 1}))
		assert.NoError(t, err)
	})

	t.Run("reports missing medicine on its line", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(10, "10", "0", future)
		missing := uuid.New()
		f.lockable(m)
		f.medicines.On("FindByIDForUpdate", mock.Anything, f.tenantID, missing).Return(nil, shared.ErrNotFound)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(
			SaleItemInput{MedicineID: m.ID, Quantity: 1},
			SaleItemInput{MedicineID: missing, Quantity: 1},
		))
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		var le *sales.LineError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, 1, le.Index)
		assert.Equal(t, missing, le.MedicineID)
	})

	t.Run("validates repeated medicine cumulatively", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(5, "10", "0", future)
		f.lockable(m)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(
			SaleItemInput{MedicineID: m.ID, Quantity: 3},
			SaleItemInput{MedicineID: m.ID, Quantity: 3},
		))
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		var le *sales.LineError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, 1, le.Index)
		f.medicines.AssertNumberOfCalls(t, "FindByIDForUpdate", 1)
	})

	t.Run("rejects out of range discount before opening a transaction", func(t *testing.T) {
		f := newCoordinatorFixture()
		bad := decimal.NewFromInt(120)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: uuid.New(), Quantity: 1, DiscountPercent: &bad}))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		f.medicines.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects amounts with more than two decimal places", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(10, "50", "0", future)

		override := decimal.RequireFromString("12.345")
		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 4, DiscountPercent: &override}))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		var le *sales.LineError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, 0, le.Index)

		req := request(SaleItemInput{MedicineID: m.ID, Quantity: 1})
		req.Discount = decimal.RequireFromString("0.005")
		_, err = f.coord.CreateSale(ctx(), f.tenantID, req)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))

		req = request(SaleItemInput{MedicineID: m.ID, Quantity: 1})
		req.Tax = decimal.RequireFromString("2.499")
		_, err = f.coord.CreateSale(ctx(), f.tenantID, req)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))

		f.medicines.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
		f.ledger.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("treats a row owned by another tenant as not found", func(t *testing.T) {
		f := newCoordinatorFixture()
		foreign := f.medicine(10, "10", "0", future)
		foreign.TenantID = uuid.New()
		f.lockable(foreign)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: foreign.ID, Quantity: 1}))
		assert.Equal(t, "NOT_FOUND", shared.CodeOf(err))
		var le *sales.LineError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, foreign.ID, le.MedicineID)
		f.ledger.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("records the cashier", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(10, "10", "0", future)
		f.lockable(m)
		f.ledger.On("NextBillSequence", mock.Anything).Return(int64(3), nil)
		f.ledger.On("Insert", mock.Anything, mock.Anything).Return(nil)
		f.medicines.On("DecrementQuantity", mock.Anything, f.tenantID, m.ID, 1).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		cashier := uuid.New()
		req := request(SaleItemInput{MedicineID: m.ID, Quantity: 1})
		req.CashierID = cashier
		resp, err := f.coord.CreateSale(ctx(), f.tenantID, req)
		require.NoError(t, err)
		require.NotNil(t, resp.CreatedBy)
		assert.Equal(t, cashier, *resp.CreatedBy)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		f := newCoordinatorFixture()
		for _, qty := range []int{0, -3} {
			_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: uuid.New(), Quantity: qty}))
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		}
	})

	t.Run("rejects negative tax and empty bill", func(t *testing.T) {
		f := newCoordinatorFixture()
		req := request(SaleItemInput{MedicineID: uuid.New(), Quantity: 1})
		req.Tax = decimal.NewFromInt(-1)
		_, err := f.coord.CreateSale(ctx(), f.tenantID, req)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))

		_, err = f.coord.CreateSale(ctx(), f.tenantID, request())
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("fails when bill discount exceeds total", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(10, "10", "0", future)
		f.lockable(m)
		req := request(SaleItemInput{MedicineID: m.ID, Quantity: 1})
		req.Discount = decimal.NewFromInt(11)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, req)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		f.ledger.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("surfaces guarded decrement failure as insufficient stock", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(10, "10", "0", future)
		f.lockable(m)
		f.ledger.On("NextBillSequence", mock.Anything).Return(int64(1), nil)
		f.ledger.On("Insert", mock.Anything, mock.Anything).Return(nil)
		f.medicines.On("DecrementQuantity", mock.Anything, f.tenantID, m.ID, 2).Return(shared.ErrInsufficientStock)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 2}))
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestCoordinator_Retries(t *testing.T) {
	future := fixedNow.AddDate(1, 0, 0)

	t.Run("retries numbering conflict from scratch", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(10, "10", "0", future)
		f.lockable(m)
		f.ledger.On("NextBillSequence", mock.Anything).Return(int64(4), nil).Once()
		f.ledger.On("NextBillSequence", mock.Anything).Return(int64(5), nil).Once()
		f.ledger.On("Insert", mock.Anything, mock.Anything).Return(shared.ErrConflictRetryable).Once()
		f.ledger.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
		f.medicines.On("DecrementQuantity", mock.Anything, f.tenantID, m.ID, 1).Return(nil).Once()
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 1}))
		require.NoError(t, err)
		assert.Equal(t, "BILL-000005", resp.BillNumber)
		f.medicines.AssertNumberOfCalls(t, "FindByIDForUpdate", 2)
	})

	t.Run("gives up as storage failure after max retries", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(10, "10", "0", future)
		f.lockable(m)
		f.ledger.On("NextBillSequence", mock.Anything).Return(int64(1), nil)
		f.ledger.On("Insert", mock.Anything, mock.Anything).Return(shared.ErrConflictRetryable)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 1}))
		assert.True(t, errors.Is(err, shared.ErrStorageFailure))
		f.ledger.AssertNumberOfCalls(t, "Insert", 3)
	})

	t.Run("does not retry business failures", func(t *testing.T) {
		f := newCoordinatorFixture()
		m := f.medicine(0, "10", "0", future)
		f.lockable(m)

		_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 1}))
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		f.medicines.AssertNumberOfCalls(t, "FindByIDForUpdate", 1)
	})
}

func TestCoordinator_PublishesSaleCompleted(t *testing.T) {
	f := newCoordinatorFixture()
	m := f.medicine(6, "10", "0", fixedNow.AddDate(1, 0, 0))
	f.lockable(m)
	f.ledger.On("NextBillSequence", mock.Anything).Return(int64(9), nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.medicines.On("DecrementQuantity", mock.Anything, f.tenantID, m.ID, 2).Return(nil)

	var published *sales.SaleCompletedEvent
	f.publisher.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		events := args.Get(1).([]shared.DomainEvent)
		published = events[0].(*sales.SaleCompletedEvent)
	}).Return(nil)

	_, err := f.coord.CreateSale(ctx(), f.tenantID, request(SaleItemInput{MedicineID: m.ID, Quantity: 2}))
	require.NoError(t, err)

	require.NotNil(t, published)
	f.publisher.AssertNumberOfCalls(t, "Publish", 1)
	assert.Equal(t, "BILL-000009", published.BillNumber)
	assert.Equal(t, f.tenantID, published.TenantID())
	require.Len(t, published.StockAfter, 1)
	assert.Equal(t, 4, published.StockAfter[0].Remaining)
}
