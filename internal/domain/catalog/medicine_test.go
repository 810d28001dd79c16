package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func validInput() MedicineInput {
	return MedicineInput{
		Name:            "Paracetamol 500mg",
		BatchNo:         " pcm-0042 ",
		Category:        CategoryTablet,
		Quantity:        10,
		Price:           decimal.NewFromInt(50),
		MRP:             decimal.NewFromInt(55),
		DiscountPercent: decimal.NewFromInt(10),
		ExpiryDate:      testNow.AddDate(1, 0, 0),
		Supplier:        "Acme Pharma",
	}
}

func TestNewMedicine(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates medicine with valid inputs", func(t *testing.T) {
		m, err := NewMedicine(tenantID, validInput(), testNow)
		require.NoError(t, err)

		assert.Equal(t, tenantID, m.TenantID)
		assert.NotEqual(t, uuid.Nil, m.ID)
		assert.Equal(t, "PCM-0042", m.BatchNo)
		assert.Equal(t, DefaultLowStockAlert, m.LowStockAlert)
		assert.Equal(t, 1, m.GetVersion())
		assert.Equal(t, testNow, m.CreatedAt)
	})

	t.Run("defaults category to Other", func(t *testing.T) {
		in := validInput()
		in.Category = ""
		m, err := NewMedicine(tenantID, in, testNow)
		require.NoError(t, err)
		assert.Equal(t, CategoryOther, m.Category)
	})

	t.Run("truncates expiry to the calendar day", func(t *testing.T) {
		in := validInput()
		in.ExpiryDate = time.Date(2027, 1, 2, 23, 59, 0, 0, time.UTC)
		m, err := NewMedicine(tenantID, in, testNow)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC), m.ExpiryDate)
	})

	rejections := []struct {
		name   string
		mutate func(*MedicineInput)
		msg    string
	}{
		{"empty name", func(in *MedicineInput) { in.Name = "  " }, "name is required"},
		{"empty batch", func(in *MedicineInput) { in.BatchNo = "" }, "Batch number is required"},
		{"unknown category", func(in *MedicineInput) { in.Category = "Powder" }, "Unknown category"},
		{"negative quantity", func(in *MedicineInput) { in.Quantity = -1 }, "Quantity cannot be negative"},
		{"negative price", func(in *MedicineInput) { in.Price = decimal.NewFromInt(-1) }, "Price cannot be negative"},
		{"discount above 100", func(in *MedicineInput) { in.DiscountPercent = decimal.NewFromInt(101) }, "between 0 and 100"},
		{"sub-cent price", func(in *MedicineInput) { in.Price = decimal.RequireFromString("4.999") }, "more than 2 decimal places"},
		{"sub-cent MRP", func(in *MedicineInput) { in.MRP = decimal.RequireFromString("5.001") }, "more than 2 decimal places"},
		{"three-place discount", func(in *MedicineInput) { in.DiscountPercent = decimal.RequireFromString("12.345") }, "more than 2 decimal places"},
		{"missing expiry", func(in *MedicineInput) { in.ExpiryDate = time.Time{} }, "Expiry date is required"},
	}
	for _, tc := range rejections {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := NewMedicine(tenantID, in, testNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestMedicine_Apply(t *testing.T) {
	m, err := NewMedicine(uuid.New(), validInput(), testNow)
	require.NoError(t, err)

	t.Run("applies partial update and bumps version", func(t *testing.T) {
		price := decimal.NewFromInt(60)
		batch := "new-batch"
		later := testNow.Add(time.Hour)

		require.NoError(t, m.Apply(MedicinePatch{Price: &price, BatchNo: &batch}, later))
		assert.True(t, m.Price.Equal(price))
		assert.Equal(t, "NEW-BATCH", m.BatchNo)
		assert.Equal(t, "Paracetamol 500mg", m.Name)
		assert.Equal(t, 2, m.GetVersion())
		assert.Equal(t, later, m.UpdatedAt)
	})

	t.Run("rejects sub-cent price patch", func(t *testing.T) {
		before := m.Price
		price := decimal.RequireFromString("60.125")
		err := m.Apply(MedicinePatch{Price: &price}, testNow)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.True(t, before.Equal(m.Price))
	})

	t.Run("leaves medicine untouched on invalid patch", func(t *testing.T) {
		before := *m
		qty := -3
		err := m.Apply(MedicinePatch{Quantity: &qty}, testNow)
		require.Error(t, err)
		assert.Equal(t, before.Quantity, m.Quantity)
		assert.Equal(t, before.Version, m.Version)
	})
}

func TestMedicine_Restock(t *testing.T) {
	m, err := NewMedicine(uuid.New(), validInput(), testNow)
	require.NoError(t, err)

	require.NoError(t, m.Restock(5, testNow))
	assert.Equal(t, 15, m.Quantity)

	assert.Error(t, m.Restock(0, testNow))
	assert.Equal(t, 15, m.Quantity)
}

func TestMedicine_ExpiryViews(t *testing.T) {
	m, err := NewMedicine(uuid.New(), validInput(), testNow)
	require.NoError(t, err)

	cases := []struct {
		name         string
		expiry       time.Time
		expired      bool
		expiringSoon bool
	}{
		{"expired yesterday", testNow.AddDate(0, 0, -1), true, false},
		{"expires today", testNow, false, true},
		{"expires in 30 days", testNow.AddDate(0, 0, 30), false, true},
		{"expires in 31 days", testNow.AddDate(0, 0, 31), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m.ExpiryDate = CalendarDate(tc.expiry)
			assert.Equal(t, tc.expired, m.IsExpired(testNow))
			assert.Equal(t, tc.expiringSoon, m.ExpiringSoon(testNow))
		})
	}
}

func TestMedicine_StockStatus(t *testing.T) {
	m, err := NewMedicine(uuid.New(), validInput(), testNow)
	require.NoError(t, err)

	m.Quantity = 0
	assert.Equal(t, StockStatusOutOfStock, m.StockStatus())
	m.Quantity = 5
	assert.Equal(t, StockStatusLowStock, m.StockStatus())
	m.Quantity = 6
	assert.Equal(t, StockStatusInStock, m.StockStatus())
	assert.True(t, m.StockValue().Equal(decimal.NewFromInt(300)))
}
