package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixtureNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

type medicineOpt func(*catalog.MedicineInput)

func withBatch(b string) medicineOpt {
	return func(in *catalog.MedicineInput) { in.BatchNo = b }
}

func withName(n string) medicineOpt {
	return func(in *catalog.MedicineInput) { in.Name = n }
}

func withQuantity(q int) medicineOpt {
	return func(in *catalog.MedicineInput) { in.Quantity = q }
}

func withCategory(c catalog.Category) medicineOpt {
	return func(in *catalog.MedicineInput) { in.Category = c }
}

func withExpiry(days int) medicineOpt {
	return func(in *catalog.MedicineInput) { in.ExpiryDate = fixtureNow.AddDate(0, 0, days) }
}

func withPrice(p int64) medicineOpt {
	return func(in *catalog.MedicineInput) {
		in.Price = decimal.NewFromInt(p)
		in.MRP = decimal.NewFromInt(p + 5)
	}
}

func withSupplier(s string) medicineOpt {
	return func(in *catalog.MedicineInput) { in.Supplier = s }
}

// seedMedicine builds a valid medicine and stores it through the repository
func seedMedicine(t *testing.T, repo *GormMedicineRepository, tenantID uuid.UUID, opts ...medicineOpt) *catalog.Medicine {
	t.Helper()
	in := catalog.MedicineInput{
		Name:       "Paracetamol 500mg",
		BatchNo:    "B-" + uuid.NewString()[:8],
		Category:   catalog.CategoryTablet,
		Quantity:   50,
		Price:      decimal.NewFromInt(10),
		MRP:        decimal.NewFromInt(12),
		ExpiryDate: fixtureNow.AddDate(1, 0, 0),
	}
	for _, opt := range opts {
		opt(&in)
	}
	m, err := catalog.NewMedicine(tenantID, in, fixtureNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

// numberedSale builds a sale with one line per medicine, quantity qty each
func numberedSale(t *testing.T, tenantID uuid.UUID, seq int64, at time.Time, qty int, meds ...*catalog.Medicine) *sales.Sale {
	t.Helper()
	lines := make([]sales.SaleLine, len(meds))
	for i, m := range meds {
		lines[i] = sales.SaleLine{
			MedicineID: m.ID,
			Name:       m.Name,
			BatchNo:    m.BatchNo,
			Quantity:   qty,
			Price:      m.Price,
			MRP:        m.MRP,
		}
		require.NoError(t, sales.PriceLine(&lines[i]))
	}
	s, err := sales.NewSale(tenantID, sales.SaleDraft{
		Customer: sales.Customer{Name: "Walk-in"},
		Lines:    lines,
	}, at)
	require.NoError(t, err)
	require.NoError(t, s.AssignNumber(seq))
	return s
}
