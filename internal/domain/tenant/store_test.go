package tenant

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func validStore() StoreInput {
	return StoreInput{Name: " City Pharmacy ", Address: "12 MG Road, Pune", Phone: "9876543210"}
}

func TestNewStore(t *testing.T) {
	tenantID := uuid.New()

	s, err := NewStore(tenantID, validStore(), testNow)
	require.NoError(t, err)
	assert.Equal(t, tenantID, s.ID)
	assert.Equal(t, "City Pharmacy", s.Name)
	assert.Equal(t, testNow, s.CreatedAt)

	rejections := []struct {
		name   string
		mutate func(*StoreInput)
	}{
		{"blank name", func(in *StoreInput) { in.Name = " " }},
		{"long name", func(in *StoreInput) { in.Name = strings.Repeat("n", 101) }},
		{"blank address", func(in *StoreInput) { in.Address = "" }},
		{"long address", func(in *StoreInput) { in.Address = strings.Repeat("a", 201) }},
		{"short phone", func(in *StoreInput) { in.Phone = "12345" }},
		{"phone with symbols", func(in *StoreInput) { in.Phone = "+91-98765-43210" }},
	}
	for _, tc := range rejections {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			in := validStore()
			tc.mutate(&in)
			_, err := NewStore(tenantID, in, testNow)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		})
	}

	t.Run("rejects missing tenant", func(t *testing.T) {
		_, err := NewStore(uuid.Nil, validStore(), testNow)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestStore_Update(t *testing.T) {
	s, err := NewStore(uuid.New(), validStore(), testNow)
	require.NoError(t, err)
	later := testNow.Add(time.Hour)

	require.NoError(t, s.Update(StoreInput{Name: "City Pharmacy 2", Address: "14 MG Road", Phone: "02012345678"}, later))
	assert.Equal(t, "City Pharmacy 2", s.Name)
	assert.Equal(t, later, s.UpdatedAt)
	assert.Equal(t, testNow, s.CreatedAt)

	err = s.Update(StoreInput{Name: "", Address: "x", Phone: "02012345678"}, later)
	require.Error(t, err)
	assert.Equal(t, "City Pharmacy 2", s.Name)
}
