package report

import (
	"errors"
	"testing"
	"time"

	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupBy(t *testing.T) {
	g, err := ParseGroupBy("")
	require.NoError(t, err)
	assert.Equal(t, GroupByDay, g)

	g, err = ParseGroupBy("month")
	require.NoError(t, err)
	assert.Equal(t, GroupByMonth, g)

	_, err = ParseGroupBy("year")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestGroupBy_PeriodKey(t *testing.T) {
	// 2027-01-01 is a Friday in ISO week 53 of 2026
	at := time.Date(2027, 1, 1, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		group GroupBy
		want  string
	}{
		{GroupByDay, "2027-01-01"},
		{GroupByWeek, "2026-W53"},
		{GroupByMonth, "2027-01"},
	}
	for _, tt := range tests {
		t.Run(string(tt.group), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.group.PeriodKey(at))
		})
	}
}

func TestParseStatsPeriod(t *testing.T) {
	d, err := ParseStatsPeriod(0)
	require.NoError(t, err)
	assert.Equal(t, 30, d)

	d, err = ParseStatsPeriod(90)
	require.NoError(t, err)
	assert.Equal(t, 90, d)

	_, err = ParseStatsPeriod(14)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}
