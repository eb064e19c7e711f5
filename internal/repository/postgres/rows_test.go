package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHistory(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC) }

	rows := []salesRow{
		{SaleDate: day(3), DailyQuantity: sql.NullInt64{Int64: 5, Valid: true}},
		{SaleDate: day(1), DailyQuantity: sql.NullInt64{Int64: 2, Valid: true}},
		{SaleDate: day(2), DailyQuantity: sql.NullInt64{}},
	}

	history, err := toHistory(rows)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, day(1), history[0].Date)
	assert.Equal(t, 2, history[0].Quantity)
	assert.Equal(t, day(3), history[1].Date)
}

func TestToHistory_RejectsNegativeQuantity(t *testing.T) {
	rows := []salesRow{{
		SaleDate:      time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		DailyQuantity: sql.NullInt64{Int64: -1, Valid: true},
	}}

	_, err := toHistory(rows)
	assert.Error(t, err)
}

func TestProductRowToSnapshot(t *testing.T) {
	row := productRow{
		ID:            "0b7c",
		Name:          sql.NullString{String: "Cooking oil", Valid: true},
		StockQuantity: sql.NullInt64{Int64: 12, Valid: true},
		SellingPrice:  sql.NullFloat64{Float64: 3.5, Valid: true},
	}

	p := row.toSnapshot()
	assert.Equal(t, "0b7c", p.ID)
	assert.Equal(t, "Cooking oil", p.Name)
	assert.Equal(t, 12, p.StockQuantity)
	assert.Equal(t, 0, p.ReorderPoint)
	assert.Equal(t, 0.0, p.CostPrice)
	assert.Equal(t, 3.5, p.SellingPrice)
}
