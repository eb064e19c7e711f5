package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
)

// 2024-03-11 is a Monday.
var testToday = time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultParams())
	require.NoError(t, err)
	return engine
}

// makeHistory builds one point per day ending the day before today.
func makeHistory(today time.Time, quantities ...int) []domain.SalesHistoryPoint {
	history := make([]domain.SalesHistoryPoint, len(quantities))
	start := today.AddDate(0, 0, -len(quantities))
	for i, q := range quantities {
		history[i] = domain.SalesHistoryPoint{Date: start.AddDate(0, 0, i), Quantity: q}
	}
	return history
}

func repeat(q, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = q
	}
	return out
}

func TestForecastDemand_InsufficientHistory(t *testing.T) {
	engine := newTestEngine(t)

	for n := 0; n < 7; n++ {
		result, err := engine.ForecastDemand(makeHistory(testToday, repeat(5, n)...), 14, testToday)
		require.NoError(t, err)
		assert.Equal(t, domain.ConfidenceLow, result.Confidence, "history of %d points", n)
		assert.Empty(t, result.Points, "history of %d points", n)
		assert.True(t, result.Insufficient())
		assert.NotEmpty(t, result.Message)
	}
}

func TestForecastDemand_RejectsNonPositiveHorizon(t *testing.T) {
	engine := newTestEngine(t)
	history := makeHistory(testToday, repeat(5, 10)...)

	for _, horizon := range []int{0, -3} {
		result, err := engine.ForecastDemand(history, horizon, testToday)
		assert.ErrorIs(t, err, ErrInvalidHorizon)
		assert.Nil(t, result)
		assert.True(t, IsInvalidInput(err))
	}
}

func TestForecastDemand_ConfidenceBoundary(t *testing.T) {
	engine := newTestEngine(t)

	cases := []struct {
		points int
		want   domain.Confidence
	}{
		{7, domain.ConfidenceMedium},
		{29, domain.ConfidenceMedium},
		{30, domain.ConfidenceHigh},
		{45, domain.ConfidenceHigh},
	}

	for _, tc := range cases {
		result, err := engine.ForecastDemand(makeHistory(testToday, repeat(3, tc.points)...), 5, testToday)
		require.NoError(t, err)
		assert.Equal(t, tc.want, result.Confidence, "history of %d points", tc.points)
		for _, p := range result.Points {
			assert.Equal(t, tc.want, p.Confidence)
		}
	}
}

func TestForecastDemand_PointsAndBaseline(t *testing.T) {
	engine := newTestEngine(t)
	history := makeHistory(testToday, repeat(4, 10)...)

	result, err := engine.ForecastDemand(history, 14, testToday)
	require.NoError(t, err)
	require.Len(t, result.Points, 14)

	assert.InDelta(t, 4, result.HistoricalAvg, 1e-9)
	assert.InDelta(t, 4, result.TrendFactor, 1e-9)

	for i, p := range result.Points {
		assert.Equal(t, testToday.AddDate(0, 0, i+1), p.Date)
	}

	// March factor is 1.0, so each day is round(4 * (weekly+1)/2).
	want := []int{4, 4, 4, 5, 4, 4, 4}
	for i, p := range result.Points {
		assert.Equal(t, want[i%7], p.PredictedDemand, "day %d", i+1)
	}
}

func TestForecastDemand_NeverNegative(t *testing.T) {
	engine := newTestEngine(t)

	histories := [][]int{
		repeat(0, 10),
		{0, 0, 0, 0, 0, 0, 1},
		{100, 0, 0, 0, 0, 0, 0, 0},
		{1, 50, 2, 80, 0, 3, 9, 0, 0, 12},
	}
	for _, h := range histories {
		for _, today := range []time.Time{testToday, time.Date(2024, time.December, 29, 0, 0, 0, 0, time.UTC)} {
			result, err := engine.ForecastDemand(makeHistory(today, h...), 30, today)
			require.NoError(t, err)
			for _, p := range result.Points {
				assert.GreaterOrEqual(t, p.PredictedDemand, 0)
			}
		}
	}
}

func TestForecastDemand_Deterministic(t *testing.T) {
	engine := newTestEngine(t)
	history := makeHistory(testToday, 3, 7, 2, 9, 4, 4, 1, 0, 6, 8, 5)

	first, err := engine.ForecastDemand(history, 14, testToday)
	require.NoError(t, err)
	second, err := engine.ForecastDemand(history, 14, testToday)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestForecastDemand_SparseHistory(t *testing.T) {
	engine := newTestEngine(t)

	// Seven sale days spread over a month still count as seven points.
	var history []domain.SalesHistoryPoint
	for i := 0; i < 7; i++ {
		history = append(history, domain.SalesHistoryPoint{
			Date:     testToday.AddDate(0, 0, -30+i*4),
			Quantity: 6,
		})
	}

	result, err := engine.ForecastDemand(history, 3, testToday)
	require.NoError(t, err)
	assert.Len(t, result.Points, 3)
	assert.Equal(t, domain.ConfidenceMedium, result.Confidence)
}
