package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
)

func TestAnalyzeTrends(t *testing.T) {
	engine := newTestEngine(t)

	cases := []struct {
		name       string
		quantities []int
		trend      domain.Trend
		pct        float64
		first      float64
		second     float64
	}{
		{
			name:       "growing halves of 2 and 3",
			quantities: append(repeat(2, 7), repeat(3, 7)...),
			trend:      domain.TrendGrowing,
			pct:        50,
			first:      2,
			second:     3,
		},
		{
			name:       "declining",
			quantities: append(repeat(10, 7), repeat(5, 7)...),
			trend:      domain.TrendDeclining,
			pct:        -50,
			first:      10,
			second:     5,
		},
		{
			name:       "within band is stable",
			quantities: append(repeat(10, 7), repeat(11, 7)...),
			trend:      domain.TrendStable,
			pct:        10,
			first:      10,
			second:     11,
		},
		{
			name:       "odd length puts extra point in second half",
			quantities: append(repeat(4, 7), repeat(6, 8)...),
			trend:      domain.TrendGrowing,
			pct:        50,
			first:      4,
			second:     6,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.AnalyzeTrends(makeHistory(testToday, tc.quantities...))
			assert.Equal(t, tc.trend, result.Trend)
			assert.InDelta(t, tc.pct, result.TrendPercentage, 1e-9)
			assert.InDelta(t, tc.first, result.FirstPeriodAvg, 1e-9)
			assert.InDelta(t, tc.second, result.SecondPeriodAvg, 1e-9)
			assert.Empty(t, result.Message)
		})
	}
}

func TestAnalyzeTrends_Volatility(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.AnalyzeTrends(makeHistory(testToday, append(repeat(2, 7), repeat(3, 7)...)...))
	// mean 2.5, population stddev 0.5
	assert.Equal(t, 0.2, result.Volatility)
}

func TestAnalyzeTrends_InsufficientHistory(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.AnalyzeTrends(makeHistory(testToday, repeat(5, 13)...))
	assert.Equal(t, domain.TrendInsufficientData, result.Trend)
	assert.NotEmpty(t, result.Message)
}

func TestAnalyzeTrends_ZeroBaseline(t *testing.T) {
	engine := newTestEngine(t)

	histories := [][]int{
		append(repeat(0, 7), repeat(5, 7)...),
		repeat(0, 20),
	}
	for _, h := range histories {
		var result *domain.TrendResult
		assert.NotPanics(t, func() {
			result = engine.AnalyzeTrends(makeHistory(testToday, h...))
		})
		assert.Equal(t, domain.TrendInsufficientData, result.Trend)
		for _, v := range []float64{result.TrendPercentage, result.FirstPeriodAvg, result.SecondPeriodAvg, result.Volatility} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}
