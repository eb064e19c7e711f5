package forecast

import "github.com/supawave/pos-ecosystem/backend-go/internal/domain"

const insufficientTrendMessage = "Need more sales data"

// AnalyzeTrends compares the mean of the first and second half of the history
// and classifies the change against the trend threshold.
func (e *Engine) AnalyzeTrends(history []domain.SalesHistoryPoint) *domain.TrendResult {
	if len(history) < e.params.MinHistoryForTrend {
		return insufficientTrend()
	}

	q := quantities(history)
	mid := len(q) / 2
	firstAvg := mean(q[:mid])
	secondAvg := mean(q[mid:])

	// A zero baseline has no meaningful percentage change.
	if firstAvg == 0 {
		return insufficientTrend()
	}

	pct := (secondAvg - firstAvg) / firstAvg * 100

	trend := domain.TrendStable
	switch {
	case pct > e.params.TrendThresholdPercent:
		trend = domain.TrendGrowing
	case pct < -e.params.TrendThresholdPercent:
		trend = domain.TrendDeclining
	}

	return &domain.TrendResult{
		Trend:           trend,
		TrendPercentage: roundFloat(pct, 2),
		FirstPeriodAvg:  roundFloat(firstAvg, 2),
		SecondPeriodAvg: roundFloat(secondAvg, 2),
		Volatility:      Volatility(q),
	}
}

func insufficientTrend() *domain.TrendResult {
	return &domain.TrendResult{
		Trend:   domain.TrendInsufficientData,
		Message: insufficientTrendMessage,
	}
}
