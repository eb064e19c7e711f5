package forecast

import (
	"math"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
)

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func quantities(history []domain.SalesHistoryPoint) []float64 {
	out := make([]float64, len(history))
	for i, p := range history {
		out[i] = float64(p.Quantity)
	}
	return out
}
