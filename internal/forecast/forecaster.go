package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
)

const insufficientForecastMessage = "Insufficient data"

// Engine turns sales history into forecasts and trend classifications.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	params Params
}

// NewEngine creates an Engine after validating params.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast params: %w", err)
	}
	return &Engine{params: params}, nil
}

// Params returns the parameters the engine was built with.
func (e *Engine) Params() Params {
	return e.params
}

// ForecastDemand predicts demand for each of the horizonDays days after today.
// A history shorter than the minimum yields an empty, low-confidence result
// rather than an error.
func (e *Engine) ForecastDemand(history []domain.SalesHistoryPoint, horizonDays int, today time.Time) (*domain.ForecastResult, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizonDays)
	}

	if len(history) < e.params.MinHistoryForForecast {
		return &domain.ForecastResult{
			Points:     []domain.ForecastPoint{},
			Confidence: domain.ConfidenceLow,
			Message:    insufficientForecastMessage,
		}, nil
	}

	q := quantities(history)
	movingAvg := MovingAverage(q, e.params.MovingAverageWindow)
	trend := ExponentialSmoothing(q, e.params.SmoothingAlpha)
	confidence := e.confidenceFor(len(history))

	base := (movingAvg + trend) / 2
	start := startOfDay(today)
	points := make([]domain.ForecastPoint, 0, horizonDays)
	for i := 1; i <= horizonDays; i++ {
		date := start.AddDate(0, 0, i)
		adjusted := int(math.Max(0, math.Round(base*e.SeasonalFactor(date))))

		points = append(points, domain.ForecastPoint{
			Date:            date,
			PredictedDemand: adjusted,
			Confidence:      confidence,
		})
	}

	return &domain.ForecastResult{
		Points:        points,
		Confidence:    confidence,
		HistoricalAvg: movingAvg,
		TrendFactor:   trend,
	}, nil
}

// confidenceFor is a step function of history length only.
func (e *Engine) confidenceFor(historyLen int) domain.Confidence {
	switch {
	case historyLen < e.params.MinHistoryForForecast:
		return domain.ConfidenceLow
	case historyLen >= e.params.HighConfidenceHistoryDays:
		return domain.ConfidenceHigh
	default:
		return domain.ConfidenceMedium
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
