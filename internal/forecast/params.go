package forecast

import (
	"fmt"
	"time"
)

// WeeklyFactors are demand multipliers indexed by time.Weekday (Sunday first).
type WeeklyFactors [7]float64

// MonthlyFactors are demand multipliers indexed by month, January first.
type MonthlyFactors [12]float64

var (
	defaultWeeklyFactors  = WeeklyFactors{1.0, 0.8, 0.9, 1.1, 1.2, 1.3, 1.1}
	defaultMonthlyFactors = MonthlyFactors{0.9, 0.8, 1.0, 1.1, 1.2, 1.3, 1.4, 1.2, 1.1, 1.0, 1.3, 1.5}
)

// Params holds the tunables of the forecasting engine and the recommender.
type Params struct {
	MovingAverageWindow       int
	SmoothingAlpha            float64
	MinHistoryForForecast     int
	MinHistoryForTrend        int
	HighConfidenceHistoryDays int
	TrendThresholdPercent     float64
	CriticalDaysThreshold     float64
	HighDaysThreshold         float64
	ReorderSupplyDays         float64
	StockoutDenominatorFloor  float64

	// CostFallbackRatio prices an order from the selling price when a product
	// has no cost price.
	CostFallbackRatio float64

	RecommendationHorizon int
	LookbackDays          int
	TrendLookbackDays     int
	Concurrency           int

	Weekly  WeeklyFactors
	Monthly MonthlyFactors
}

// DefaultParams returns the defaults observed in production.
func DefaultParams() Params {
	return Params{
		MovingAverageWindow:       7,
		SmoothingAlpha:            0.3,
		MinHistoryForForecast:     7,
		MinHistoryForTrend:        14,
		HighConfidenceHistoryDays: 30,
		TrendThresholdPercent:     15,
		CriticalDaysThreshold:     3,
		HighDaysThreshold:         7,
		ReorderSupplyDays:         21,
		StockoutDenominatorFloor:  0.1,
		CostFallbackRatio:         0.7,
		RecommendationHorizon:     14,
		LookbackDays:              90,
		TrendLookbackDays:         60,
		Concurrency:               8,
		Weekly:                    defaultWeeklyFactors,
		Monthly:                   defaultMonthlyFactors,
	}
}

// Validate rejects parameter sets the engine cannot run with.
func (p Params) Validate() error {
	if p.MovingAverageWindow <= 0 {
		return fmt.Errorf("moving average window must be positive, got %d", p.MovingAverageWindow)
	}
	if p.SmoothingAlpha <= 0 || p.SmoothingAlpha > 1 {
		return fmt.Errorf("smoothing alpha must be in (0,1], got %g", p.SmoothingAlpha)
	}
	if p.MinHistoryForForecast <= 0 || p.MinHistoryForTrend <= 0 {
		return fmt.Errorf("minimum history lengths must be positive")
	}
	if p.HighConfidenceHistoryDays < p.MinHistoryForForecast {
		return fmt.Errorf("high confidence history (%d) is below minimum forecast history (%d)",
			p.HighConfidenceHistoryDays, p.MinHistoryForForecast)
	}
	if p.TrendThresholdPercent < 0 {
		return fmt.Errorf("trend threshold must not be negative, got %g", p.TrendThresholdPercent)
	}
	if p.CriticalDaysThreshold <= 0 || p.HighDaysThreshold < p.CriticalDaysThreshold {
		return fmt.Errorf("invalid runway thresholds: critical=%g high=%g",
			p.CriticalDaysThreshold, p.HighDaysThreshold)
	}
	if p.ReorderSupplyDays <= 0 {
		return fmt.Errorf("reorder supply days must be positive, got %g", p.ReorderSupplyDays)
	}
	if p.StockoutDenominatorFloor <= 0 {
		return fmt.Errorf("stockout denominator floor must be positive, got %g", p.StockoutDenominatorFloor)
	}
	if p.CostFallbackRatio < 0 {
		return fmt.Errorf("cost fallback ratio must not be negative, got %g", p.CostFallbackRatio)
	}
	if p.RecommendationHorizon <= 0 || p.LookbackDays <= 0 || p.TrendLookbackDays <= 0 {
		return fmt.Errorf("horizon and lookback windows must be positive")
	}
	for i, f := range p.Weekly {
		if f < 0 {
			return fmt.Errorf("weekly factor for %s is negative", time.Weekday(i))
		}
	}
	for i, f := range p.Monthly {
		if f < 0 {
			return fmt.Errorf("monthly factor for %s is negative", time.Month(i+1))
		}
	}
	return nil
}

// concurrency clamps the worker count to [1, 16].
func (p Params) concurrency() int {
	switch {
	case p.Concurrency < 1:
		return 1
	case p.Concurrency > 16:
		return 16
	default:
		return p.Concurrency
	}
}
