package forecast

import (
	"math"
	"time"
)

// MovingAverage returns the mean of the last window values. A series shorter
// than the window yields its last value, an empty series yields 0.
func MovingAverage(series []float64, window int) float64 {
	if window <= 0 {
		window = DefaultParams().MovingAverageWindow
	}
	if len(series) < window {
		if len(series) == 0 {
			return 0
		}
		return series[len(series)-1]
	}

	return mean(series[len(series)-window:])
}

// ExponentialSmoothing seeds with the first value and folds the rest in with
// weight alpha on the newer observation.
func ExponentialSmoothing(series []float64, alpha float64) float64 {
	if len(series) == 0 {
		return 0
	}

	smoothed := series[0]
	for _, v := range series[1:] {
		smoothed = alpha*v + (1-alpha)*smoothed
	}
	return smoothed
}

// Volatility is the coefficient of variation (population stddev over mean),
// rounded to 3 decimals. Series with fewer than two values or a zero mean
// have no measurable volatility and return 0.
func Volatility(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}

	m := mean(series)
	if m == 0 {
		return 0
	}

	var variance float64
	for _, v := range series {
		variance += (v - m) * (v - m)
	}
	variance /= float64(len(series))

	return roundFloat(math.Sqrt(variance)/m, 3)
}

// SeasonalFactor averages the weekday and month multipliers for date.
func (e *Engine) SeasonalFactor(date time.Time) float64 {
	weekly := e.params.Weekly[date.Weekday()]
	monthly := e.params.Monthly[date.Month()-1]

	return (weekly + monthly) / 2
}
