// backend-go/internal/domain/models.go
package domain

import "time"

// SalesHistoryPoint is the total quantity sold for a product on one calendar day.
// Days without sales are absent from a history, never zero-filled.
type SalesHistoryPoint struct {
	Date     time.Time `json:"date" db:"sale_date"`
	Quantity int       `json:"quantity" db:"daily_quantity"`
}

// ProductSnapshot is the read-only view of an active catalog product.
type ProductSnapshot struct {
	ID                string  `json:"id" db:"id"`
	Name              string  `json:"name" db:"name"`
	StockQuantity     int     `json:"stock_quantity" db:"stock_quantity"`
	LowStockThreshold int     `json:"low_stock_threshold" db:"low_stock_threshold"`
	ReorderPoint      int     `json:"reorder_point" db:"reorder_point"`
	SellingPrice      float64 `json:"selling_price" db:"selling_price"`
	CostPrice         float64 `json:"cost_price" db:"cost_price"`
}

// ForecastPoint is the predicted demand for a single future day.
type ForecastPoint struct {
	Date            time.Time  `json:"date"`
	PredictedDemand int        `json:"predicted_demand"`
	Confidence      Confidence `json:"confidence"`
}

// ForecastResult holds a day-by-day forecast for one product.
type ForecastResult struct {
	Points        []ForecastPoint `json:"forecast"`
	Confidence    Confidence      `json:"confidence"`
	HistoricalAvg float64         `json:"historical_avg"`
	TrendFactor   float64         `json:"trend_factor"`
	Message       string          `json:"message,omitempty"`
}

// Insufficient reports whether the forecast carries no points because the
// history was too short.
func (r *ForecastResult) Insufficient() bool {
	return r == nil || len(r.Points) == 0
}

// TrendResult is the demand trajectory of a product over its history.
type TrendResult struct {
	Trend           Trend   `json:"trend"`
	TrendPercentage float64 `json:"trend_percentage"`
	FirstPeriodAvg  float64 `json:"first_period_avg"`
	SecondPeriodAvg float64 `json:"second_period_avg"`
	Volatility      float64 `json:"volatility"`
	Message         string  `json:"message,omitempty"`
}

// Recommendation is a restock suggestion for a single product.
type Recommendation struct {
	ProductID              string     `json:"product_id"`
	ProductName            string     `json:"product_name"`
	CurrentStock           int        `json:"current_stock"`
	PredictedDailyDemand   float64    `json:"predicted_daily_demand"`
	DaysUntilStockout      float64    `json:"days_until_stockout"`
	SuggestedOrderQuantity int        `json:"suggested_order_quantity"`
	Priority               Priority   `json:"priority"`
	Confidence             Confidence `json:"confidence"`
	EstimatedCost          float64    `json:"estimated_cost"`
}
