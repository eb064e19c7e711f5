package domain

import "time"

// ProductFailure records a product the recommender could not evaluate.
type ProductFailure struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

// RecommendationReport is the response body of a reorder run.
type RecommendationReport struct {
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generated_at"`
	TotalItems      int              `json:"total_items"`
	FailedItems     []ProductFailure `json:"failed_items,omitempty"`
	// Partial is set when the run was interrupted before every product was
	// evaluated. FailedItems names the products that were cut off.
	Partial bool `json:"partial,omitempty"`
}

// WithPriorities returns a copy of the report keeping only recommendations of
// the given priorities. An empty list keeps everything.
func (r *RecommendationReport) WithPriorities(priorities []Priority) *RecommendationReport {
	if len(priorities) == 0 {
		return r
	}
	keep := make(map[Priority]bool, len(priorities))
	for _, p := range priorities {
		keep[p] = true
	}

	filtered := *r
	filtered.Recommendations = make([]Recommendation, 0, len(r.Recommendations))
	for _, rec := range r.Recommendations {
		if keep[rec.Priority] {
			filtered.Recommendations = append(filtered.Recommendations, rec)
		}
	}
	filtered.TotalItems = len(filtered.Recommendations)
	return &filtered
}

// ForecastDashboard aggregates a reorder run into summary cards plus the top
// recommendations.
type ForecastDashboard struct {
	CriticalStockouts    int              `json:"critical_stockouts"`
	HighPriorityReorders int              `json:"high_priority_reorders"`
	TotalRecommendations int              `json:"total_recommendations"`
	EstimatedReorderCost float64          `json:"estimated_reorder_cost"`
	Recommendations      []Recommendation `json:"recommendations"`
	GeneratedAt          time.Time        `json:"generated_at"`
	Partial              bool             `json:"partial,omitempty"`
}
