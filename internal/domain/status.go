package domain

import (
	"fmt"
	"strings"
)

// Confidence describes how much history backs a forecast.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Priority is the urgency of a reorder recommendation.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
)

// Trend is the direction of a product's demand.
type Trend string

const (
	TrendGrowing          Trend = "growing"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

var priorityRanks = map[Priority]int{
	PriorityCritical: 3,
	PriorityHigh:     2,
	PriorityMedium:   1,
}

// Rank returns the sort weight of a priority. Unknown priorities rank 0.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

// ParsePriority returns the priority for a given label (case-insensitive).
func ParsePriority(label string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(label)))
	_, ok := priorityRanks[p]

	return p, ok
}

// ParsePriorities splits a comma-separated list of priority labels. Blank
// entries are ignored; an unknown label is an error.
func ParsePriorities(list string) ([]Priority, error) {
	var out []Priority
	for _, label := range strings.Split(list, ",") {
		if strings.TrimSpace(label) == "" {
			continue
		}
		p, ok := ParsePriority(label)
		if !ok {
			return nil, fmt.Errorf("unknown priority %q", strings.TrimSpace(label))
		}
		out = append(out, p)
	}
	return out, nil
}
