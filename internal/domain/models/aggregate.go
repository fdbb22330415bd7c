package models

import "time"

// Confidence is a coarse trust label derived from how many independent
// sources agreed on an entity's existence within one pass.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Trend summarizes the direction of grey-market premium values observed
// for one entity during a single pass.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// MergedEntity is the aggregator's working unit: one offering keyed by
// normalized symbol, mutated in place as further sources' records for
// the same symbol settle.
type MergedEntity struct {
	Offering

	// Sources lists contributing source names in settle order.
	Sources     []string `json:"sources"`
	SourceCount int      `json:"source_count"`

	// ObservedGMP records every GMP value seen during the merge, in
	// settle order, for trend derivation on sentiment passes.
	ObservedGMP []float64 `json:"-"`
}

// AggregatedEntity is the final emitted shape: a merged entity plus its
// confidence level and, for sentiment passes, a value trend.
type AggregatedEntity struct {
	MergedEntity

	Confidence Confidence `json:"confidence"`
	Trend      Trend      `json:"trend,omitempty"`
}

// SourceOutcome is the per-adapter diagnostic row attached to a pass.
type SourceOutcome struct {
	Source         string `json:"source"`
	Success        bool   `json:"success"`
	Records        int    `json:"records"`
	Error          string `json:"error,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

// AggregateResult is one completed aggregation pass. It exists only for
// the duration of a pass; persistence of its contents belongs to the
// listing store collaborator.
type AggregateResult struct {
	PassID            string             `json:"pass_id"`
	Operation         Operation          `json:"operation"`
	Data              []AggregatedEntity `json:"data"`
	SourceResults     []SourceOutcome    `json:"source_results"`
	TotalSources      int                `json:"total_sources"`
	SuccessfulSources int                `json:"successful_sources"`
	Timestamp         time.Time          `json:"timestamp"`
}
