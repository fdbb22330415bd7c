package models

import "time"

// Status is the lifecycle stage of an offering.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusListed   Status = "listed"
)

// Operation identifies which adapter call produced a result.
type Operation string

const (
	OpOfferings Operation = "offerings"
	OpDemand    Operation = "demand"
	OpSentiment Operation = "sentiment"
)

// ParseOperation maps a free-form string to an Operation.
func ParseOperation(s string) (Operation, bool) {
	switch Operation(s) {
	case OpOfferings, OpDemand, OpSentiment:
		return Operation(s), true
	}
	return "", false
}

// Offering is the per-source record shape every adapter emits.
// Optional financial and sentiment fields are pointers so that "source
// did not report this" is distinguishable from a reported zero.
// An Offering is owned by the adapter that produced it until it is
// handed to the aggregator, and is never mutated after creation.
type Offering struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`

	OpenDate    *time.Time `json:"open_date,omitempty"`
	CloseDate   *time.Time `json:"close_date,omitempty"`
	ListingDate *time.Time `json:"listing_date,omitempty"`

	PriceRange string `json:"price_range,omitempty"`
	LotSize    int    `json:"lot_size,omitempty"`
	IssueSize  string `json:"issue_size,omitempty"`
	Status     Status `json:"status,omitempty"`

	// Demand figures (times subscribed, by investor category).
	QIBSubscription    *float64 `json:"qib_subscription,omitempty"`
	NIISubscription    *float64 `json:"nii_subscription,omitempty"`
	RetailSubscription *float64 `json:"retail_subscription,omitempty"`
	TotalSubscription  *float64 `json:"total_subscription,omitempty"`

	// Valuation / growth ratios where a source publishes them.
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"`
	ProfitGrowth  *float64 `json:"profit_growth,omitempty"`

	// Grey-market sentiment.
	GMP            *float64 `json:"gmp,omitempty"`
	EstListingGain *float64 `json:"est_listing_gain,omitempty"`
}

// SourceResult is the discriminated result every adapter operation
// returns. Adapters never let an error escape their boundary; internal
// failures are folded into the failure variant.
type SourceResult struct {
	Success        bool       `json:"success"`
	Data           []Offering `json:"data"`
	Err            string     `json:"error,omitempty"`
	Source         string     `json:"source"`
	Timestamp      time.Time  `json:"timestamp"`
	ResponseTimeMs int64      `json:"response_time_ms"`
}

// ActivityEntry is one append-only fetch-outcome row.
type ActivityEntry struct {
	ID        string    `json:"id" db:"id"`
	Source    string    `json:"source" db:"source"`
	Operation Operation `json:"operation" db:"operation"`
	Outcome   string    `json:"outcome" db:"outcome"` // success | error | timeout
	Records   int       `json:"records" db:"records"`
	LatencyMs int64     `json:"latency_ms" db:"latency_ms"`
	Error     string    `json:"error,omitempty" db:"error"`
	At        time.Time `json:"at" db:"at"`
}

// QuotaStatus reports the rate-limited source's daily budget.
type QuotaStatus struct {
	Date      string `json:"date"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
}

// ProbeResult is a standalone connectivity check outcome.
type ProbeResult struct {
	Source    string `json:"source"`
	Success   bool   `json:"success"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}
