package usecase

import (
	"strings"
	"time"

	"IPOPulse/internal/domain/models"
)

// placeholders are string values sources publish when they do not know
// a field yet. They never win a merge.
var placeholders = map[string]bool{
	"": true, "TBA": true, "N/A": true, "NA": true, "--": true, "-": true,
}

func isPlaceholder(s string) bool {
	return placeholders[strings.ToUpper(strings.TrimSpace(s))]
}

// mergeKeepExisting folds src into dst under the first-known-good-value
// rule: a field is only overwritten while the existing value is still a
// placeholder or unset. The rule is applied per field over the full set
// of records, so the merged result is independent of settle order.
func mergeKeepExisting(dst *models.MergedEntity, src models.Offering) {
	mergeString(&dst.CompanyName, src.CompanyName)
	mergeString(&dst.PriceRange, src.PriceRange)
	mergeString(&dst.IssueSize, src.IssueSize)
	if dst.Status == "" && src.Status != "" {
		dst.Status = src.Status
	}
	if dst.LotSize == 0 && src.LotSize != 0 {
		dst.LotSize = src.LotSize
	}

	mergeDate(&dst.OpenDate, src.OpenDate)
	mergeDate(&dst.CloseDate, src.CloseDate)
	mergeDate(&dst.ListingDate, src.ListingDate)

	mergeFloat(&dst.QIBSubscription, src.QIBSubscription)
	mergeFloat(&dst.NIISubscription, src.NIISubscription)
	mergeFloat(&dst.RetailSubscription, src.RetailSubscription)
	mergeFloat(&dst.TotalSubscription, src.TotalSubscription)
	mergeFloat(&dst.PERatio, src.PERatio)
	mergeFloat(&dst.RevenueGrowth, src.RevenueGrowth)
	mergeFloat(&dst.ProfitGrowth, src.ProfitGrowth)
	mergeFloat(&dst.GMP, src.GMP)
	mergeFloat(&dst.EstListingGain, src.EstListingGain)
}

// mergeLargestSignal is the sentiment-specific policy: grey-market
// premiums are most often under-reported by slower sources, so the
// numerically largest reported value is treated as most current. All
// other fields still follow first-known-good-value-wins.
func mergeLargestSignal(dst *models.MergedEntity, src models.Offering) {
	gmp := dst.GMP
	est := dst.EstListingGain

	mergeKeepExisting(dst, src)

	if src.GMP != nil && (gmp == nil || *src.GMP > *gmp) {
		v := *src.GMP
		gmp = &v
	}
	dst.GMP = gmp

	if src.EstListingGain != nil && (est == nil || *src.EstListingGain > *est) {
		v := *src.EstListingGain
		est = &v
	}
	dst.EstListingGain = est
}

func mergeString(dst *string, src string) {
	if isPlaceholder(*dst) && !isPlaceholder(src) {
		*dst = src
	}
}

func mergeFloat(dst **float64, src *float64) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func mergeDate(dst **time.Time, src *time.Time) {
	if *dst == nil && src != nil {
		t := *src
		*dst = &t
	}
}

// trendWindow is the dead band around zero movement; GMP shifts within
// ±5 between the first and last observation count as stable.
const trendWindow = 5.0

func deriveTrend(observed []float64) models.Trend {
	if len(observed) < 2 {
		return models.TrendStable
	}
	delta := observed[len(observed)-1] - observed[0]
	switch {
	case delta > trendWindow:
		return models.TrendRising
	case delta < -trendWindow:
		return models.TrendFalling
	default:
		return models.TrendStable
	}
}

// deriveConfidence maps source agreement to the coarse trust label:
// two or more contributing sources is high, a single contributor out of
// several queried is medium, anything thinner is low.
func deriveConfidence(contributed, queried int) models.Confidence {
	switch {
	case contributed >= 2:
		return models.ConfidenceHigh
	case contributed == 1 && queried >= 2:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
