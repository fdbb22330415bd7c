package usecase

import (
	"strings"

	"IPOPulse/internal/domain/models"
)

const (
	maxCompanyNameLen = 150
	maxSymbolLen      = 20
	maxSuffixTokens   = 2
)

// headerFingerprints are keyword groups that identify a scraped table
// header row masquerading as data. A company name containing every
// keyword of one group is rejected.
var headerFingerprints = [][]string{
	{"company", "name", "exchange"},
	{"security", "name", "exchange"},
	{"start date", "end date"},
	{"open date", "close date"},
	{"offer price", "face value"},
	{"price band", "lot size"},
	{"ipo name", "gmp"},
}

// rejectReason classifies why a record failed validation, for metrics.
type rejectReason string

const (
	rejectNoName      rejectReason = "name_missing"
	rejectLongName    rejectReason = "name_too_long"
	rejectHeaderRow   rejectReason = "header_row"
	rejectNoSymbol    rejectReason = "symbol_missing"
	rejectLongSymbol  rejectReason = "symbol_too_long"
	rejectConcatRows  rejectReason = "concatenated_rows"
)

// validateRecord admits a record to merging or names the reason it is
// structurally corrupt. Rejections are filtering decisions, not adapter
// failures; a source can partially succeed.
func validateRecord(rec models.Offering) (rejectReason, bool) {
	name := strings.TrimSpace(rec.CompanyName)
	if name == "" {
		return rejectNoName, false
	}
	if len(name) > maxCompanyNameLen {
		return rejectLongName, false
	}

	lower := strings.ToLower(name)
	for _, group := range headerFingerprints {
		matched := true
		for _, kw := range group {
			if !strings.Contains(lower, kw) {
				matched = false
				break
			}
		}
		if matched {
			return rejectHeaderRow, false
		}
	}

	symbol := strings.TrimSpace(rec.Symbol)
	if symbol == "" {
		return rejectNoSymbol, false
	}
	if len(symbol) > maxSymbolLen {
		return rejectLongSymbol, false
	}

	if countSuffixTokens(name) > maxSuffixTokens {
		return rejectConcatRows, false
	}

	return "", true
}
