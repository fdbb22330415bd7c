package util

import (
	"strings"
	"time"
)

// listingDateLayouts covers the date spellings the tracked sources use.
var listingDateLayouts = []string{
	"2 Jan 2006",
	"2 Jan, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
}

// ParseListingDate parses a scraped date cell. Returns (t, true) when
// any known layout matched.
func ParseListingDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range listingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseListingDatePtr is ParseListingDate returning nil on failure, for
// direct assignment into optional record fields.
func ParseListingDatePtr(s string) *time.Time {
	if t, ok := ParseListingDate(s); ok {
		return &t
	}
	return nil
}
