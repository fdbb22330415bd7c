package sources

import (
	"strings"

	"IPOPulse/internal/domain/models"
)

// symbolFromName derives a ticker-like identifier for sources that
// publish company names without symbols. The aggregator normalizes
// symbols again before merging, so this only needs to be stable per
// company, not exchange-accurate.
func symbolFromName(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(strings.ToUpper(name)) {
		w = strings.Trim(w, ".,")
		switch w {
		case "LIMITED", "LTD", "PVT", "PRIVATE", "INC", "CORP", "LLC", "PLC", "CO", "IPO":
			continue
		}
		for _, r := range w {
			if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() >= 20 {
			break
		}
	}
	s := b.String()
	if len(s) > 20 {
		s = s[:20]
	}
	return s
}

// parseStatus maps scraped status text to the lifecycle enum.
func parseStatus(s string) models.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "live", "current":
		return models.StatusOpen
	case "upcoming", "announced":
		return models.StatusUpcoming
	case "closed", "allotment":
		return models.StatusClosed
	case "listed":
		return models.StatusListed
	}
	return ""
}

// cellText trims a scraped table cell.
func cellText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
}
