package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

// ParseFloatLoose extracts a float from a scraped cell, tolerating
// currency signs, thousands separators, and trailing unit markers like
// "65.4x" or "₹50 (23%)". Returns nil when no number is present.
func ParseFloatLoose(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var b strings.Builder
	seenDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			seenDigit = true
		case r == '.' && seenDigit:
			b.WriteRune(r)
		case r == '-' && !seenDigit && b.Len() == 0:
			b.WriteRune(r)
		case r == ',':
			// thousands separator
		default:
			if seenDigit {
				// stop at first non-numeric after the number started
				v, err := strconv.ParseFloat(b.String(), 64)
				if err != nil {
					return nil
				}
				return &v
			}
		}
	}
	if !seenDigit {
		return nil
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return &v
}
