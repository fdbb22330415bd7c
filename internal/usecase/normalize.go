package usecase

import "strings"

// corporate suffix tokens stripped during symbol normalization and
// counted by the validation filter.
var corporateSuffixes = []string{
	"LIMITED", "LTD", "PVT", "PRIVATE", "INC", "CORP", "LLC", "PLC", "CO",
}

// maxNormalizedSymbolLen bounds normalized keys so one source's
// overlong identifier cannot poison the merge keyspace.
const maxNormalizedSymbolLen = 16

// NormalizeSymbol reduces a symbol or company identifier to the merge
// key: corporate suffixes stripped, non-alphanumerics removed,
// uppercased, length-bounded. Idempotent: normalizing an already
// normalized symbol is a no-op.
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		trimmed := strings.Trim(w, ".,")
		if isCorporateSuffix(trimmed) {
			continue
		}
		kept = append(kept, w)
	}
	s = strings.Join(kept, "")

	var b strings.Builder
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if len(s) > maxNormalizedSymbolLen {
		s = s[:maxNormalizedSymbolLen]
	}
	return s
}

func isCorporateSuffix(w string) bool {
	for _, suffix := range corporateSuffixes {
		if w == suffix {
			return true
		}
	}
	return false
}

// countSuffixTokens counts corporate-suffix occurrences in a company
// name. More than two is a sign several rows' names were concatenated
// into one scraped cell.
func countSuffixTokens(name string) int {
	count := 0
	for _, w := range strings.Fields(strings.ToUpper(name)) {
		if isCorporateSuffix(strings.Trim(w, ".,")) {
			count++
		}
	}
	return count
}
