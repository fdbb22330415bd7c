package usecase

import "testing"

func TestNormalizeSymbolStripsSuffixes(t *testing.T) {
	got := NormalizeSymbol("Tata Technologies Ltd.")
	if got != "TATATECHNOLOGIES" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNormalizeSymbolStripsPunctuation(t *testing.T) {
	got := NormalizeSymbol("j&k-infra pvt")
	if got != "JKINFRA" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNormalizeSymbolBoundsLength(t *testing.T) {
	got := NormalizeSymbol("Extraordinarily Long Corporate Identifier")
	if len(got) != maxNormalizedSymbolLen {
		t.Fatalf("expected %d chars, got %d (%q)", maxNormalizedSymbolLen, len(got), got)
	}
}

func TestNormalizeSymbolIdempotent(t *testing.T) {
	inputs := []string{
		"Tata Technologies Ltd.",
		"IREDA",
		"Swiggy Limited",
		"Extraordinarily Long Corporate Identifier",
	}
	for _, in := range inputs {
		once := NormalizeSymbol(in)
		twice := NormalizeSymbol(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeSymbolEmpty(t *testing.T) {
	if got := NormalizeSymbol("  Pvt. Ltd.  "); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestCountSuffixTokens(t *testing.T) {
	if n := countSuffixTokens("Alpha Industries Ltd Beta Pvt Ltd"); n != 3 {
		t.Fatalf("expected 3 suffix tokens, got %d", n)
	}
	if n := countSuffixTokens("Plain Name"); n != 0 {
		t.Fatalf("expected 0 suffix tokens, got %d", n)
	}
}
