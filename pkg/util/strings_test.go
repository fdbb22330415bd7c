package util

import "testing"

func TestParseFloatLoose(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"55", 55},
		{"₹55", 55},
		{"65.4x", 65.4},
		{"₹50 (23%)", 50},
		{"1,20,000", 120000},
		{"-12.5", -12.5},
		{"  2.88x  ", 2.88},
	}
	for _, tc := range cases {
		got := ParseFloatLoose(tc.in)
		if got == nil {
			t.Fatalf("%q: expected %v, got nil", tc.in, tc.want)
		}
		if *got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.in, tc.want, *got)
		}
	}
}

func TestParseFloatLooseNoNumber(t *testing.T) {
	for _, in := range []string{"", "TBA", "--", "N/A", "x"} {
		if got := ParseFloatLoose(in); got != nil {
			t.Fatalf("%q: expected nil, got %v", in, *got)
		}
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("empty should default, got %d", got)
	}
	if got := ParseIntDefault("12", 7); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if got := ParseIntDefault("junk", 7); got != 7 {
		t.Fatalf("invalid should default, got %d", got)
	}
}
