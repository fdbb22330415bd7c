package usecase

import (
	"strings"
	"testing"

	"IPOPulse/internal/domain/models"
)

func TestValidateRecordAccepts(t *testing.T) {
	rec := models.Offering{Symbol: "IREDA", CompanyName: "IREDA Limited"}
	if reason, ok := validateRecord(rec); !ok {
		t.Fatalf("expected valid, rejected with %q", reason)
	}
}

func TestValidateRecordMissingName(t *testing.T) {
	rec := models.Offering{Symbol: "ABC", CompanyName: "   "}
	reason, ok := validateRecord(rec)
	if ok || reason != rejectNoName {
		t.Fatalf("expected %q, got %q ok=%v", rejectNoName, reason, ok)
	}
}

func TestValidateRecordOverlongName(t *testing.T) {
	rec := models.Offering{Symbol: "ABC", CompanyName: strings.Repeat("x", 200)}
	reason, ok := validateRecord(rec)
	if ok || reason != rejectLongName {
		t.Fatalf("expected %q, got %q ok=%v", rejectLongName, reason, ok)
	}
}

func TestValidateRecordHeaderRow(t *testing.T) {
	headers := []string{
		"Company Name Exchange",
		"Start Date End Date",
		"Price Band Lot Size",
		"IPO Name GMP",
	}
	for _, h := range headers {
		rec := models.Offering{Symbol: "ABC", CompanyName: h}
		reason, ok := validateRecord(rec)
		if ok || reason != rejectHeaderRow {
			t.Fatalf("header %q: expected %q, got %q ok=%v", h, rejectHeaderRow, reason, ok)
		}
	}
}

func TestValidateRecordMissingSymbol(t *testing.T) {
	rec := models.Offering{CompanyName: "Plain Company"}
	reason, ok := validateRecord(rec)
	if ok || reason != rejectNoSymbol {
		t.Fatalf("expected %q, got %q ok=%v", rejectNoSymbol, reason, ok)
	}
}

func TestValidateRecordOverlongSymbol(t *testing.T) {
	rec := models.Offering{Symbol: strings.Repeat("A", 21), CompanyName: "Plain Company"}
	reason, ok := validateRecord(rec)
	if ok || reason != rejectLongSymbol {
		t.Fatalf("expected %q, got %q ok=%v", rejectLongSymbol, reason, ok)
	}
}

func TestValidateRecordConcatenatedRows(t *testing.T) {
	rec := models.Offering{
		Symbol:      "ABC",
		CompanyName: "Alpha Ltd Beta Pvt Gamma Ltd",
	}
	reason, ok := validateRecord(rec)
	if ok || reason != rejectConcatRows {
		t.Fatalf("expected %q, got %q ok=%v", rejectConcatRows, reason, ok)
	}
}

func TestValidateRecordTwoSuffixesPass(t *testing.T) {
	rec := models.Offering{Symbol: "ABC", CompanyName: "Alpha Beta Pvt Ltd"}
	if reason, ok := validateRecord(rec); !ok {
		t.Fatalf("two suffix tokens should pass, rejected with %q", reason)
	}
}
