package http

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseYearMonth(t *testing.T) {
	now := time.Now()
	cases := []struct {
		url         string
		year, month int
	}{
		{"/documents/download?year=2024&month=3", 2024, 3},
		{"/documents/download?year=2024&month=13", 2024, int(now.Month())},
		{"/documents/download?year=2024&month=0", 2024, int(now.Month())},
		{"/documents/download?year=2024&month=abc", 2024, int(now.Month())},
		{"/documents/download?year=2024", 2024, int(now.Month())},
		{"/documents/download", now.Year(), int(now.Month())},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", tc.url, nil)
		year, month := parseYearMonth(r)
		if year != tc.year || month != tc.month {
			t.Errorf("parseYearMonth(%s) = %d-%d, want %d-%d", tc.url, year, month, tc.year, tc.month)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatPLN(1500); got != "1500,00 zł" {
		t.Errorf("formatPLN(1500) = %q", got)
	}
	if got := formatPLN(-12.5); got != "-12,50 zł" {
		t.Errorf("formatPLN(-12.5) = %q", got)
	}
	if got := formatHours(2.5); got != "2,5 h" {
		t.Errorf("formatHours(2.5) = %q", got)
	}
	if got := formatHours(40); got != "40 h" {
		t.Errorf("formatHours(40) = %q", got)
	}
}
