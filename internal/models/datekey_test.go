package models

import (
	"testing"
	"time"
)

// TestIsDateKey verifies the strict YYYY-MM-DD pattern used by the date axis.
func TestIsDateKey(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-05-01", true},
		{"2024-1-5", false},
		{"13/45/2024", false},
		{"2024-05-01T10:00:00Z", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsDateKey(tt.in); got != tt.want {
			t.Errorf("IsDateKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestNormalizeDateKeyLocalCalendar verifies timestamps are keyed by the local
// calendar date, not by slicing the UTC string. 01:30 UTC on May 2 is still
// May 1 in New York.
func TestNormalizeDateKeyLocalCalendar(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	got, err := NormalizeDateKey("2024-05-02T01:30:00.000Z", ny)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2024-05-01" {
		t.Errorf("got %q, want 2024-05-01", got)
	}

	got, err = NormalizeDateKey("2024-05-02T01:30:00.000Z", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2024-05-02" {
		t.Errorf("UTC: got %q, want 2024-05-02", got)
	}
}

// TestNormalizeDateKeyLegacy verifies legacy slash dates are repaired and
// impossible dates are rejected.
func TestNormalizeDateKeyLegacy(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024/5/3", "2024-05-03", false},
		{"05/03/2024", "2024-05-03", false},
		{"13/45/2024", "", true},
		{"2024-02-30", "", true},
		{"yesterday", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeDateKey(tt.in, time.UTC)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeDateKey(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeDateKey(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeDateKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestDateKeyFromEpochMillis verifies JavaScript millisecond timestamps.
func TestDateKeyFromEpochMillis(t *testing.T) {
	ms := float64(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli())
	if got := DateKeyFromEpochMillis(ms, time.UTC); got != "2024-05-01" {
		t.Errorf("got %q, want 2024-05-01", got)
	}
}
