package dates

import (
	"testing"
	"time"
)

// TestNormalize verifies server timestamps keep the calendar date they were
// written for, whatever offset they carry.
func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-03-01", "2025-03-01"},
		{"2025-03-01T00:00:00Z", "2025-03-01"},
		{"2025-03-01T00:00:00.000Z", "2025-03-01"},
		{"2025-03-01T23:30:00-08:00", "2025-03-01"},
		{"2025-03-01T01:00:00+09:00", "2025-03-01"},
		{"2025-03-01T10:15:00", "2025-03-01"},
		{"  2025-03-01  ", "2025-03-01"},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if err != nil {
			t.Errorf("Normalize(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, in := range []string{"", "yesterday", "03/01/2025"} {
		if _, err := Normalize(in); err == nil {
			t.Errorf("Normalize(%q) expected error", in)
		}
	}
}

// TestToday verifies "today" is taken from the wall clock of the given zone,
// not from UTC.
func TestToday(t *testing.T) {
	// 2025-03-02 03:00 UTC is still 2025-03-01 in Los Angeles.
	now := time.Date(2025, 3, 2, 3, 0, 0, 0, time.UTC)
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skip("tzdata not available")
	}
	if got := Today(now, la); got != "2025-03-01" {
		t.Errorf("Today(LA) = %q, want 2025-03-01", got)
	}
	if got := Today(now, time.UTC); got != "2025-03-02" {
		t.Errorf("Today(UTC) = %q, want 2025-03-02", got)
	}
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2025-03-01", -7)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-02-22" {
		t.Errorf("AddDays = %q, want 2025-02-22", got)
	}
	if _, err := AddDays("bad", 1); err == nil {
		t.Error("expected error for bad key")
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("2025-03-01", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Parse = %v", got)
	}
}
