package units

import (
	"testing"
	"time"
)

func TestIsTimezoneValid(t *testing.T) {
	tests := []struct {
		tz   string
		want bool
	}{
		{"Asia/Singapore", true},
		{"UTC", true},
		{"America/New_York", true},
		{"", false},
		{"Not/A_Zone", false},
	}

	for _, tt := range tests {
		if got := IsTimezoneValid(tt.tz); got != tt.want {
			t.Errorf("IsTimezoneValid(%q) = %v, want %v", tt.tz, got, tt.want)
		}
	}
}

func TestConvertTime(t *testing.T) {
	utc := time.Date(2026, 8, 30, 16, 0, 0, 0, time.UTC)

	// Singapore is UTC+8 year round.
	sg, err := ConvertTime(utc, "Asia/Singapore")
	if err != nil {
		t.Fatalf("ConvertTime: %v", err)
	}
	if sg.Hour() != 0 || sg.Day() != 31 {
		t.Errorf("Singapore time = %v, want 2026-08-31 00:00", sg)
	}

	same, err := ConvertTime(utc, "UTC")
	if err != nil {
		t.Fatalf("ConvertTime UTC: %v", err)
	}
	if !same.Equal(utc) {
		t.Errorf("UTC conversion changed time: %v", same)
	}

	if _, err := ConvertTime(utc, "Not/A_Zone"); err == nil {
		t.Error("expected error for invalid timezone")
	}
}

func TestFormatLogTime(t *testing.T) {
	utc := time.Date(2026, 8, 30, 16, 5, 0, 0, time.UTC)

	if got := FormatLogTime(utc, "Asia/Singapore"); got != "2026-08-31 00:05" {
		t.Errorf("FormatLogTime = %q, want 2026-08-31 00:05", got)
	}

	// Invalid timezone falls back to UTC rather than failing the log line.
	if got := FormatLogTime(utc, "Not/A_Zone"); got != "2026-08-30 16:05" {
		t.Errorf("FormatLogTime fallback = %q, want 2026-08-30 16:05", got)
	}
}
