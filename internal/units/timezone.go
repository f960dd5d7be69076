// Package units provides timezone handling for displaying history timestamps.
// The database stores all times in UTC; the dashboard and the CSV log show
// them in the deployment's local timezone.
package units

import (
	"fmt"
	"time"
)

// DefaultTimezone is the causeway deployment's local timezone.
const DefaultTimezone = "Asia/Singapore"

// LogTimeFormat is the minute-resolution format used for history log lines.
const LogTimeFormat = "2006-01-02 15:04"

// IsTimezoneValid checks if the given timezone is valid by attempting to
// load it from the system tz database.
func IsTimezoneValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// ConvertTime converts a UTC time to the specified timezone.
func ConvertTime(utcTime time.Time, targetTimezone string) (time.Time, error) {
	if targetTimezone == "UTC" {
		return utcTime, nil // No conversion needed
	}

	loc, err := time.LoadLocation(targetTimezone)
	if err != nil {
		return utcTime, fmt.Errorf("failed to load timezone %s: %w", targetTimezone, err)
	}

	return utcTime.In(loc), nil
}

// FormatLogTime renders a UTC timestamp as a local log-line timestamp.
// Falls back to UTC if the timezone cannot be loaded.
func FormatLogTime(utcTime time.Time, targetTimezone string) string {
	local, err := ConvertTime(utcTime, targetTimezone)
	if err != nil {
		local = utcTime
	}
	return local.Format(LogTimeFormat)
}
