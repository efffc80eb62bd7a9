package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// ExpiryLayout is the layout used when showing token expiry times
const ExpiryLayout = "2006-01-02 15:04:05 MST"

// FormatDuration formats a duration in a human-friendly way (e.g., "2 days, 3 hours and 45 minutes")
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	parts = appendUnit(parts, days, "day")
	parts = appendUnit(parts, hours, "hour")
	parts = appendUnit(parts, minutes, "minute")
	if len(parts) == 0 {
		parts = appendUnit(parts, seconds, "second")
	}

	switch len(parts) {
	case 0:
		return "0 seconds"
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

func appendUnit(parts []string, n int, unit string) []string {
	switch {
	case n == 1:
		return append(parts, "1 "+unit)
	case n > 1:
		return append(parts, fmt.Sprintf("%d %ss", n, unit))
	}
	return parts
}

// InTimezone converts t to the named IANA timezone.
// An empty or invalid timezone leaves t in local time.
func InTimezone(t time.Time, timezone string) time.Time {
	if timezone == "" {
		return t.Local()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return t.Local()
	}
	return t.In(loc)
}

// IsValidTimezone checks if a timezone string is valid
func IsValidTimezone(timezone string) bool {
	if timezone == "" {
		return false
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// DescribeExpiry summarizes an epoch-seconds expiry relative to now,
// e.g. "valid for 1 hour and 59 minutes" or "expired 3 minutes ago".
func DescribeExpiry(expiresAt int64, now time.Time) string {
	if expiresAt == 0 {
		return "no token"
	}
	expiry := time.Unix(expiresAt, 0)
	if now.Before(expiry) {
		return "valid for " + FormatDuration(expiry.Sub(now))
	}
	return "expired " + FormatDuration(now.Sub(expiry)) + " ago"
}
