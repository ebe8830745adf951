package utils

import (
	"fmt"
	"time"
)

// RelativeTime renders a coarse human-readable age for a timestamp:
// "just now", "5 minutes ago", "1 hour ago" and so on. Months use a
// 30-day approximation and years a 365-day one. It is display-only and
// recomputed on every read, never stored.
func RelativeTime(t, now time.Time) string {
	seconds := int64(now.Sub(t).Seconds())
	if seconds < 60 {
		return "just now"
	}
	if seconds < 3600 {
		return pluralize(seconds/60, "minute")
	}
	if seconds < 86400 {
		return pluralize(seconds/3600, "hour")
	}
	if seconds < 2592000 {
		return pluralize(seconds/86400, "day")
	}
	if seconds < 31536000 {
		return pluralize(seconds/2592000, "month")
	}
	return pluralize(seconds/31536000, "year")
}

func pluralize(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
