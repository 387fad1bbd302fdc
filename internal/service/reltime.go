package service

import (
	"fmt"
	"time"
)

// RelativeTime renders the distance between createdAt and now as "N unit(s) ago".
// Months are 30 days and years 365 days. Future timestamps render as "0 seconds ago".
func RelativeTime(createdAt, now time.Time) string {
	d := now.Sub(createdAt)
	if d < 0 {
		d = 0
	}

	seconds := int64(d / time.Second)
	switch {
	case seconds < 60:
		return ago(seconds, "second")
	case seconds < 60*60:
		return ago(seconds/60, "minute")
	case seconds < 24*60*60:
		return ago(seconds/(60*60), "hour")
	}

	days := seconds / (24 * 60 * 60)
	switch {
	case days < 30:
		return ago(days, "day")
	case days < 365:
		months := days / 30
		if months > 11 {
			months = 11
		}
		return ago(months, "month")
	default:
		return ago(days/365, "year")
	}
}

func ago(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
