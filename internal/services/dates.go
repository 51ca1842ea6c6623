package services

import (
	"strings"
	"time"
)

const humanDateLayout = "Monday, 02/01/2006"

// formatHumanDate renders t in the club timezone for ledger reasons.
func formatHumanDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(humanDateLayout)
}

func formatHumanDates(dates []time.Time, loc *time.Location) string {
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		parts = append(parts, formatHumanDate(d, loc))
	}
	return strings.Join(parts, ", ")
}
