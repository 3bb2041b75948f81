package domain

import "time"

// DateLayout is the wire format for subscription dates in state snapshots.
const DateLayout = "2006-01-02"

// CalculateEndDate returns the end date for a subscription starting at
// startDate and running durationDays.
func CalculateEndDate(startDate time.Time, durationDays int) time.Time {
	return startDate.AddDate(0, 0, durationDays)
}

// ExtendEndDate pushes an existing end date out by additionalDays.
func ExtendEndDate(currentEndDate time.Time, additionalDays int) time.Time {
	return currentEndDate.AddDate(0, 0, additionalDays)
}

// ParseDate parses a snapshot date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a snapshot date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
