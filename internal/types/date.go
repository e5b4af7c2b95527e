package types

import (
	"fmt"
	"time"
)

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of calendar days from start to end.
// It is negative when end is before start.
func DaysBetween(start, end time.Time) int {
	s := StartOfDay(start.UTC())
	e := StartOfDay(end.UTC())
	// Rounded to absorb leap seconds and DST shifts in non-UTC inputs
	return int(e.Sub(s).Round(24*time.Hour) / (24 * time.Hour))
}

// NextBillingDate adds billingFrequency months to start.
// For example a start of 2017-01-31 with a frequency of 1 lands on
// 2017-02-28, since the day is clamped to the last day of the month.
func NextBillingDate(start time.Time, billingFrequency int) (time.Time, error) {
	if billingFrequency <= 0 {
		return start, fmt.Errorf("billing frequency must be a positive number of months, got %d", billingFrequency)
	}
	return AddClampedDate(start, 0, billingFrequency, 0), nil
}

// PaidThroughDate is the last paid day of a cycle starting at start:
// the day before the next billing date.
func PaidThroughDate(start time.Time, billingFrequency int) (time.Time, error) {
	next, err := NextBillingDate(start, billingFrequency)
	if err != nil {
		return start, err
	}
	return next.AddDate(0, 0, -1), nil
}

// AddClampedDate adds years and months keeping the day of month inside the
// target month, then adds days without clamping.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	// Adding 2 months to November lands on January next year
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	lastDay := time.Date(newY, newM+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}

	return time.Date(newY, newM, d, h, min, sec, t.Nanosecond(), t.Location()).AddDate(0, 0, days)
}
