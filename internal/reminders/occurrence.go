package reminders

import (
	"time"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

// NextOccurrence returns the first anniversary of date's month and day that
// falls on or after now's calendar day, at midnight UTC. February 29 falls
// back to February 28 in non-leap years.
func NextOccurrence(date, now time.Time) time.Time {
	today := types.DateOnly(now)
	next := onYear(date, today.Year())
	if next.Before(today) {
		next = onYear(date, today.Year()+1)
	}
	return next
}

// onYear places date's month and day in year.
func onYear(date time.Time, year int) time.Time {
	month, day := date.Month(), date.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(types.DateOnly(b).Sub(types.DateOnly(a)).Hours() / 24)
}
