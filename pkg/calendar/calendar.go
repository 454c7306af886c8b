// Package calendar provides business-day arithmetic for deadline
// computation. Weekends are skipped; public holidays are intentionally
// out of scope and must be handled by the operator when agreeing
// deadlines that straddle one.
package calendar

import "time"

// AddBusinessHours advances start by whole business days. Hours are
// truncated to full days (72 hours is exactly 3 business days), the
// time-of-day of start is preserved, and Saturdays and Sundays never
// count toward the total.
func AddBusinessHours(start time.Time, hours int) time.Time {
	days := hours / 24
	return AddBusinessDays(start, days)
}

// AddBusinessDays advances start by the given number of weekdays.
func AddBusinessDays(start time.Time, days int) time.Time {
	t := start
	for remaining := days; remaining > 0; {
		t = t.AddDate(0, 0, 1)
		if isBusinessDay(t) {
			remaining--
		}
	}
	return t
}

// BusinessDaysBetween counts the weekdays strictly after from up to and
// including to. Returns 0 when to is not after from.
func BusinessDaysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	count := 0
	t := from
	for {
		t = t.AddDate(0, 0, 1)
		if t.After(to) {
			break
		}
		if isBusinessDay(t) {
			count++
		}
	}
	return count
}

func isBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
