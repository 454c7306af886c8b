package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestAddBusinessHoursSkipsWeekend(t *testing.T) {
	// Friday 2025-06-06 15:00 + 72h = Wednesday 2025-06-11 15:00.
	start := date(2025, time.June, 6, 15)
	if start.Weekday() != time.Friday {
		t.Fatalf("fixture is not a Friday: %s", start.Weekday())
	}

	got := AddBusinessHours(start, 72)
	want := date(2025, time.June, 11, 15)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got.Weekday() != time.Wednesday {
		t.Fatalf("expected Wednesday, got %s", got.Weekday())
	}
}

func TestAddBusinessHoursTruncatesPartialDays(t *testing.T) {
	start := date(2025, time.June, 2, 9) // Monday
	// 80h truncates to 3 business days, same as 72h.
	if got, want := AddBusinessHours(start, 80), AddBusinessHours(start, 72); !got.Equal(want) {
		t.Fatalf("expected truncation to whole days: %s vs %s", got, want)
	}
	// Less than a full day advances nothing.
	if got := AddBusinessHours(start, 23); !got.Equal(start) {
		t.Fatalf("expected start unchanged, got %s", got)
	}
}

func TestAddBusinessHoursPreservesTimeOfDay(t *testing.T) {
	start := time.Date(2025, time.June, 4, 16, 45, 30, 0, time.UTC) // Wednesday
	got := AddBusinessHours(start, 48)
	if got.Hour() != 16 || got.Minute() != 45 || got.Second() != 30 {
		t.Fatalf("time of day not preserved: %s", got)
	}
	if got.Weekday() != time.Friday {
		t.Fatalf("expected Friday, got %s", got.Weekday())
	}
}

func TestAddBusinessDaysFromWeekend(t *testing.T) {
	// Saturday + 1 business day lands on Monday.
	start := date(2025, time.June, 7, 10)
	got := AddBusinessDays(start, 1)
	if got.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %s", got.Weekday())
	}
}

func TestBusinessDaysBetween(t *testing.T) {
	from := date(2025, time.June, 6, 9) // Friday
	to := date(2025, time.June, 11, 9)  // Wednesday
	if got := BusinessDaysBetween(from, to); got != 3 {
		t.Fatalf("expected 3 business days, got %d", got)
	}
	if got := BusinessDaysBetween(to, from); got != 0 {
		t.Fatalf("expected 0 for reversed range, got %d", got)
	}
}
