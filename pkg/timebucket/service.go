// Package timebucket turns calendar input into UTC-aligned bucket boundaries.
// Every day boundary in the system is a UTC midnight.
package timebucket

import (
	"fmt"
	"strings"
	"time"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

var (
	ErrInvalidDateFormat = fmt.Errorf("invalid date format")
	ErrInvalidRange      = fmt.Errorf("invalid date range")
)

const (
	SlotsPerDay = 72
	SlotWidth   = 20 * time.Minute
)

// ParseDate parses a YYYY-MM-DD string as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(types.DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (use YYYY-MM-DD)", ErrInvalidDateFormat, s)
	}
	return t, nil
}

// DayStart returns UTC midnight of the day t falls on.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the midnight following t's day. Range queries use [DayStart, NextDay).
func NextDay(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, 1)
}

// DayEnd returns 23:59:59.999 of t's day.
func DayEnd(t time.Time) time.Time {
	return NextDay(t).Add(-time.Millisecond)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Monday midnight of t's ISO week.
func weekStart(t time.Time) time.Time {
	day := DayStart(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// IsToday reports whether day is the current UTC day.
func IsToday(day, now time.Time) bool {
	return DayStart(day).Equal(DayStart(now))
}

// SoFarUntil is the upper bound for "usage so far" on day: the current instant
// when day is today, the end of the day otherwise.
func SoFarUntil(day, now time.Time) time.Time {
	if IsToday(day, now) {
		return now.UTC()
	}
	return DayEnd(day)
}

// SlotIndex returns the 20-minute slot of t within its UTC day.
func SlotIndex(t time.Time) int {
	t = t.UTC()
	return (t.Hour()*60 + t.Minute()) / int(SlotWidth/time.Minute)
}

// CurrentSlot is the slot "current usage" is read from: the slot of now when day
// is today, the last slot for past days and -1 for days that have not started.
func CurrentSlot(day, now time.Time) int {
	switch {
	case IsToday(day, now):
		return SlotIndex(now)
	case DayStart(day).After(now):
		return -1
	default:
		return SlotsPerDay - 1
	}
}

// Window is a half-open time interval [From, Until).
type Window struct {
	From  time.Time
	Until time.Time
}

// Windows holds the trailing windows behind the stats endpoint.
type Windows struct {
	Today      Window
	TodaySoFar Window
	Week       Window
	Month      Window
}

// Trailing builds the today/week/month windows relative to now.
// Week and month start at the midnight 7 days / one calendar month before today.
func Trailing(now time.Time) Windows {
	now = now.UTC()
	today := DayStart(now)
	// inclusive of now
	soFar := now.Add(time.Nanosecond)
	return Windows{
		Today:      Window{From: today, Until: NextDay(today)},
		TodaySoFar: Window{From: today, Until: soFar},
		Week:       Window{From: today.AddDate(0, 0, -7), Until: soFar},
		Month:      Window{From: today.AddDate(0, -1, 0), Until: soFar},
	}
}
