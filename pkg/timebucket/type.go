package timebucket

import (
	"fmt"
	"strings"
	"time"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

type Resolution string

const (
	Hour  Resolution = "hour"
	Day   Resolution = "day"
	Week  Resolution = "week"
	Month Resolution = "month"
)

func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(strings.ToLower(strings.TrimSpace(s))); r {
	case Hour, Day, Week, Month:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown resolution %q (use hour, day, week or month)", ErrInvalidRange, s)
}

// Key returns the bucket label of t at the given resolution.
// Hour keys are "00".."23", day keys YYYY-MM-DD, week keys ISO YYYY-Www, month keys YYYY-MM.
func Key(res Resolution, t time.Time) string {
	t = t.UTC()
	switch res {
	case Hour:
		return fmt.Sprintf("%02d", t.Hour())
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Month:
		return t.Format("2006-01")
	default:
		return t.Format(types.DateLayout)
	}
}

// ReadingKey buckets a reading. Day and hour buckets come from the reading's
// stored Date and HourOfDay fields rather than re-deriving them.
func ReadingKey(res Resolution, r types.Reading) string {
	switch res {
	case Hour:
		return fmt.Sprintf("%02d", r.HourOfDay)
	case Day:
		if r.Date != "" {
			return r.Date
		}
	}
	return Key(res, r.Timestamp)
}

// DateRange is an inclusive range of UTC calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates YYYY-MM-DD bounds. maxDays <= 0 disables the size cap.
func NewDateRange(start, end string, maxDays int) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return newRange(s, e, maxDays)
}

func newRange(s, e time.Time, maxDays int) (DateRange, error) {
	if s.After(e) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			s.Format(types.DateLayout), e.Format(types.DateLayout))
	}
	r := DateRange{Start: DayStart(s), End: DayStart(e)}
	if maxDays > 0 && r.Days() > maxDays {
		return DateRange{}, fmt.Errorf("%w: %d days requested, at most %d allowed", ErrInvalidRange, r.Days(), maxDays)
	}
	return r, nil
}

// SingleDay is the range covering only day.
func SingleDay(day time.Time) DateRange {
	d := DayStart(day)
	return DateRange{Start: d, End: d}
}

// MonthRange covers every day of the given month.
func MonthRange(year, month int) (DateRange, error) {
	if month < 1 || month > 12 {
		return DateRange{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDateFormat, month)
	}
	if year < 1970 || year > 9999 {
		return DateRange{}, fmt.Errorf("%w: year %d out of range", ErrInvalidDateFormat, year)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: first, End: first.AddDate(0, 1, -1)}, nil
}

// Days is the inclusive number of calendar days in the range.
func (r DateRange) Days() int {
	return int((r.End.Unix()-r.Start.Unix())/86400) + 1
}

// Window returns the half-open instant interval covering the whole range.
func (r DateRange) Window() Window {
	return Window{From: r.Start, Until: NextDay(r.End)}
}

// Keys lists the expected bucket keys for the range, in order, with no gaps.
func (r DateRange) Keys(res Resolution) []string {
	switch res {
	case Hour:
		keys := make([]string, 24)
		for h := range keys {
			keys[h] = fmt.Sprintf("%02d", h)
		}
		return keys
	case Week:
		return r.stepKeys(res, weekStart(r.Start), func(t time.Time) time.Time { return t.AddDate(0, 0, 7) })
	case Month:
		return r.stepKeys(res, monthStart(r.Start), func(t time.Time) time.Time { return t.AddDate(0, 1, 0) })
	default:
		keys := make([]string, 0, r.Days())
		for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
			keys = append(keys, d.Format(types.DateLayout))
		}
		return keys
	}
}

func (r DateRange) stepKeys(res Resolution, first time.Time, next func(time.Time) time.Time) []string {
	var keys []string
	for t := first; !t.After(r.End); t = next(t) {
		keys = append(keys, Key(res, t))
	}
	return keys
}
