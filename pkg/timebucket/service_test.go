package timebucket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"", "2024-3-1", "01-03-2024", "2024-02-30", "yesterday"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDateFormat, bad)
	}
}

func TestDayBoundariesAreUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 2024-03-01 22:00 at UTC-5 is 2024-03-02 03:00 UTC
	local := time.Date(2024, 3, 1, 22, 0, 0, 0, loc)

	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), DayStart(local))
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), NextDay(local))
	assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, int(999*time.Millisecond), time.UTC), DayEnd(local))
}

func TestNewDateRange(t *testing.T) {
	r, err := NewDateRange("2024-03-01", "2024-03-03", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Days())
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, r.Keys(Day))

	w := r.Window()
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), w.Until)

	single, err := NewDateRange("2024-03-01", "2024-03-01", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, single.Days())
}

func TestNewDateRangeErrors(t *testing.T) {
	_, err := NewDateRange("2024-03-05", "2024-03-01", 0)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewDateRange("2024-03-01", "nope", 0)
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	_, err = NewDateRange("2020-01-01", "2024-12-31", 366)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDaysAcrossLeapYear(t *testing.T) {
	r, err := NewDateRange("2024-01-01", "2024-12-31", 0)
	require.NoError(t, err)
	assert.Equal(t, 366, r.Days())
	assert.Len(t, r.Keys(Day), 366)
}

func TestMonthRange(t *testing.T) {
	r, err := MonthRange(2024, 2)
	require.NoError(t, err)
	assert.Equal(t, 29, r.Days())
	assert.Equal(t, "2024-02-29", r.End.Format(types.DateLayout))

	_, err = MonthRange(2024, 13)
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
	_, err = MonthRange(10, 1)
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
}

func TestWeekAndMonthKeys(t *testing.T) {
	r, err := NewDateRange("2024-02-28", "2024-03-12", 0)
	require.NoError(t, err)

	// 2024-02-28 is a Wednesday in ISO week 9
	assert.Equal(t, []string{"2024-W09", "2024-W10", "2024-W11"}, r.Keys(Week))
	assert.Equal(t, []string{"2024-02", "2024-03"}, r.Keys(Month))
	assert.Len(t, r.Keys(Hour), 24)

	// ISO week years differ from calendar years at the boundary
	assert.Equal(t, "2025-W01", Key(Week, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)))
}

func TestReadingKeyUsesStoredFields(t *testing.T) {
	r := types.Reading{
		Timestamp: time.Date(2024, 3, 1, 10, 40, 0, 0, time.UTC),
		Date:      "2024-03-01",
		HourOfDay: 10,
	}
	assert.Equal(t, "10", ReadingKey(Hour, r))
	assert.Equal(t, "2024-03-01", ReadingKey(Day, r))
	assert.Equal(t, "2024-W09", ReadingKey(Week, r))
	assert.Equal(t, "2024-03", ReadingKey(Month, r))
}

func TestParseResolution(t *testing.T) {
	res, err := ParseResolution(" Week ")
	require.NoError(t, err)
	assert.Equal(t, Week, res)

	_, err = ParseResolution("fortnight")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSlots(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, SlotIndex(day))
	assert.Equal(t, 0, SlotIndex(day.Add(19*time.Minute)))
	assert.Equal(t, 1, SlotIndex(day.Add(20*time.Minute)))
	assert.Equal(t, 71, SlotIndex(DayEnd(day)))

	now := time.Date(2024, 3, 1, 10, 45, 0, 0, time.UTC)
	assert.Equal(t, 32, CurrentSlot(day, now))
	assert.Equal(t, SlotsPerDay-1, CurrentSlot(day.AddDate(0, 0, -1), now))
	assert.Equal(t, -1, CurrentSlot(day.AddDate(0, 0, 1), now))
}

func TestSoFarUntil(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 45, 0, 0, time.UTC)
	assert.Equal(t, now, SoFarUntil(now, now))
	yesterday := now.AddDate(0, 0, -1)
	assert.Equal(t, DayEnd(yesterday), SoFarUntil(yesterday, now))
}

func TestTrailing(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 45, 0, 0, time.UTC)
	w := Trailing(now)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), w.Today.From)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), w.Today.Until)
	assert.True(t, w.TodaySoFar.Until.After(now))
	assert.True(t, w.TodaySoFar.Until.Before(w.Today.Until))
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), w.Week.From)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), w.Month.From)
}
