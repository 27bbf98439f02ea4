package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewDefaultsToMondayFriday(t *testing.T) {
	c, err := New(nil, nil)
	require.NoError(t, err)

	assert.True(t, c.IsBusinessDay(date(2026, time.March, 2)))  // Monday
	assert.True(t, c.IsBusinessDay(date(2026, time.March, 6)))  // Friday
	assert.False(t, c.IsBusinessDay(date(2026, time.March, 7))) // Saturday
	assert.False(t, c.IsBusinessDay(date(2026, time.March, 8))) // Sunday
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New([]int{7}, nil)
	assert.Error(t, err)

	_, err = New(nil, []HolidaySpec{{Date: "not-a-date"}})
	assert.Error(t, err)

	_, err = New(nil, []HolidaySpec{{Name: "empty rule"}})
	assert.Error(t, err)
}

func TestIsHolidayFixedDates(t *testing.T) {
	c := MustNew(nil, []HolidaySpec{
		{Name: "one off", Date: "2026-04-03"},
		{Name: "new year", Date: "01-01"},
	})

	assert.True(t, c.IsHoliday(date(2026, time.April, 3)))
	assert.False(t, c.IsHoliday(date(2027, time.April, 3)))

	assert.True(t, c.IsHoliday(date(2026, time.January, 1)))
	assert.True(t, c.IsHoliday(date(2027, time.January, 1)))
}

func TestIsHolidayNthWeekdayOfMonth(t *testing.T) {
	// Second Monday of June, the King's Birthday pattern.
	c := MustNew(nil, []HolidaySpec{
		{Name: "kings birthday", Month: 6, Weekday: 1, Nth: 2},
	})

	assert.True(t, c.IsHoliday(date(2026, time.June, 8)))
	assert.False(t, c.IsHoliday(date(2026, time.June, 1)))
	assert.True(t, c.IsHoliday(date(2027, time.June, 14)))
}

func TestIsHolidayLastWeekdayOfMonth(t *testing.T) {
	// Last Monday of May.
	c := MustNew(nil, []HolidaySpec{
		{Name: "memorial day", Month: 5, Weekday: 1, Nth: -1},
	})

	assert.True(t, c.IsHoliday(date(2026, time.May, 25)))
	assert.False(t, c.IsHoliday(date(2026, time.May, 18)))
}

func TestIsHolidayNthWeekdayAfterReference(t *testing.T) {
	// First Friday strictly after March 10.
	c := MustNew(nil, []HolidaySpec{
		{Name: "floating", Month: 3, AfterDay: 10, Weekday: 5, Nth: 1},
	})

	// March 10 2026 is a Tuesday; the next Friday is March 13.
	assert.True(t, c.IsHoliday(date(2026, time.March, 13)))
	assert.False(t, c.IsHoliday(date(2026, time.March, 20)))
}

func TestBusinessDaysRemaining(t *testing.T) {
	c := MustNew(nil, nil)

	// Thursday today, Friday deadline: one business day left.
	thursday := date(2026, time.March, 5)
	friday := date(2026, time.March, 6)
	assert.Equal(t, 1, c.BusinessDaysRemaining(friday, thursday))

	// Same day is zero.
	assert.Equal(t, 0, c.BusinessDaysRemaining(friday, friday))

	// Saturday today, Friday deadline: already overdue.
	saturday := date(2026, time.March, 7)
	assert.LessOrEqual(t, c.BusinessDaysRemaining(friday, saturday), 0)

	// Monday today, Friday deadline a week later skips the weekend.
	monday := date(2026, time.March, 2)
	nextFriday := date(2026, time.March, 13)
	assert.Equal(t, 9, c.BusinessDaysRemaining(nextFriday, monday))
}

func TestBusinessDaysRemainingSkipsHolidays(t *testing.T) {
	c := MustNew(nil, []HolidaySpec{{Date: "2026-03-04"}}) // Wednesday

	monday := date(2026, time.March, 2)
	friday := date(2026, time.March, 6)
	assert.Equal(t, 3, c.BusinessDaysRemaining(friday, monday))
}

func TestAddBusinessDays(t *testing.T) {
	c := MustNew(nil, []HolidaySpec{{Date: "2026-03-04"}})

	// Monday + 3 business days skips the Wednesday holiday, landing Friday.
	monday := date(2026, time.March, 2)
	assert.Equal(t, date(2026, time.March, 6), c.AddBusinessDays(monday, 3))

	// Friday + 1 business day lands the following Monday.
	friday := date(2026, time.March, 6)
	assert.Equal(t, date(2026, time.March, 9), c.AddBusinessDays(friday, 1))

	// Zero leaves the date unchanged.
	assert.Equal(t, monday, c.AddBusinessDays(monday, 0))
}

func TestCustomWorkweek(t *testing.T) {
	// Sunday through Thursday workweek.
	c := MustNew([]int{0, 1, 2, 3, 4}, nil)

	assert.True(t, c.IsBusinessDay(date(2026, time.March, 8)))  // Sunday
	assert.False(t, c.IsBusinessDay(date(2026, time.March, 6))) // Friday
}
