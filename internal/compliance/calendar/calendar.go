// Package calendar provides business-day arithmetic over configurable
// holiday and workweek sets. All functions are deterministic and free of
// side effects so they can back deadline math for any jurisdiction.
package calendar

import (
	"fmt"
	"time"
)

// HolidaySpec describes one holiday, either as a fixed date or as a floating
// rule. Exactly one form should be populated:
//
//   - Date "2026-01-26": a one-off holiday in that year only.
//   - Date "01-26": recurs annually on that month and day.
//   - Month + Weekday + Nth: the Nth occurrence of Weekday in Month
//     (Nth = -1 means the last occurrence, e.g. "last Monday of May").
//   - Month + AfterDay + Weekday + Nth: the Nth Weekday strictly after the
//     reference date Month/AfterDay ("second Friday after a reference date").
type HolidaySpec struct {
	Name     string `json:"name,omitempty" mapstructure:"name"`
	Date     string `json:"date,omitempty" mapstructure:"date"`
	Month    int    `json:"month,omitempty" mapstructure:"month"`
	Weekday  int    `json:"weekday,omitempty" mapstructure:"weekday"` // time.Weekday numbering, Sunday=0
	Nth      int    `json:"nth,omitempty" mapstructure:"nth"`
	AfterDay int    `json:"after_day,omitempty" mapstructure:"after_day"`
}

// Calendar resolves business days for one tenant's jurisdiction.
type Calendar struct {
	workdays [7]bool
	oneOff   map[string]struct{} // "2006-01-02"
	annual   map[monthDay]struct{}
	floating []HolidaySpec
}

type monthDay struct {
	month time.Month
	day   int
}

// New builds a calendar from a workweek mask (time.Weekday values of working
// days) and a holiday list. An empty workweek defaults to Monday through
// Friday.
func New(workweek []int, holidays []HolidaySpec) (*Calendar, error) {
	c := &Calendar{
		oneOff: make(map[string]struct{}),
		annual: make(map[monthDay]struct{}),
	}

	if len(workweek) == 0 {
		workweek = []int{1, 2, 3, 4, 5}
	}
	for _, wd := range workweek {
		if wd < 0 || wd > 6 {
			return nil, fmt.Errorf("invalid workweek day %d", wd)
		}
		c.workdays[wd] = true
	}

	for _, h := range holidays {
		switch {
		case h.Date != "":
			if t, err := time.Parse("2006-01-02", h.Date); err == nil {
				c.oneOff[t.Format("2006-01-02")] = struct{}{}
				continue
			}
			if t, err := time.Parse("01-02", h.Date); err == nil {
				c.annual[monthDay{t.Month(), t.Day()}] = struct{}{}
				continue
			}
			return nil, fmt.Errorf("invalid holiday date %q", h.Date)
		case h.Month >= 1 && h.Month <= 12 && h.Nth != 0:
			c.floating = append(c.floating, h)
		default:
			return nil, fmt.Errorf("holiday spec %+v is neither a date nor a floating rule", h)
		}
	}

	return c, nil
}

// MustNew is New for statically known specs; it panics on invalid input.
func MustNew(workweek []int, holidays []HolidaySpec) *Calendar {
	c, err := New(workweek, holidays)
	if err != nil {
		panic(err)
	}
	return c
}

// IsHoliday reports whether the given date falls on a configured holiday.
func (c *Calendar) IsHoliday(d time.Time) bool {
	if _, ok := c.oneOff[d.Format("2006-01-02")]; ok {
		return true
	}
	if _, ok := c.annual[monthDay{d.Month(), d.Day()}]; ok {
		return true
	}
	for _, h := range c.floating {
		if resolved, ok := resolveFloating(h, d.Year()); ok && sameDate(resolved, d) {
			return true
		}
	}
	return false
}

// IsBusinessDay reports whether the given date is a working, non-holiday day.
func (c *Calendar) IsBusinessDay(d time.Time) bool {
	return c.workdays[int(d.Weekday())] && !c.IsHoliday(d)
}

// BusinessDaysRemaining counts business days between today and the deadline.
// It returns the number of business days in (today, deadline] when the
// deadline lies ahead, 0 when the deadline is today, and the negated count
// of business days already elapsed when the deadline has passed. Callers
// that only bucket urgency treat any value <= 0 as overdue.
func (c *Calendar) BusinessDaysRemaining(deadline, today time.Time) int {
	deadline = truncateDate(deadline)
	today = truncateDate(today)

	switch {
	case deadline.After(today):
		count := 0
		for d := today.AddDate(0, 0, 1); !d.After(deadline); d = d.AddDate(0, 0, 1) {
			if c.IsBusinessDay(d) {
				count++
			}
		}
		return count
	case deadline.Equal(today):
		return 0
	default:
		count := 0
		for d := deadline.AddDate(0, 0, 1); !d.After(today); d = d.AddDate(0, 0, 1) {
			if c.IsBusinessDay(d) {
				count++
			}
		}
		return -count
	}
}

// AddBusinessDays returns the date n business days after start, skipping
// weekends and holidays. n must be non-negative.
func (c *Calendar) AddBusinessDays(start time.Time, n int) time.Time {
	d := truncateDate(start)
	for n > 0 {
		d = d.AddDate(0, 0, 1)
		if c.IsBusinessDay(d) {
			n--
		}
	}
	return d
}

func resolveFloating(h HolidaySpec, year int) (time.Time, bool) {
	weekday := time.Weekday(h.Weekday)

	if h.AfterDay > 0 {
		// Nth occurrence of weekday strictly after the reference date.
		ref := time.Date(year, time.Month(h.Month), h.AfterDay, 0, 0, 0, 0, time.UTC)
		d := ref.AddDate(0, 0, 1)
		for remaining := h.Nth; ; d = d.AddDate(0, 0, 1) {
			if d.Weekday() == weekday {
				remaining--
				if remaining == 0 {
					return d, true
				}
			}
			if d.Year() > year {
				return time.Time{}, false
			}
		}
	}

	if h.Nth == -1 {
		// Last occurrence of weekday in the month.
		d := time.Date(year, time.Month(h.Month)+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		for d.Weekday() != weekday {
			d = d.AddDate(0, 0, -1)
		}
		return d, true
	}

	// Nth occurrence of weekday in the month.
	d := time.Date(year, time.Month(h.Month), 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	d = d.AddDate(0, 0, 7*(h.Nth-1))
	if d.Month() != time.Month(h.Month) {
		return time.Time{}, false
	}
	return d, true
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
