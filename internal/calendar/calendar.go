package calendar

import (
	"time"
)

// DefaultTimezone is the exchange timezone used to derive calendar dates
// for snapshots and trading-day checks.
const DefaultTimezone = "America/New_York"

// Calendar maps wall-clock instants onto exchange calendar dates and
// answers trading-day questions. Trading days are Monday through Friday
// in the exchange timezone; public holidays are not modelled.
type Calendar struct {
	loc *time.Location
}

// New creates a calendar for the given IANA timezone. An empty name or a
// failed lookup falls back to UTC.
func New(tz string) *Calendar {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

// DateOf returns the calendar date of t in the exchange timezone,
// normalized to midnight UTC so dates compare and index cleanly. Exact
// UTC midnight is the normalized form itself and passes through
// unchanged, which keeps DateOf idempotent.
func (c *Calendar) DateOf(t time.Time) time.Time {
	if u := t.UTC(); u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of the calendar date containing t,
// expressed in UTC. Used for "as of date d" transaction cutoffs.
func (c *Calendar) EndOfDay(t time.Time) time.Time {
	return c.DateOf(t).Add(24*time.Hour - time.Nanosecond)
}

// IsTradingDay reports whether the normalized date d falls on a weekday.
// d must be a calendar date as produced by DateOf; the weekday is read
// directly so the date is not shifted across the timezone boundary.
func (c *Calendar) IsTradingDay(d time.Time) bool {
	wd := d.UTC().Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextDay returns the normalized date one calendar day after d.
func (c *Calendar) NextDay(d time.Time) time.Time {
	return c.DateOf(d).AddDate(0, 0, 1)
}

// DaysBetween returns every normalized calendar date from from through to
// inclusive. Returns nil when from is after to.
func (c *Calendar) DaysBetween(from, to time.Time) []time.Time {
	start := c.DateOf(from)
	end := c.DateOf(to)
	if start.After(end) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
