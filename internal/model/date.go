package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// FirstAPOD is the date of the earliest Astronomy Picture of the Day.
var FirstAPOD = Date{Year: 1995, Month: time.June, Day: 16}

// Date is a calendar day without a time of day or location.
//
// The zero value is not a valid date. Use NewDate or DateOf to build one.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate validates year/month/day and returns the corresponding Date.
//
// Returns an error wrapping ErrInvalidDate when the triple does not name a
// real day, for example February 30 or month 13.
func NewDate(year int, month time.Month, day int) (Date, error) {
	if year < 1 || year > 9999 {
		return Date{}, fmt.Errorf("%w: year %d out of range", ErrInvalidDate, year)
	}
	if month < time.January || month > time.December {
		return Date{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDate, int(month))
	}

	// time.Date normalizes overflowing days, so a round trip exposes them.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if day < 1 || t.Day() != day || t.Month() != month {
		return Date{}, fmt.Errorf("%w: %s %d has no day %d", ErrInvalidDate, month, year, day)
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// AddDays returns the date n days after d. n may be negative.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// ISO formats the date as YYYY-MM-DD, the form the APOD API expects.
func (d Date) ISO() string {
	return d.Time().Format("2006-01-02")
}

// Display formats the date for humans, e.g. "Mar 28, 1998".
func (d Date) Display() string {
	return d.Time().Format("Jan 02, 2006")
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return d.ISO()
}

// Triple is a month/day/year as entered by the user, not yet validated.
type Triple struct {
	Month int
	Day   int
	Year  int
}

var tripleRegex = regexp.MustCompile(`^\s*(\d{1,2})[\s/\-.]+(\d{1,2})[\s/\-.]+(\d{1,4})\s*$`)

// ParseTriple parses "MM DD YYYY". Slashes, dashes and dots are accepted as
// separators too, so "03/28/1998" and "3-28-1998" parse the same way.
//
// Only the shape is checked here; use Triple.Date to validate the day.
func ParseTriple(s string) (Triple, error) {
	m := tripleRegex.FindStringSubmatch(s)
	if m == nil {
		return Triple{}, fmt.Errorf("%w: %q is not in MM DD YYYY form", ErrInvalidDate, s)
	}

	// The regex guarantees digits, so Atoi cannot fail.
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	return Triple{Month: month, Day: day, Year: year}, nil
}

// Date converts the triple to a validated Date.
func (t Triple) Date() (Date, error) {
	return NewDate(t.Year, time.Month(t.Month), t.Day)
}

// String renders the triple the way it is typed, e.g. "03 28 1998".
func (t Triple) String() string {
	return fmt.Sprintf("%02d %02d %04d", t.Month, t.Day, t.Year)
}
