/*
Package calendar provides the date and week arithmetic for the supply and
payroll engine.

PURPOSE:
  Upstream data carries dates in several shapes: bare "YYYY-MM-DD" strings,
  ISO datetimes with a time component, RFC3339 timestamps, or nothing at all.
  This package normalizes all of them into a single timezone-safe Date and
  provides the ISO-week and week-of-month math that payroll periods are
  built on.

KEY CONCEPTS:
  - Date: a calendar date pinned to UTC midnight (no timezone drift)
  - WeekRef: an ISO (year, week) pair with its Monday anchor
  - MonthWeeks: the Monday-started weeks whose majority of days fall in
    a given "YYYY-MM" period

DESIGN PRINCIPLES:
  1. Totality: every function is defined for every input; bad input yields
     a zero value and ok=false, never a panic or an error that callers
     would be tempted to ignore.
  2. Numeric parsing: "YYYY-MM-DD" is decomposed into its components
     directly so the result never shifts across a timezone boundary.

SEE ALSO:
  - isoweek.go: Thursday-anchored ISO week numbering
  - monthweeks.go: majority-month week enumeration
*/
package calendar

import (
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar date at UTC midnight
// =============================================================================

// Date is a calendar date. The underlying time is always UTC midnight.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Epoch is the last-resort date for records with no usable date field.
// Sorting places such records oldest rather than dropping them.
func Epoch() Date {
	return NewDate(1970, time.January, 1)
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// FromTime truncates a time to its calendar date.
func FromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) Time() time.Time   { return d.t }

// ISOWeekday returns the ISO weekday: Monday=1 .. Sunday=7.
func (d Date) ISOWeekday() int {
	wd := int(d.t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string {
	return d.t.Format("2006-01-02")
}

// DaysBetween returns the whole days from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// =============================================================================
// DATE NORMALIZER
// =============================================================================

var dateOnlyRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// ParseDate normalizes a raw date string into a Date.
//
// Accepted shapes, in order of preference:
//   - "YYYY-MM-DD": decomposed numerically, immune to timezone shift
//   - anything containing a 'T': the date portion before the 'T' is used
//   - RFC3339 or "YYYY-MM-DD HH:MM:SS": parsed then truncated to the date
//
// Anything else yields (Date{}, false). Callers treat the false case as
// "no date available" and must not substitute the current time.
func ParseDate(raw string) (Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, false
	}

	if m := dateOnlyRe.FindStringSubmatch(raw); m != nil {
		return fromComponents(m)
	}

	if i := strings.IndexByte(raw, 'T'); i > 0 {
		if m := dateOnlyRe.FindStringSubmatch(raw[:i]); m != nil {
			return fromComponents(m)
		}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return FromTime(t), true
		}
	}
	return Date{}, false
}

func fromComponents(m []string) (Date, bool) {
	year := atoi(m[1])
	month := atoi(m[2])
	day := atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}
	d := NewDate(year, time.Month(month), day)
	// time.Date normalizes overflow (Feb 30 -> Mar 1); reject that.
	if d.Day() != day || int(d.Month()) != month {
		return Date{}, false
	}
	return d, true
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// ParseDateChain normalizes the first parseable candidate from an ordered
// fallback chain of raw date fields.
func ParseDateChain(candidates ...string) (Date, bool) {
	for _, c := range candidates {
		if d, ok := ParseDate(c); ok {
			return d, true
		}
	}
	return Date{}, false
}
