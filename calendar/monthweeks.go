package calendar

import (
	"fmt"
	"regexp"
	"time"
)

// =============================================================================
// MAJORITY-MONTH WEEK FILTER - Which weeks belong to a payroll period
// =============================================================================

// WeekRef identifies one Monday-started week by its ISO coordinates.
type WeekRef struct {
	ISOYear int
	ISOWeek int
	Monday  Date
}

// Key returns the dedup key for a week.
func (w WeekRef) Key() string {
	return fmt.Sprintf("%d-%d", w.ISOYear, w.ISOWeek)
}

var periodRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// ParsePeriod splits a "YYYY-MM" period string.
func ParsePeriod(period string) (year int, month time.Month, ok bool) {
	m := periodRe.FindStringSubmatch(period)
	if m == nil {
		return 0, 0, false
	}
	mo := atoi(m[2])
	if mo < 1 || mo > 12 {
		return 0, 0, false
	}
	return atoi(m[1]), time.Month(mo), true
}

// MonthWeeks enumerates the Monday-started weeks whose majority of days
// (at least 4 of 7) fall inside the "YYYY-MM" period.
//
// The result is ordered by Monday ascending and deduplicated by ISO
// (year, week). A malformed period yields an empty list, not an error:
// payroll views render nothing rather than crash on bad input.
//
// A 7-day week split across two months always has a unique 4/3 majority,
// so the >= 4 test never ties.
func MonthWeeks(period string) []WeekRef {
	year, month, ok := ParsePeriod(period)
	if !ok {
		return nil
	}

	first := NewDate(year, month, 1)
	last := NewDate(year, month+1, 1).AddDays(-1)

	// Monday on/before the 1st, through a week past the month's end.
	monday := mondayOnOrBefore(first)
	stop := mondayOnOrAfter(last.AddDays(1)).AddDays(7)

	var weeks []WeekRef
	seen := make(map[string]bool)
	for ; !monday.After(stop); monday = monday.AddDays(7) {
		inMonth := 0
		for i := 0; i < 7; i++ {
			day := monday.AddDays(i)
			if day.Year() == year && day.Month() == month {
				inMonth++
			}
		}
		if inMonth < 4 {
			continue
		}
		isoYear, isoWeek := ISOWeek(monday)
		ref := WeekRef{ISOYear: isoYear, ISOWeek: isoWeek, Monday: monday}
		if seen[ref.Key()] {
			continue
		}
		seen[ref.Key()] = true
		weeks = append(weeks, ref)
	}
	return weeks
}

// WeekOrdinal returns the 1-based position of (isoYear, isoWeek) within
// the majority weeks of a period, or 0 when the pair is not in the list.
func WeekOrdinal(period string, isoYear, isoWeek int) int {
	for i, w := range MonthWeeks(period) {
		if w.ISOYear == isoYear && w.ISOWeek == isoWeek {
			return i + 1
		}
	}
	return 0
}

// WeekOfMonthByDay is the coarse day-of-month fallback used when a record
// has a date but no usable ISO coordinates.
func WeekOfMonthByDay(d Date) int {
	return (d.Day()-1)/7 + 1
}

func mondayOnOrBefore(d Date) Date {
	return d.AddDays(1 - d.ISOWeekday())
}

func mondayOnOrAfter(d Date) Date {
	wd := d.ISOWeekday()
	if wd == 1 {
		return d
	}
	return d.AddDays(8 - wd)
}
