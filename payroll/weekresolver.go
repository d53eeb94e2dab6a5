package payroll

import (
	"strconv"

	"github.com/construtrack/supply-engine/calendar"
)

// =============================================================================
// WEEK-OF-MONTH RESOLVER - Ordered strategy chain
// =============================================================================

// WeekSentinel is displayed when no strategy can place a record.
const WeekSentinel = "—"

// weekStrategy attempts to place a record within its period.
// Strategies are pure; the first one that answers wins.
type weekStrategy func(Record) (int, bool)

// weekStrategies in priority order. Upstream data is inconsistently
// populated, so later strategies reconstruct what earlier ones read
// directly.
var weekStrategies = []weekStrategy{
	storedOrdinal,
	weekSubObject,
	isoReconstruction,
	dateHeuristic,
}

// ResolveWeekOfMonth returns the record's 1-based week ordinal within its
// period, or (0, false) when no strategy can resolve it.
func ResolveWeekOfMonth(r Record) (int, bool) {
	for _, strategy := range weekStrategies {
		if n, ok := strategy(r); ok {
			return n, true
		}
	}
	return 0, false
}

// WeekOfMonthDisplay is the table-cell form: the ordinal, or the sentinel.
func WeekOfMonthDisplay(r Record) string {
	n, ok := ResolveWeekOfMonth(r)
	if !ok {
		return WeekSentinel
	}
	return strconv.Itoa(n)
}

// storedOrdinal trusts a precomputed scalar on the record itself.
func storedOrdinal(r Record) (int, bool) {
	if r.WeekOfMonth > 0 {
		return r.WeekOfMonth, true
	}
	return 0, false
}

// weekSubObject reads the precomputed ordinal off the related week row.
func weekSubObject(r Record) (int, bool) {
	if r.Week != nil && r.Week.WeekOfMonth > 0 {
		return r.Week.WeekOfMonth, true
	}
	return 0, false
}

// isoReconstruction places the record's ISO coordinates within the
// majority weeks of its period.
func isoReconstruction(r Record) (int, bool) {
	if r.ISOYear == 0 || r.ISOWeek == 0 {
		return 0, false
	}
	if n := calendar.WeekOrdinal(r.Period, r.ISOYear, r.ISOWeek); n > 0 {
		return n, true
	}
	return 0, false
}

// dateHeuristic derives a coarse ordinal from the best available date.
// Last resort before the sentinel.
func dateHeuristic(r Record) (int, bool) {
	d, ok := calendar.ParseDateChain(r.PeriodStart, r.Date, r.CreatedAt)
	if !ok {
		return 0, false
	}
	return calendar.WeekOfMonthByDay(d), true
}
