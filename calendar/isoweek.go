package calendar

import "time"

// =============================================================================
// ISO-WEEK LOCATOR - Thursday-anchored week numbering
// =============================================================================

// ISOWeek returns the ISO-8601 year and week number for a date.
//
// ISO weeks are defined by their Thursday: a week belongs to the year that
// contains its Thursday. The week number is the distance, in whole weeks,
// from the first Thursday of that ISO year.
func ISOWeek(d Date) (isoYear, isoWeek int) {
	thursday := thursdayOf(d)
	isoYear = thursday.Year()

	firstThursday := firstThursdayOfYear(isoYear)
	isoWeek = DaysBetween(firstThursday, thursday)/7 + 1
	return isoYear, isoWeek
}

// thursdayOf returns the Thursday of the ISO week containing d.
// Monday..Wednesday move forward, Friday..Sunday move back.
func thursdayOf(d Date) Date {
	return d.AddDays(4 - d.ISOWeekday())
}

// firstThursdayOfYear returns the first Thursday of a calendar year.
func firstThursdayOfYear(year int) Date {
	jan1 := NewDate(year, time.January, 1)
	return jan1.AddDays((11 - jan1.ISOWeekday()) % 7)
}
