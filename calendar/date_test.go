package calendar

import (
	"testing"
	"time"
)

// =============================================================================
// DATE NORMALIZER TESTS
// =============================================================================

func TestParseDate_DateOnly(t *testing.T) {
	d, ok := ParseDate("2024-03-05")
	if !ok {
		t.Fatal("expected 2024-03-05 to parse")
	}
	if d.Year() != 2024 || d.Month() != time.March || d.Day() != 5 {
		t.Fatalf("got %s", d)
	}
}

func TestParseDate_ISODatetime(t *testing.T) {
	// The date portion before the 'T' must win, with no timezone shift.
	d, ok := ParseDate("2024-03-05T23:59:59.000Z")
	if !ok {
		t.Fatal("expected ISO datetime to parse")
	}
	if d.String() != "2024-03-05" {
		t.Fatalf("got %s, want 2024-03-05", d)
	}
}

func TestParseDate_SpaceSeparatedDatetime(t *testing.T) {
	d, ok := ParseDate("2024-03-05 10:30:00")
	if !ok {
		t.Fatal("expected datetime to parse")
	}
	if d.String() != "2024-03-05" {
		t.Fatalf("got %s", d)
	}
}

func TestParseDate_Unparseable(t *testing.T) {
	for _, raw := range []string{"", "not-a-date", "2024-13-01", "2024-02-30", "05/03/2024"} {
		if _, ok := ParseDate(raw); ok {
			t.Errorf("expected %q to fail", raw)
		}
	}
}

// Round-trip: normalizing then formatting a "YYYY-MM-DD" string yields
// the identical string for every day of a leap year.
func TestParseDate_RoundTrip(t *testing.T) {
	d := NewDate(2024, time.January, 1)
	for d.Year() == 2024 {
		raw := d.String()
		parsed, ok := ParseDate(raw)
		if !ok {
			t.Fatalf("failed to parse %q", raw)
		}
		if parsed.String() != raw {
			t.Fatalf("round-trip %q -> %q", raw, parsed.String())
		}
		d = d.AddDays(1)
	}
}

func TestParseDateChain(t *testing.T) {
	// First parseable candidate wins.
	d, ok := ParseDateChain("", "garbage", "2024-06-10", "2024-06-11")
	if !ok || d.String() != "2024-06-10" {
		t.Fatalf("got %v %v", d, ok)
	}

	if _, ok := ParseDateChain("", "nope"); ok {
		t.Fatal("expected all-invalid chain to fail")
	}
}

func TestISOWeekday(t *testing.T) {
	// 2024-01-01 is a Monday, 2024-01-07 a Sunday.
	if got := NewDate(2024, time.January, 1).ISOWeekday(); got != 1 {
		t.Fatalf("Monday = %d", got)
	}
	if got := NewDate(2024, time.January, 7).ISOWeekday(); got != 7 {
		t.Fatalf("Sunday = %d", got)
	}
}

func TestDaysBetween(t *testing.T) {
	from := NewDate(2024, time.February, 26)
	to := NewDate(2024, time.March, 4)
	if got := DaysBetween(from, to); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}
