package supply

import (
	"testing"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TOTAL / CURRENCY COMPUTATION TESTS
// =============================================================================

func TestEffectiveTotal_QuantityTimesPrice(t *testing.T) {
	// 3 x 19.995 = 59.985, which must land on exact cents: 59.99,
	// not 59.985 and not 60.00.
	line := SupplyLine{Quantity: Num("3"), UnitPrice: Num("19.995")}
	got := EffectiveTotal(line)
	if got.StringFixed(2) != "59.99" {
		t.Fatalf("got %s, want 59.99", got.StringFixed(2))
	}
}

func TestEffectiveTotal_StoredTotalWins(t *testing.T) {
	line := SupplyLine{
		Quantity:  Num("3"),
		UnitPrice: Num("10"),
		Total:     Num("25.50"),
	}
	if got := EffectiveTotal(line); got.StringFixed(2) != "25.50" {
		t.Fatalf("got %s, want 25.50", got.StringFixed(2))
	}
}

func TestEffectiveTotal_NonPositiveStoredTotalIgnored(t *testing.T) {
	for _, stored := range []string{"0", "-5", ""} {
		line := SupplyLine{
			Quantity:  Num("2"),
			UnitPrice: Num("10"),
			Total:     Num(stored),
		}
		if got := EffectiveTotal(line); got.StringFixed(2) != "20.00" {
			t.Errorf("stored %q: got %s, want 20.00", stored, got.StringFixed(2))
		}
	}
}

func TestEffectiveTotal_UnparseableFieldsAreZero(t *testing.T) {
	line := SupplyLine{Quantity: Num("abc"), UnitPrice: Num("10")}
	if got := EffectiveTotal(line); !got.IsZero() {
		t.Fatalf("got %s, want 0", got)
	}

	empty := SupplyLine{}
	if got := EffectiveTotal(empty); !got.IsZero() {
		t.Fatalf("empty line: got %s, want 0", got)
	}
}

func TestRoundCents(t *testing.T) {
	cases := []struct{ in, want string }{
		{"59.985", "59.99"},
		{"19.999999", "20.00"},
		{"10.004", "10.00"},
		{"10.005", "10.01"},
	}
	for _, tc := range cases {
		d, _ := decimal.NewFromString(tc.in)
		if got := RoundCents(d).StringFixed(2); got != tc.want {
			t.Errorf("RoundCents(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
