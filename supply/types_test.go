package supply

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// REF SUM-TYPE NORMALIZATION TESTS
// =============================================================================

func TestRef_UnmarshalVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Ref
	}{
		{"string", `"Cementos del Norte"`, Ref{Name: "Cementos del Norte"}},
		{"number", `42`, Ref{ID: "42"}},
		{"object", `{"id": "p1", "name": "ACME"}`, Ref{ID: "p1", Name: "ACME"}},
		{"object numeric id", `{"id": 7, "name": "ACME"}`, Ref{ID: "7", Name: "ACME"}},
		{"object spanish name", `{"id": "p1", "nombre": "ACME"}`, Ref{ID: "p1", Name: "ACME"}},
		{"array", `[{"id": "p1", "name": "First"}, {"id": "p2"}]`, Ref{ID: "p1", Name: "First"}},
		{"empty array", `[]`, Ref{}},
		{"null", `null`, Ref{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got Ref
			if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRef_Display(t *testing.T) {
	if got := (Ref{ID: "7", Name: "ACME"}).Display(); got != "ACME" {
		t.Errorf("got %q", got)
	}
	if got := (Ref{ID: "7"}).Display(); got != "7" {
		t.Errorf("got %q", got)
	}
	if got := (Ref{}).Display(); got != "" {
		t.Errorf("got %q", got)
	}
}

// =============================================================================
// FLEX NUMBER TESTS
// =============================================================================

func TestFlexNumber_Unmarshal(t *testing.T) {
	var l SupplyLine
	raw := `{"name": "varilla", "quantity": "3.5", "unit_price": 120, "total": null}`
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if l.Quantity.Raw != "3.5" {
		t.Errorf("quantity = %q", l.Quantity.Raw)
	}
	if l.UnitPrice.Raw != "120" {
		t.Errorf("unit_price = %q", l.UnitPrice.Raw)
	}
	if l.Total.Raw != "" {
		t.Errorf("total = %q", l.Total.Raw)
	}
}

func TestSupplyLine_Labels(t *testing.T) {
	l := SupplyLine{}
	if l.ProviderLabel() != NoProvider {
		t.Errorf("got %q", l.ProviderLabel())
	}
	if l.ProjectLabel() != NoProject {
		t.Errorf("got %q", l.ProjectLabel())
	}

	l.Provider = Ref{Name: "ACME"}
	l.Project = Ref{ID: "pr-1"}
	if l.ProviderLabel() != "ACME" || l.ProjectLabel() != "pr-1" {
		t.Errorf("labels = %q / %q", l.ProviderLabel(), l.ProjectLabel())
	}
}
