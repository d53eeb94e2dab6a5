package supply

import (
	"encoding/json"
	"math/rand"
	"testing"
)

// =============================================================================
// RECEIPT GROUPING ENGINE TESTS
// =============================================================================

func line(provider, date, folio, project, qty, price string) SupplyLine {
	return SupplyLine{
		Provider:     Ref{Name: provider},
		Project:      Ref{Name: project},
		DeliveryDate: date,
		Folio:        folio,
		Quantity:     Num(qty),
		UnitPrice:    Num(price),
	}
}

// Two lines sharing provider+date+folio+project fold into one
// hierarchical group with the summed total.
func TestGroupReceipts_SharedReceipt(t *testing.T) {
	lines := []SupplyLine{
		line("ACME", "2024-03-05", "100", "Tower", "2", "10"),
		line("ACME", "2024-03-05", "100", "Tower", "1", "5"),
	}

	groups := GroupReceipts(lines)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if !g.IsHierarchical {
		t.Error("expected hierarchical group")
	}
	if g.ItemCount != 2 {
		t.Errorf("item count = %d, want 2", g.ItemCount)
	}
	if g.Total.StringFixed(2) != "25.00" {
		t.Errorf("total = %s, want 25.00", g.Total.StringFixed(2))
	}
	if g.Date.String() != "2024-03-05" {
		t.Errorf("date = %s", g.Date)
	}
}

func TestGroupReceipts_DistinctKeys(t *testing.T) {
	lines := []SupplyLine{
		line("ACME", "2024-03-05", "100", "Tower", "1", "10"),
		line("ACME", "2024-03-05", "101", "Tower", "1", "10"), // other folio
		line("ACME", "2024-03-06", "100", "Tower", "1", "10"), // other date
		line("Beta", "2024-03-05", "100", "Tower", "1", "10"), // other provider
	}
	groups := GroupReceipts(lines)
	if len(groups) != 4 {
		t.Fatalf("got %d groups, want 4", len(groups))
	}
	for _, g := range groups {
		if g.IsHierarchical {
			t.Errorf("singleton group %s marked hierarchical", g.Key)
		}
	}
}

// Membership and totals are independent of input order.
func TestGroupReceipts_PermutationInvariant(t *testing.T) {
	base := []SupplyLine{
		line("ACME", "2024-03-05", "100", "Tower", "2", "10"),
		line("ACME", "2024-03-05", "100", "Tower", "1", "5"),
		line("Beta", "2024-03-01", "7", "Bridge", "3", "19.995"),
		line("Beta", "2024-03-02", "7", "Bridge", "1", "1"),
	}

	reference := summarize(GroupReceipts(base))

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]SupplyLine, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := summarize(GroupReceipts(shuffled))
		for key, want := range reference {
			if got[key] != want {
				t.Fatalf("trial %d: group %q = %q, want %q", trial, key, got[key], want)
			}
		}
		if len(got) != len(reference) {
			t.Fatalf("trial %d: %d groups, want %d", trial, len(got), len(reference))
		}
	}
}

func summarize(groups []ReceiptGroup) map[string]string {
	out := make(map[string]string)
	for _, g := range groups {
		out[g.Key] = g.Total.StringFixed(2)
	}
	return out
}

// Groups are ordered by representative date descending; the representative
// date is the latest among members.
func TestGroupReceipts_SortAndRepresentativeDate(t *testing.T) {
	lines := []SupplyLine{
		line("Old", "2024-01-01", "1", "A", "1", "1"),
		line("New", "2024-06-01", "2", "A", "1", "1"),
		line("Mid", "2024-03-01", "3", "A", "1", "1"),
	}
	groups := GroupReceipts(lines)
	want := []string{"New", "Mid", "Old"}
	for i, g := range groups {
		if g.Provider != want[i] {
			t.Fatalf("position %d = %s, want %s", i, g.Provider, want[i])
		}
	}
}

// The date fallback chain walks delivery -> needed-by -> date ->
// registered -> created -> updated, then the epoch.
func TestGroupReceipts_DateFallbackChain(t *testing.T) {
	l := SupplyLine{
		Provider:  Ref{Name: "ACME"},
		Date:      "2024-04-01",
		CreatedAt: "2024-01-01T00:00:00Z",
	}
	if got := LineDate(l); got.String() != "2024-04-01" {
		t.Fatalf("got %s, want 2024-04-01", got)
	}

	dateless := SupplyLine{Provider: Ref{Name: "ACME"}}
	if got := LineDate(dateless); got.String() != "1970-01-01" {
		t.Fatalf("dateless line: got %s, want epoch", got)
	}
}

// Missing provider/project degrade to the default labels instead of
// aborting the pass.
func TestGroupReceipts_MissingFields(t *testing.T) {
	groups := GroupReceipts([]SupplyLine{{Name: "cemento"}})
	if len(groups) != 1 {
		t.Fatalf("got %d groups", len(groups))
	}
	g := groups[0]
	if g.Provider != NoProvider || g.Project != NoProject {
		t.Fatalf("labels = %q / %q", g.Provider, g.Project)
	}
}

func TestGroupReceipts_DoesNotMutateInput(t *testing.T) {
	lines := []SupplyLine{
		line("ACME", "2024-03-05", "100", "Tower", "2", "10"),
		line("Beta", "2024-03-06", "101", "Dam", "1", "5"),
	}
	before, _ := json.Marshal(lines)
	GroupReceipts(lines)
	after, _ := json.Marshal(lines)
	if string(before) != string(after) {
		t.Fatal("input list mutated")
	}
}

func TestFlattenGroups(t *testing.T) {
	lines := []SupplyLine{
		line("ACME", "2024-03-05", "100", "Tower", "2", "10"),
		line("ACME", "2024-03-05", "100", "Tower", "1", "5"),
		line("Beta", "2024-03-06", "101", "Dam", "1", "5"),
	}
	flat := FlattenGroups(GroupReceipts(lines))
	if len(flat) != 3 {
		t.Fatalf("got %d lines, want 3", len(flat))
	}
}
