package supply

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/construtrack/supply-engine/calendar"
)

// =============================================================================
// RECEIPT GROUPING ENGINE
// =============================================================================

// ReceiptGroup is a derived aggregate over supply lines sharing
// (provider, date, folio, project). It is recomputed from the current
// line list on every read and never persisted.
type ReceiptGroup struct {
	Key            string
	Provider       string
	Project        string
	Folio          string
	Date           calendar.Date // representative: latest among members
	Lines          []SupplyLine
	Total          decimal.Decimal
	ItemCount      int
	IsHierarchical bool
}

// GroupKey builds the synthetic receipt key for a line given its
// normalized date.
func GroupKey(l SupplyLine, d calendar.Date) string {
	return strings.Join([]string{
		l.ProviderLabel(),
		d.String(),
		l.Folio,
		l.ProjectLabel(),
	}, "_")
}

// LineDate resolves a line's calendar date through the fallback chain,
// defaulting to the epoch so lines with no date at all stay groupable
// (and sort oldest) instead of erroring out.
func LineDate(l SupplyLine) calendar.Date {
	if d, ok := calendar.ParseDateChain(l.DateCandidates()...); ok {
		return d
	}
	return calendar.Epoch()
}

// GroupReceipts folds an ordered list of supply lines into receipt groups.
//
// The input is not mutated. Membership and totals are independent of input
// order; only the final group ordering (descending by representative date,
// stable on ties) depends on dates. A line missing several fields degrades
// to the default labels rather than aborting the pass.
func GroupReceipts(lines []SupplyLine) []ReceiptGroup {
	byKey := make(map[string]*ReceiptGroup)
	var order []string

	for _, line := range lines {
		d := LineDate(line)
		key := GroupKey(line, d)

		g, ok := byKey[key]
		if !ok {
			g = &ReceiptGroup{
				Key:      key,
				Provider: line.ProviderLabel(),
				Project:  line.ProjectLabel(),
				Folio:    line.Folio,
				Date:     d,
				Total:    decimal.Zero,
			}
			byKey[key] = g
			order = append(order, key)
		}

		g.Lines = append(g.Lines, line)
		g.Total = RoundCents(g.Total.Add(EffectiveTotal(line)))
		g.ItemCount++
		if d.After(g.Date) {
			g.Date = d
		}
	}

	groups := make([]ReceiptGroup, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		g.IsHierarchical = g.ItemCount > 1
		groups = append(groups, *g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date)
	})
	return groups
}

// FlattenGroups expands groups back into rows for tabular exports,
// preserving group order and member order within each group.
func FlattenGroups(groups []ReceiptGroup) []SupplyLine {
	var out []SupplyLine
	for _, g := range groups {
		out = append(out, g.Lines...)
	}
	return out
}
