package report

import (
	"encoding/csv"
	"io"

	"github.com/construtrack/supply-engine/supply"
)

// WriteReceiptsCSV renders receipt groups as flat CSV rows, one row per
// supply line, with the group key repeated so downstream tools can
// re-aggregate.
func WriteReceiptsCSV(w io.Writer, groups []supply.ReceiptGroup) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Grupo"}, receiptHeaders...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, g := range groups {
		for _, line := range g.Lines {
			rec := []string{
				g.Key,
				g.Provider,
				supply.LineDate(line).String(),
				g.Folio,
				g.Project,
				line.Name,
				line.Quantity.Raw,
				line.UnitPrice.Raw,
				supply.EffectiveTotal(line).StringFixed(2),
				string(line.State),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
