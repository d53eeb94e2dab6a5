package report

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/construtrack/supply-engine/supply"
)

// receiptHeaders in display order. Spanish, matching what the back office
// prints and archives.
var receiptHeaders = []string{
	"Proveedor", "Fecha", "Folio", "Proyecto",
	"Insumo", "Cantidad", "Precio unitario", "Total", "Estado",
}

// WriteReceiptsXLSX renders receipt groups as a spreadsheet. Each group
// contributes its member lines followed by a subtotal row; hierarchical
// groups are the ones whose subtotal spans more than one line.
func WriteReceiptsXLSX(w io.Writer, groups []supply.ReceiptGroup) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Recibos"
	f.SetSheetName("Sheet1", sheet)

	for col, h := range receiptHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, g := range groups {
		for _, line := range g.Lines {
			values := []any{
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
			if err := setRow(f, sheet, row, values); err != nil {
				return err
			}
			row++
		}
		subtotal := []any{
			g.Provider, g.Date.String(), g.Folio, g.Project,
			"Subtotal", "", "", g.Total.StringFixed(2), "",
		}
		if err := setRow(f, sheet, row, subtotal); err != nil {
			return err
		}
		row++
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
