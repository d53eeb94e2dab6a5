package report

import (
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/construtrack/supply-engine/payroll"
)

// WritePayrollPDF renders a single payroll slip. Layout is deliberately
// plain: a header, the period placement, the amount, and the state history.
func WritePayrollPDF(w io.Writer, r payroll.Record, employeeName string, history []payroll.HistoryEntry) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Recibo de Nomina")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Empleado", employeeName},
		{"Proyecto", r.ProjectLabel()},
		{"Periodo", r.Period},
		{"Semana del mes", payroll.WeekOfMonthDisplay(r)},
		{"Monto", "$" + r.Amount.StringFixed(2)},
		{"Estado", string(r.State)},
		{"Generado", time.Now().Format("2006-01-02 15:04")},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 8, row[0], "0", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "0", 1, "L", false, 0, "")
	}

	if len(history) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Historial")
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "", 10)
		for _, h := range history {
			line := h.At + "  " + string(h.FromState) + " -> " + string(h.ToState)
			if h.Actor != "" {
				line += "  (" + h.Actor + ")"
			}
			pdf.CellFormat(0, 6, line, "0", 1, "L", false, 0, "")
		}
	}

	return pdf.Output(w)
}
