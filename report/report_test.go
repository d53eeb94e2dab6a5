package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/construtrack/supply-engine/payroll"
	"github.com/construtrack/supply-engine/supply"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Juan Pérez", "Juan-P-rez"},
		{"  spaced  ", "spaced"},
		{"ok_name-1.2", "ok_name-1.2"},
		{"///", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPayrollPDFName(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := payroll.Record{ID: "r1", EmployeeID: "e1", WeekOfMonth: 2}

	got := PayrollPDFName(r, "Juan Lopez", now)
	require.Equal(t, "nomina_semana-2_Juan-Lopez_1700000000.pdf", got)

	// Unresolvable week uses the "x" placeholder; empty name falls back
	// to the employee id.
	unresolved := payroll.Record{ID: "r2", EmployeeID: "e9", Period: "bad"}
	got = PayrollPDFName(unresolved, "", now)
	require.Equal(t, "nomina_semana-x_e9_1700000000.pdf", got)
}

func sampleGroups() []supply.ReceiptGroup {
	lines := []supply.SupplyLine{
		{
			Provider:  supply.Ref{Name: "ACME"},
			Project:   supply.Ref{Name: "Torre A"},
			Name:      "varilla",
			Folio:     "F-1",
			Quantity:  supply.Num("2"),
			UnitPrice: supply.Num("10"),
			State:     supply.StateDelivered,
			Date:      "2024-03-05",
		},
		{
			Provider:  supply.Ref{Name: "ACME"},
			Project:   supply.Ref{Name: "Torre A"},
			Name:      "cemento",
			Folio:     "F-1",
			Quantity:  supply.Num("1"),
			UnitPrice: supply.Num("5"),
			State:     supply.StateDelivered,
			Date:      "2024-03-05",
		},
	}
	return supply.GroupReceipts(lines)
}

func TestWriteReceiptsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReceiptsCSV(&buf, sampleGroups()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	// Header plus one row per line.
	require.Len(t, records, 3)
	require.Equal(t, "Grupo", records[0][0])
	require.Equal(t, "Proveedor", records[0][1])

	require.Equal(t, "ACME", records[1][1])
	require.Equal(t, "varilla", records[1][5])
	require.Equal(t, "20.00", records[1][8])
	// Both rows carry the same group key.
	require.Equal(t, records[1][0], records[2][0])
}

func TestWriteReceiptsXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReceiptsXLSX(&buf, sampleGroups()))
	// xlsx files are zip archives.
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")), "expected zip magic")
	require.Greater(t, buf.Len(), 1000)
}

func TestWritePayrollPDF(t *testing.T) {
	var buf bytes.Buffer
	r := payroll.Record{
		ID:         "r1",
		EmployeeID: "e1",
		Period:     "2024-02",
		Amount:     decimal.RequireFromString("2500"),
		State:      payroll.StateApproved,
	}
	history := []payroll.HistoryEntry{
		{FromState: payroll.StateDraft, ToState: payroll.StatePending, Actor: "ana", At: "2024-02-05T10:00:00Z"},
	}
	require.NoError(t, WritePayrollPDF(&buf, r, "Juan Lopez", history))
	require.True(t, strings.HasPrefix(buf.String(), "%PDF"), "expected pdf magic")
}
