/*
Package report renders receipt groups and payroll records into the export
formats the back office consumes: xlsx, pdf, and csv.

The binary format internals stay inside excelize and gofpdf; this package
only assembles rows and filenames. Exports flatten receipt groups back
into lines, preserving group order, so a spreadsheet reads the same way
the grouped table does.
*/
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/construtrack/supply-engine/payroll"
)

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename collapses anything outside [a-zA-Z0-9._-] to a single
// dash so employee names survive as filesystem- and header-safe tokens.
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = unsafeFilenameRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// PayrollPDFName builds the payroll slip filename:
//
//	nomina_semana-{N}_{employeeName}_{timestamp}.pdf
//
// The week ordinal comes from the resolver; an unresolvable week uses the
// sentinel so the file is still identifiable.
func PayrollPDFName(r payroll.Record, employeeName string, now time.Time) string {
	week := payroll.WeekOfMonthDisplay(r)
	if week == payroll.WeekSentinel {
		week = "x"
	}
	name := SanitizeFilename(employeeName)
	if name == "" {
		name = SanitizeFilename(r.EmployeeID)
	}
	return fmt.Sprintf("nomina_semana-%s_%s_%d.pdf", week, name, now.Unix())
}
