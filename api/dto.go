/*
dto.go - Data transfer objects for API requests and responses

PURPOSE:
  Decouples the wire contract from the domain types. Supply lines keep
  their tolerant JSON decoding (Ref and FlexNumber) on the way in; on the
  way out everything is canonical.

NAMING CONVENTION:
  - *DTO: response types
  - *Request: request bodies
*/
package api

import (
	"github.com/construtrack/supply-engine/calendar"
	"github.com/construtrack/supply-engine/payroll"
	"github.com/construtrack/supply-engine/supply"
)

// =============================================================================
// MASTER DATA
// =============================================================================

type ProviderDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Contact   string `json:"contact,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type ProjectDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// =============================================================================
// SUPPLIES & RECEIPTS
// =============================================================================

// SupplyLineDTO is the canonical outbound shape of a line. EffectiveTotal
// is always the recomputed value, never the raw stored field.
type SupplyLineDTO struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Category       supply.Ref `json:"category"`
	Provider       supply.Ref `json:"provider"`
	Project        supply.Ref `json:"project"`
	Quantity       string     `json:"quantity,omitempty"`
	UnitPrice      string     `json:"unit_price,omitempty"`
	EffectiveTotal string     `json:"effective_total"`
	Folio          string     `json:"folio,omitempty"`
	State          string     `json:"state"`
	Unit           supply.Ref `json:"unit"`
	Date           string     `json:"date,omitempty"`
}

// ReceiptGroupDTO is the grouped receipt view for the expandable table.
type ReceiptGroupDTO struct {
	Key            string          `json:"key"`
	Provider       string          `json:"provider"`
	Project        string          `json:"project"`
	Folio          string          `json:"folio,omitempty"`
	Date           string          `json:"date"`
	Total          string          `json:"total"`
	ItemCount      int             `json:"item_count"`
	IsHierarchical bool            `json:"is_hierarchical"`
	Lines          []SupplyLineDTO `json:"lines"`
}

// DeleteGroupRequest removes all members of a receipt group atomically.
type DeleteGroupRequest struct {
	IDs []string `json:"ids"`
}

// =============================================================================
// PAYROLL
// =============================================================================

type PayrollDTO struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	ProjectID   string `json:"project_id,omitempty"`
	Project     string `json:"project"`
	Period      string `json:"period"`
	ISOYear     int    `json:"iso_year,omitempty"`
	ISOWeek     int    `json:"iso_week,omitempty"`
	Amount      string `json:"amount"`
	State       string `json:"state"`
	WeekOfMonth string `json:"week_of_month"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type TransitionRequest struct {
	State string `json:"state"`
	Actor string `json:"actor,omitempty"`
}

type HistoryEntryDTO struct {
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	Actor     string `json:"actor,omitempty"`
	At        string `json:"at"`
}

type WeekDTO struct {
	ISOYear int    `json:"iso_year"`
	ISOWeek int    `json:"iso_week"`
	Monday  string `json:"monday"`
	Ordinal int    `json:"ordinal"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toSupplyLineDTO(l supply.SupplyLine) SupplyLineDTO {
	dto := SupplyLineDTO{
		ID:             l.ID,
		Name:           l.Name,
		Category:       l.Category,
		Provider:       l.Provider,
		Project:        l.Project,
		Quantity:       l.Quantity.Raw,
		UnitPrice:      l.UnitPrice.Raw,
		EffectiveTotal: supply.EffectiveTotal(l).StringFixed(2),
		Folio:          l.Folio,
		State:          string(l.State),
		Unit:           l.Unit,
	}
	if d, ok := calendar.ParseDateChain(l.DateCandidates()...); ok {
		dto.Date = d.String()
	}
	return dto
}

func toReceiptGroupDTO(g supply.ReceiptGroup) ReceiptGroupDTO {
	lines := make([]SupplyLineDTO, len(g.Lines))
	for i, l := range g.Lines {
		lines[i] = toSupplyLineDTO(l)
	}
	return ReceiptGroupDTO{
		Key:            g.Key,
		Provider:       g.Provider,
		Project:        g.Project,
		Folio:          g.Folio,
		Date:           g.Date.String(),
		Total:          g.Total.StringFixed(2),
		ItemCount:      g.ItemCount,
		IsHierarchical: g.IsHierarchical,
		Lines:          lines,
	}
}

func toPayrollDTO(r payroll.Record) PayrollDTO {
	return PayrollDTO{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		ProjectID:   r.ProjectID,
		Project:     r.ProjectLabel(),
		Period:      r.Period,
		ISOYear:     r.ISOYear,
		ISOWeek:     r.ISOWeek,
		Amount:      r.Amount.StringFixed(2),
		State:       string(r.State),
		WeekOfMonth: payroll.WeekOfMonthDisplay(r),
		CreatedAt:   r.CreatedAt,
	}
}
