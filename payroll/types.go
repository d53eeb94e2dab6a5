/*
Package payroll models weekly payroll records and resolves their placement
within a pay period.

PURPOSE:
  A payroll record belongs to a "YYYY-MM" period and to one ISO week within
  it. Legacy records are inconsistently populated (some carry a precomputed
  week ordinal, some only ISO coordinates, some only a date), so the
  resolver degrades through an explicit chain of strategies instead of
  throwing.

KEY CONCEPTS:
  - Record: one employee payroll entry for a pay period
  - State: Draft -> Pending -> InProcess -> Approved -> Paid, with
    Cancelled reachable from every non-terminal state
  - ResolveWeekOfMonth: ordered strategy chain, sentinel on exhaustion

SEE ALSO:
  - weekresolver.go: the strategy chain
  - calendar: majority-week enumeration the resolver leans on
*/
package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AdministrativeProject is the display label for records with no project:
// payroll without a site assignment is overhead.
const AdministrativeProject = "Administrativo"

// =============================================================================
// STATE MACHINE
// =============================================================================

type State string

const (
	StateDraft     State = "draft"
	StatePending   State = "pending"
	StateInProcess State = "in_process"
	StateApproved  State = "approved"
	StatePaid      State = "paid"
	StateCancelled State = "cancelled"
)

// transitions maps each state to the states it may move to.
// Paid and Cancelled are terminal.
var transitions = map[State][]State{
	StateDraft:     {StatePending, StateCancelled},
	StatePending:   {StateInProcess, StateCancelled},
	StateInProcess: {StateApproved, StateCancelled},
	StateApproved:  {StatePaid, StateCancelled},
	StatePaid:      {},
	StateCancelled: {},
}

// ValidState reports whether s is a known payroll state.
func ValidState(s State) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from one state to another is allowed.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError reports an illegal state change.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal payroll transition: %s -> %s", e.From, e.To)
}

// Transition validates and applies a state change to a record.
func (r *Record) Transition(to State) error {
	if !CanTransition(r.State, to) {
		return &TransitionError{From: r.State, To: to}
	}
	r.State = to
	return nil
}

// =============================================================================
// RECORD
// =============================================================================

// WeekInfo is the related "week" sub-object some records carry, with a
// precomputed week-of-month ordinal.
type WeekInfo struct {
	ISOYear     int `json:"iso_year"`
	ISOWeek     int `json:"iso_week"`
	WeekOfMonth int `json:"week_of_month"`
}

// Record is one employee payroll entry for a pay period.
//
// ISOYear/ISOWeek and WeekOfMonth may be zero on legacy rows; PeriodStart
// and Date are raw strings for the same reason supply dates are: upstream
// fills whichever it has.
type Record struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	ProjectID  string          `json:"project_id,omitempty"`
	Period     string          `json:"period"` // "YYYY-MM"
	ISOYear    int             `json:"iso_year,omitempty"`
	ISOWeek    int             `json:"iso_week,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	State      State           `json:"state"`

	// Precomputed ordinal, trusted when positive.
	WeekOfMonth int       `json:"week_of_month,omitempty"`
	Week        *WeekInfo `json:"week,omitempty"`

	PeriodStart string `json:"period_start,omitempty"`
	Date        string `json:"date,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ProjectLabel returns the project id or the administrative fallback.
func (r Record) ProjectLabel() string {
	if r.ProjectID != "" {
		return r.ProjectID
	}
	return AdministrativeProject
}

// HistoryEntry records one state change of a payroll record.
type HistoryEntry struct {
	ID        string `json:"id"`
	RecordID  string `json:"record_id"`
	FromState State  `json:"from_state"`
	ToState   State  `json:"to_state"`
	Actor     string `json:"actor,omitempty"`
	At        string `json:"at"`
}

// Payment records money paid out against a payroll record.
type Payment struct {
	ID       string          `json:"id"`
	RecordID string          `json:"record_id"`
	Amount   decimal.Decimal `json:"amount"`
	PaidAt   string          `json:"paid_at"`
	Method   string          `json:"method,omitempty"`
}
