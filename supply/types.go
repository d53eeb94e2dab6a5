/*
Package supply models purchased supply lines and derives receipt groups
from them.

PURPOSE:
  Supply lines arrive from a backend that populates fields inconsistently:
  provider/category/unit may be a bare string, a numeric id, an embedded
  object, or a one-element array; dates live in whichever of several
  columns happened to be filled in. This package normalizes those shapes
  at the JSON boundary and implements the receipt grouping engine over
  the normalized records.

KEY CONCEPTS:
  - Ref: canonical {ID, Name} for fields with variant upstream shapes
  - SupplyLine: one purchased/delivered item
  - ReceiptGroup: derived aggregate of lines sharing provider+date+folio+project

DESIGN PRINCIPLES:
  1. Tolerance over correctness: a malformed line degrades to default
     labels and zero amounts; it never aborts a grouping pass.
  2. Precision: all money goes through decimal.Decimal, re-rounded to
     cents at every accumulation step.

SEE ALSO:
  - grouping.go: the receipt grouping engine
  - total.go: effective total computation
*/
package supply

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Fallback labels for missing grouping fields. These are stable display
// contracts: exports and the UI key on them.
const (
	NoProvider = "Sin proveedor"
	NoProject  = "Sin proyecto"
)

// =============================================================================
// REF - Canonical shape for variant upstream fields
// =============================================================================

// Ref is the canonical {id, name} form of a field the backend may send as
// a string, a number, an object, or an array of objects. Normalizing here
// keeps every downstream consumer variant-free.
type Ref struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// IsZero reports whether the ref carries no information.
func (r Ref) IsZero() bool { return r.ID == "" && r.Name == "" }

// Display returns the name, falling back to the id.
func (r Ref) Display() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// UnmarshalJSON accepts the upstream sum type:
//
//	"Cementos del Norte"        -> {Name: ...}
//	42                          -> {ID: "42"}
//	{"id": "p1", "name": "..."} -> as-is
//	[{...}, ...]                -> first element
//	null                        -> zero Ref
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		*r = Ref{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref{Name: s}
		return nil

	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		if len(list) == 0 {
			*r = Ref{}
			return nil
		}
		return r.UnmarshalJSON(list[0])

	case '{':
		var obj struct {
			ID     json.Number `json:"id"`
			Name   string      `json:"name"`
			Nombre string      `json:"nombre"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		name := obj.Name
		if name == "" {
			name = obj.Nombre
		}
		*r = Ref{ID: obj.ID.String(), Name: name}
		return nil

	default:
		// Bare number: treat as an id.
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*r = Ref{ID: n.String()}
		return nil
	}
}

// =============================================================================
// SUPPLY LINE
// =============================================================================

// State enumerates the lifecycle status of a supply line.
type State string

const (
	StateRequested State = "requested"
	StateOrdered   State = "ordered"
	StateDelivered State = "delivered"
	StateCancelled State = "cancelled"
)

// ValidState reports whether s is a known supply state.
func ValidState(s State) bool {
	switch s {
	case StateRequested, StateOrdered, StateDelivered, StateCancelled:
		return true
	}
	return false
}

// SupplyLine is one purchased/delivered item.
//
// The four date fields mirror the upstream columns; DateChain picks the
// first one that parses. Quantity, UnitPrice and Total stay as raw strings
// until EffectiveTotal converts them, because upstream sends "", "3",
// "3.5" and 3.5 interchangeably.
type SupplyLine struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category Ref    `json:"category"`
	Provider Ref    `json:"provider"`
	Project  Ref    `json:"project"`

	Quantity  FlexNumber `json:"quantity"`
	UnitPrice FlexNumber `json:"unit_price"`
	Total     FlexNumber `json:"total"`

	Folio string `json:"folio"`
	State State  `json:"state"`
	Unit  Ref    `json:"unit"`

	DeliveryDate string `json:"delivery_date"`
	NeededByDate string `json:"needed_by_date"`
	Date         string `json:"date"`
	RegisteredAt string `json:"registered_at"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// DateCandidates returns the raw date fields in resolution order.
func (l SupplyLine) DateCandidates() []string {
	return []string{
		l.DeliveryDate,
		l.NeededByDate,
		l.Date,
		l.RegisteredAt,
		l.CreatedAt,
		l.UpdatedAt,
	}
}

// ProviderLabel returns the provider display name or the fallback label.
func (l SupplyLine) ProviderLabel() string {
	if v := l.Provider.Display(); v != "" {
		return v
	}
	return NoProvider
}

// ProjectLabel returns the project display name or the fallback label.
func (l SupplyLine) ProjectLabel() string {
	if v := l.Project.Display(); v != "" {
		return v
	}
	return NoProject
}

// =============================================================================
// FLEX NUMBER - Numeric field that may arrive as string, number, or null
// =============================================================================

// FlexNumber holds a numeric field tolerant of upstream type drift.
// The raw text is kept; conversion happens in total.go.
type FlexNumber struct {
	Raw string
}

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		f.Raw = ""
		return nil
	}
	if s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		f.Raw = strings.TrimSpace(v)
		return nil
	}
	f.Raw = s
	return nil
}

func (f FlexNumber) MarshalJSON() ([]byte, error) {
	if f.Raw == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(f.Raw, 64); err == nil {
		return []byte(f.Raw), nil
	}
	return json.Marshal(f.Raw)
}

// Num builds a FlexNumber from a literal, for constructors and tests.
func Num(s string) FlexNumber { return FlexNumber{Raw: s} }
