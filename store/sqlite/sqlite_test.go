package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/construtrack/supply-engine/payroll"
	"github.com/construtrack/supply-engine/supply"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// MASTER DATA
// =============================================================================

func TestProviderCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := Provider{ID: "p1", Name: "Cementos del Norte", Contact: "Ana", Phone: "555"}
	require.NoError(t, s.SaveProvider(ctx, p))

	got, err := s.GetProvider(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Cementos del Norte", got.Name)
	require.False(t, got.CreatedAt.IsZero())

	// Upsert keeps the row, changes the fields.
	p.Name = "Cementos del Sur"
	require.NoError(t, s.SaveProvider(ctx, p))
	got, err = s.GetProvider(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Cementos del Sur", got.Name)

	list, err := s.ListProviders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteProvider(ctx, "p1"))
	_, err = s.GetProvider(ctx, "p1")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.DeleteProvider(ctx, "p1"), ErrNotFound)
}

func TestProjectAndEmployeeCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProject(ctx, Project{ID: "pr1", Name: "Torre A", Location: "CDMX"}))
	pr, err := s.GetProject(ctx, "pr1")
	require.NoError(t, err)
	require.Equal(t, "CDMX", pr.Location)

	require.NoError(t, s.SaveEmployee(ctx, Employee{ID: "e1", Name: "Juan", Role: "albañil"}))
	e, err := s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, "albañil", e.Role)

	_, err = s.GetEmployee(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

// =============================================================================
// SUPPLY LINES
// =============================================================================

func supplyFixture(id, provider, date, folio string) supply.SupplyLine {
	return supply.SupplyLine{
		ID:        id,
		Name:      "varilla 3/8",
		Provider:  supply.Ref{ID: "p1", Name: provider},
		Project:   supply.Ref{ID: "pr1", Name: "Torre A"},
		Quantity:  supply.Num("10"),
		UnitPrice: supply.Num("150.50"),
		Folio:     folio,
		State:     supply.StateDelivered,
		Date:      date,
	}
}

func TestSupplyRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := supplyFixture("s1", "ACME", "2024-03-05", "F-100")
	require.NoError(t, s.SaveSupply(ctx, in))

	got, err := s.GetSupply(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, in.Provider, got.Provider)
	require.Equal(t, "10", got.Quantity.Raw)
	require.Equal(t, "150.50", got.UnitPrice.Raw)
	require.Equal(t, supply.StateDelivered, got.State)
	require.Equal(t, "F-100", got.Folio)
}

func TestListSupplies_DateDescending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSupply(ctx, supplyFixture("a", "ACME", "2024-01-01", "1")))
	require.NoError(t, s.SaveSupply(ctx, supplyFixture("b", "ACME", "2024-06-01", "2")))
	require.NoError(t, s.SaveSupply(ctx, supplyFixture("c", "ACME", "2024-03-01", "3")))

	list, err := s.ListSupplies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"b", "c", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestDeleteSupplies_Atomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSupply(ctx, supplyFixture("a", "ACME", "2024-01-01", "1")))
	require.NoError(t, s.SaveSupply(ctx, supplyFixture("b", "ACME", "2024-01-01", "1")))
	require.NoError(t, s.SaveSupply(ctx, supplyFixture("c", "Beta", "2024-01-02", "2")))

	require.NoError(t, s.DeleteSupplies(ctx, []string{"a", "b"}))

	list, err := s.ListSupplies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "c", list[0].ID)

	// Empty set is a no-op.
	require.NoError(t, s.DeleteSupplies(ctx, nil))
}

// =============================================================================
// PAYROLL
// =============================================================================

func payrollFixture(id string) payroll.Record {
	return payroll.Record{
		ID:          id,
		EmployeeID:  "e1",
		ProjectID:   "pr1",
		Period:      "2024-02",
		ISOYear:     2024,
		ISOWeek:     6,
		Amount:      decimal.RequireFromString("2500.00"),
		State:       payroll.StateDraft,
		PeriodStart: "2024-02-05",
	}
}

func TestPayrollRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePayroll(ctx, payrollFixture("r1")))

	got, err := s.GetPayroll(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "e1", got.EmployeeID)
	require.Equal(t, 2024, got.ISOYear)
	require.Equal(t, 6, got.ISOWeek)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("2500.00")))
	require.Equal(t, payroll.StateDraft, got.State)
	require.NotEmpty(t, got.CreatedAt)
}

func TestListPayroll_PeriodFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r1 := payrollFixture("r1")
	r2 := payrollFixture("r2")
	r2.Period = "2024-03"
	require.NoError(t, s.SavePayroll(ctx, r1))
	require.NoError(t, s.SavePayroll(ctx, r2))

	feb, err := s.ListPayroll(ctx, "2024-02")
	require.NoError(t, err)
	require.Len(t, feb, 1)
	require.Equal(t, "r1", feb[0].ID)

	all, err := s.ListPayroll(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestTransitionPayroll_AppendsHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePayroll(ctx, payrollFixture("r1")))

	got, err := s.TransitionPayroll(ctx, "r1", payroll.StatePending, "ana")
	require.NoError(t, err)
	require.Equal(t, payroll.StatePending, got.State)

	got, err = s.TransitionPayroll(ctx, "r1", payroll.StateInProcess, "ana")
	require.NoError(t, err)
	require.Equal(t, payroll.StateInProcess, got.State)

	history, err := s.ListPayrollHistory(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, payroll.StateDraft, history[0].FromState)
	require.Equal(t, payroll.StatePending, history[0].ToState)
	require.Equal(t, "ana", history[0].Actor)
	require.Equal(t, payroll.StateInProcess, history[1].ToState)
}

func TestTransitionPayroll_Invalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePayroll(ctx, payrollFixture("r1")))

	_, err := s.TransitionPayroll(ctx, "r1", payroll.StatePaid, "ana")
	require.ErrorIs(t, err, ErrInvalidTransition)

	// State untouched, no history row appended.
	got, err := s.GetPayroll(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, payroll.StateDraft, got.State)
	history, err := s.ListPayrollHistory(ctx, "r1")
	require.NoError(t, err)
	require.Empty(t, history)

	_, err = s.TransitionPayroll(ctx, "missing", payroll.StatePending, "ana")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePayroll_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePayroll(ctx, payrollFixture("r1")))
	_, err := s.TransitionPayroll(ctx, "r1", payroll.StatePending, "ana")
	require.NoError(t, err)
	require.NoError(t, s.SavePayment(ctx, payroll.Payment{
		ID:       "pay1",
		RecordID: "r1",
		Amount:   decimal.RequireFromString("1000"),
		Method:   "transferencia",
	}))

	require.NoError(t, s.DeletePayroll(ctx, "r1"))

	_, err = s.GetPayroll(ctx, "r1")
	require.ErrorIs(t, err, ErrNotFound)
	history, err := s.ListPayrollHistory(ctx, "r1")
	require.NoError(t, err)
	require.Empty(t, history)
	payments, err := s.ListPayments(ctx, "r1")
	require.NoError(t, err)
	require.Empty(t, payments)
}

func TestPayments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePayroll(ctx, payrollFixture("r1")))
	require.NoError(t, s.SavePayment(ctx, payroll.Payment{
		ID:       "pay1",
		RecordID: "r1",
		Amount:   decimal.RequireFromString("999.99"),
		Method:   "efectivo",
	}))

	payments, err := s.ListPayments(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, "999.99", payments[0].Amount.StringFixed(2))
	require.NotEmpty(t, payments[0].PaidAt)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProvider(ctx, Provider{ID: "p1", Name: "ACME"}))
	require.NoError(t, s.SaveSupply(ctx, supplyFixture("s1", "ACME", "2024-01-01", "1")))
	require.NoError(t, s.Reset(ctx))

	_, err := s.GetProvider(ctx, "p1")
	require.True(t, errors.Is(err, ErrNotFound))
	list, err := s.ListSupplies(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
