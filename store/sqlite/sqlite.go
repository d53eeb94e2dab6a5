/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Persists providers, projects, employees, supply lines and payroll
  records. Receipt groups are deliberately NOT persisted: they are
  derived aggregates recomputed from the supply lines on every read.

KEY TABLES:
  providers, projects, employees: master data
  supply_lines:                   one row per purchased item
  payroll_records:                one row per employee per pay week
  payroll_history:                append-only state-change log
  payroll_payments:               money paid against a record

CASCADE:
  Deleting a payroll record removes its history and payment rows inside
  one SQL transaction. Deleting a receipt group is a multi-row supply
  delete, also transactional.

CONCURRENCY:
  sync.RWMutex on top of WAL mode, same discipline as a single-writer
  deployment needs.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/construtrack/supply-engine/payroll"
	"github.com/construtrack/supply-engine/supply"
)

// Sentinel errors, matched with errors.Is by the API layer.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Store implements persistence over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS providers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		contact TEXT,
		phone TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS supply_lines (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category_id TEXT,
		category_name TEXT,
		provider_id TEXT,
		provider_name TEXT,
		project_id TEXT,
		project_name TEXT,
		quantity TEXT,
		unit_price TEXT,
		total TEXT,
		folio TEXT,
		state TEXT NOT NULL,
		unit_id TEXT,
		unit_name TEXT,
		delivery_date TEXT,
		needed_by_date TEXT,
		date TEXT,
		registered_at TEXT,
		created_at TEXT,
		updated_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_supply_lines_provider
		ON supply_lines(provider_name, folio);
	CREATE INDEX IF NOT EXISTS idx_supply_lines_project
		ON supply_lines(project_name);

	CREATE TABLE IF NOT EXISTS payroll_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		project_id TEXT,
		period TEXT NOT NULL,
		iso_year INTEGER,
		iso_week INTEGER,
		amount TEXT NOT NULL,
		state TEXT NOT NULL,
		week_of_month INTEGER,
		period_start TEXT,
		date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_period
		ON payroll_records(period, employee_id);

	CREATE TABLE IF NOT EXISTS payroll_history (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		from_state TEXT NOT NULL,
		to_state TEXT NOT NULL,
		actor TEXT,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_history_record
		ON payroll_history(record_id);

	CREATE TABLE IF NOT EXISTS payroll_payments (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_at TEXT NOT NULL,
		method TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_payments_record
		ON payroll_payments(record_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MASTER DATA - Providers, Projects, Employees
// =============================================================================

type Provider struct {
	ID        string
	Name      string
	Contact   string
	Phone     string
	CreatedAt time.Time
}

type Project struct {
	ID        string
	Name      string
	Location  string
	CreatedAt time.Time
}

type Employee struct {
	ID        string
	Name      string
	Role      string
	CreatedAt time.Time
}

func (s *Store) SaveProvider(ctx context.Context, p Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO providers (id, name, contact, phone, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name,
			contact=excluded.contact, phone=excluded.phone`,
		p.ID, p.Name, p.Contact, p.Phone, p.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetProvider(ctx context.Context, id string) (*Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, contact, phone, created_at FROM providers WHERE id = ?`, id)
	var p Provider
	var created string
	if err := row.Scan(&p.ID, &p.Name, &p.Contact, &p.Phone, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &p, nil
}

func (s *Store) ListProviders(ctx context.Context) ([]Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, contact, phone, created_at FROM providers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		var p Provider
		var created string
		if err := rows.Scan(&p.ID, &p.Name, &p.Contact, &p.Phone, &created); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProvider(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "providers", id)
}

func (s *Store) SaveProject(ctx context.Context, p Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, location, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, location=excluded.location`,
		p.ID, p.Name, p.Location, p.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, location, created_at FROM projects WHERE id = ?`, id)
	var p Project
	var created string
	if err := row.Scan(&p.ID, &p.Name, &p.Location, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, location, created_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		var created string
		if err := rows.Scan(&p.ID, &p.Name, &p.Location, &created); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "projects", id)
}

func (s *Store) SaveEmployee(ctx context.Context, e Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, role=excluded.role`,
		e.ID, e.Name, e.Role, e.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, role, created_at FROM employees WHERE id = ?`, id)
	var e Employee
	var created string
	if err := row.Scan(&e.ID, &e.Name, &e.Role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, role, created_at FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		var created string
		if err := rows.Scan(&e.ID, &e.Name, &e.Role, &created); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "employees", id)
}

func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// SUPPLY LINES
// =============================================================================

func (s *Store) SaveSupply(ctx context.Context, l supply.SupplyLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO supply_lines (
			id, name, category_id, category_name, provider_id, provider_name,
			project_id, project_name, quantity, unit_price, total, folio,
			state, unit_id, unit_name, delivery_date, needed_by_date, date,
			registered_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			category_id=excluded.category_id, category_name=excluded.category_name,
			provider_id=excluded.provider_id, provider_name=excluded.provider_name,
			project_id=excluded.project_id, project_name=excluded.project_name,
			quantity=excluded.quantity, unit_price=excluded.unit_price,
			total=excluded.total, folio=excluded.folio, state=excluded.state,
			unit_id=excluded.unit_id, unit_name=excluded.unit_name,
			delivery_date=excluded.delivery_date,
			needed_by_date=excluded.needed_by_date, date=excluded.date,
			registered_at=excluded.registered_at, updated_at=excluded.updated_at`,
		l.ID, l.Name, l.Category.ID, l.Category.Name, l.Provider.ID, l.Provider.Name,
		l.Project.ID, l.Project.Name, l.Quantity.Raw, l.UnitPrice.Raw, l.Total.Raw,
		l.Folio, string(l.State), l.Unit.ID, l.Unit.Name, l.DeliveryDate,
		l.NeededByDate, l.Date, l.RegisteredAt, l.CreatedAt, l.UpdatedAt)
	return err
}

func (s *Store) GetSupply(ctx context.Context, id string) (*supply.SupplyLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines, err := s.querySupplies(ctx, supplySelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrNotFound
	}
	return &lines[0], nil
}

// ListSupplies returns all supply lines ordered by the raw date column
// descending. Display-level filtering and grouping happen above the store.
func (s *Store) ListSupplies(ctx context.Context) ([]supply.SupplyLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.querySupplies(ctx, supplySelect+` ORDER BY date DESC, id`)
}

func (s *Store) DeleteSupply(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "supply_lines", id)
}

// DeleteSupplies removes a set of lines atomically. Used for receipt-group
// deletion, where all members go or none do.
func (s *Store) DeleteSupplies(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM supply_lines WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const supplySelect = `
	SELECT id, name, category_id, category_name, provider_id, provider_name,
		project_id, project_name, quantity, unit_price, total, folio,
		state, unit_id, unit_name, delivery_date, needed_by_date, date,
		registered_at, created_at, updated_at
	FROM supply_lines`

func (s *Store) querySupplies(ctx context.Context, query string, args ...any) ([]supply.SupplyLine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []supply.SupplyLine
	for rows.Next() {
		var l supply.SupplyLine
		var state string
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Category.ID, &l.Category.Name,
			&l.Provider.ID, &l.Provider.Name, &l.Project.ID, &l.Project.Name,
			&l.Quantity.Raw, &l.UnitPrice.Raw, &l.Total.Raw, &l.Folio,
			&state, &l.Unit.ID, &l.Unit.Name, &l.DeliveryDate,
			&l.NeededByDate, &l.Date, &l.RegisteredAt, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		l.State = supply.State(state)
		out = append(out, l)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYROLL
// =============================================================================

func (s *Store) SavePayroll(ctx context.Context, r payroll.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_records (
			id, employee_id, project_id, period, iso_year, iso_week,
			amount, state, week_of_month, period_start, date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id=excluded.employee_id, project_id=excluded.project_id,
			period=excluded.period, iso_year=excluded.iso_year,
			iso_week=excluded.iso_week, amount=excluded.amount,
			state=excluded.state, week_of_month=excluded.week_of_month,
			period_start=excluded.period_start, date=excluded.date`,
		r.ID, r.EmployeeID, r.ProjectID, r.Period, r.ISOYear, r.ISOWeek,
		r.Amount.String(), string(r.State), r.WeekOfMonth, r.PeriodStart,
		r.Date, r.CreatedAt)
	return err
}

func (s *Store) GetPayroll(ctx context.Context, id string) (*payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.queryPayroll(ctx, payrollSelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// ListPayroll returns records, optionally filtered to one "YYYY-MM" period.
func (s *Store) ListPayroll(ctx context.Context, period string) ([]payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if period == "" {
		return s.queryPayroll(ctx, payrollSelect+` ORDER BY period DESC, employee_id`)
	}
	return s.queryPayroll(ctx,
		payrollSelect+` WHERE period = ? ORDER BY iso_week, employee_id`, period)
}

// TransitionPayroll validates and applies a state change, appending the
// history row in the same SQL transaction.
func (s *Store) TransitionPayroll(ctx context.Context, id string, to payroll.State, actor string) (*payroll.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var from string
	err = tx.QueryRowContext(ctx,
		`SELECT state FROM payroll_records WHERE id = ?`, id).Scan(&from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !payroll.CanTransition(payroll.State(from), to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`UPDATE payroll_records SET state = ? WHERE id = ?`, string(to), id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO payroll_history (id, record_id, from_state, to_state, actor, at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fmt.Sprintf("%s-%s-%s", id, to, now), id, from, string(to), actor, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	records, err := s.queryPayroll(ctx, payrollSelect+` WHERE id = ?`, id)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// DeletePayroll removes a record and cascades to its history and payment
// rows in one transaction.
func (s *Store) DeletePayroll(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM payroll_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payroll_history WHERE record_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payroll_payments WHERE record_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListPayrollHistory(ctx context.Context, recordID string) ([]payroll.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, from_state, to_state, actor, at
		FROM payroll_history WHERE record_id = ? ORDER BY at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.HistoryEntry
	for rows.Next() {
		var h payroll.HistoryEntry
		var from, to string
		if err := rows.Scan(&h.ID, &h.RecordID, &from, &to, &h.Actor, &h.At); err != nil {
			return nil, err
		}
		h.FromState = payroll.State(from)
		h.ToState = payroll.State(to)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) SavePayment(ctx context.Context, p payroll.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.PaidAt == "" {
		p.PaidAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_payments (id, record_id, amount, paid_at, method)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.RecordID, p.Amount.String(), p.PaidAt, p.Method)
	return err
}

func (s *Store) ListPayments(ctx context.Context, recordID string) ([]payroll.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, amount, paid_at, method
		FROM payroll_payments WHERE record_id = ? ORDER BY paid_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Payment
	for rows.Next() {
		var p payroll.Payment
		var amount string
		if err := rows.Scan(&p.ID, &p.RecordID, &amount, &p.PaidAt, &p.Method); err != nil {
			return nil, err
		}
		p.Amount, _ = decimal.NewFromString(amount)
		out = append(out, p)
	}
	return out, rows.Err()
}

const payrollSelect = `
	SELECT id, employee_id, project_id, period, iso_year, iso_week,
		amount, state, week_of_month, period_start, date, created_at
	FROM payroll_records`

func (s *Store) queryPayroll(ctx context.Context, query string, args ...any) ([]payroll.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Record
	for rows.Next() {
		var r payroll.Record
		var amount, state string
		if err := rows.Scan(
			&r.ID, &r.EmployeeID, &r.ProjectID, &r.Period, &r.ISOYear,
			&r.ISOWeek, &amount, &state, &r.WeekOfMonth, &r.PeriodStart,
			&r.Date, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		r.Amount, _ = decimal.NewFromString(amount)
		r.State = payroll.State(state)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reset wipes every table. Tests and the dev reset endpoint only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, table := range []string{
		"providers", "projects", "employees", "supply_lines",
		"payroll_records", "payroll_history", "payroll_payments",
	} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return nil
}
