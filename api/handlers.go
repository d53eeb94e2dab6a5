/*
handlers.go - HTTP handlers for the supply and payroll API

PURPOSE:
  Exposes CRUD over providers, projects, employees, supplies and payroll,
  plus the derived views: grouped receipts, period weeks, and the report
  exports.

ENDPOINTS:
  Master data:
    GET/POST       /api/providers            List / create
    GET/PUT/DELETE /api/providers/{id}
    (same shape for /api/projects and /api/employees)

  Supplies:
    GET/POST       /api/supplies
    GET/PUT/DELETE /api/supplies/{id}
    GET            /api/supplies/receipts    Grouped receipt view
    POST           /api/supplies/receipts/delete  Group deletion (atomic)

  Payroll:
    GET/POST       /api/payroll              ?period=YYYY-MM
    GET/DELETE     /api/payroll/{id}
    POST           /api/payroll/{id}/state   Validated transition
    GET            /api/payroll/{id}/history
    GET            /api/payroll/weeks        ?period=YYYY-MM

  Reports:
    GET /api/reports/receipts.xlsx
    GET /api/reports/receipts.csv
    GET /api/reports/payroll/{id}.pdf

ERROR HANDLING:
  JSON ErrorResponse with:
  - 400: invalid input
  - 404: not found (errors.Is against store sentinels)
  - 422: illegal payroll transition
  - 500: everything else

CACHING:
  The supply list feeding the receipts view goes through an injected TTL
  cache keyed by the filter string; every supply write invalidates it.
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construtrack/supply-engine/cache"
	"github.com/construtrack/supply-engine/calendar"
	"github.com/construtrack/supply-engine/logging"
	"github.com/construtrack/supply-engine/payroll"
	"github.com/construtrack/supply-engine/report"
	"github.com/construtrack/supply-engine/store/sqlite"
	"github.com/construtrack/supply-engine/supply"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Supplies *cache.Cache[string, []supply.SupplyLine]
}

// NewHandler wires a handler with a 5-minute supply cache, matching the
// TTL the client layer used.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Supplies: cache.New[string, []supply.SupplyLine](5 * time.Minute),
	}
}

const allSuppliesKey = "all"

// =============================================================================
// PROVIDER HANDLERS
// =============================================================================

func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.Store.ListProviders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list providers", err)
		return
	}
	dtos := make([]ProviderDTO, len(providers))
	for i, p := range providers {
		dtos[i] = toProviderDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetProvider(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "provider", err)
		return
	}
	writeJSON(w, http.StatusOK, toProviderDTO(*p))
}

func (h *Handler) SaveProvider(w http.ResponseWriter, r *http.Request) {
	var dto ProviderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		dto.ID = id
	}
	if dto.ID == "" {
		dto.ID = uuid.NewString()
	}
	p := sqlite.Provider{ID: dto.ID, Name: dto.Name, Contact: dto.Contact, Phone: dto.Phone}
	if err := h.Store.SaveProvider(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save provider", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProvider(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, "provider", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*p))
}

func (h *Handler) SaveProject(w http.ResponseWriter, r *http.Request) {
	var dto ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		dto.ID = id
	}
	if dto.ID == "" {
		dto.ID = uuid.NewString()
	}
	p := sqlite.Project{ID: dto.ID, Name: dto.Name, Location: dto.Location}
	if err := h.Store.SaveProject(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save project", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, "project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*e))
}

func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var dto EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		dto.ID = id
	}
	if dto.ID == "" {
		dto.ID = uuid.NewString()
	}
	e := sqlite.Employee{ID: dto.ID, Name: dto.Name, Role: dto.Role}
	if err := h.Store.SaveEmployee(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, "employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SUPPLY HANDLERS
// =============================================================================

func (h *Handler) ListSupplies(w http.ResponseWriter, r *http.Request) {
	lines, err := h.loadSupplies(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list supplies", err)
		return
	}
	lines = filterSupplies(lines, r)
	dtos := make([]SupplyLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = toSupplyLineDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetSupply(w http.ResponseWriter, r *http.Request) {
	l, err := h.Store.GetSupply(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "supply line", err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplyLineDTO(*l))
}

func (h *Handler) SaveSupply(w http.ResponseWriter, r *http.Request) {
	var line supply.SupplyLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if line.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if line.State == "" {
		line.State = supply.StateRequested
	}
	if !supply.ValidState(line.State) {
		writeError(w, http.StatusBadRequest, "unknown supply state", nil)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		line.ID = id
	}
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if line.CreatedAt == "" {
		line.CreatedAt = now
	}
	line.UpdatedAt = now

	if err := h.Store.SaveSupply(r.Context(), line); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save supply line", err)
		return
	}
	h.Supplies.InvalidateAll()
	writeJSON(w, http.StatusCreated, toSupplyLineDTO(line))
}

func (h *Handler) DeleteSupply(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteSupply(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, "supply line", err)
		return
	}
	h.Supplies.InvalidateAll()
	w.WriteHeader(http.StatusNoContent)
}

// ListReceipts serves the grouped receipt view: display filters first,
// grouping second, exactly the pipeline the table renders.
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	lines, err := h.loadSupplies(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list supplies", err)
		return
	}
	groups := supply.GroupReceipts(filterSupplies(lines, r))
	dtos := make([]ReceiptGroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = toReceiptGroupDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DeleteReceiptGroup removes every member line of a group atomically.
func (h *Handler) DeleteReceiptGroup(w http.ResponseWriter, r *http.Request) {
	var req DeleteGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required", nil)
		return
	}
	if err := h.Store.DeleteSupplies(r.Context(), req.IDs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete group", err)
		return
	}
	h.Supplies.InvalidateAll()
	writeJSON(w, http.StatusOK, map[string]any{"deleted": len(req.IDs)})
}

func (h *Handler) loadSupplies(r *http.Request) ([]supply.SupplyLine, error) {
	if lines, ok := h.Supplies.Get(allSuppliesKey); ok {
		return lines, nil
	}
	lines, err := h.Store.ListSupplies(r.Context())
	if err != nil {
		return nil, err
	}
	h.Supplies.Set(allSuppliesKey, lines)
	return lines, nil
}

// filterSupplies applies the display-level predicates from query params.
// Lines whose date cannot be resolved are excluded from date-ranged views
// rather than defaulted to "now".
func filterSupplies(lines []supply.SupplyLine, r *http.Request) []supply.SupplyLine {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	state := q.Get("state")
	provider := q.Get("provider")
	project := q.Get("project")
	from, hasFrom := calendar.ParseDate(q.Get("from"))
	to, hasTo := calendar.ParseDate(q.Get("to"))

	var out []supply.SupplyLine
	for _, l := range lines {
		if search != "" && !strings.Contains(strings.ToLower(l.Name), search) {
			continue
		}
		if state != "" && string(l.State) != state {
			continue
		}
		if provider != "" && l.ProviderLabel() != provider {
			continue
		}
		if project != "" && l.ProjectLabel() != project {
			continue
		}
		if hasFrom || hasTo {
			d, ok := calendar.ParseDateChain(l.DateCandidates()...)
			if !ok {
				continue
			}
			if hasFrom && d.Before(from) {
				continue
			}
			if hasTo && d.After(to) {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

func (h *Handler) ListPayroll(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListPayroll(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payroll", err)
		return
	}
	dtos := make([]PayrollDTO, len(records))
	for i, rec := range records {
		dtos[i] = toPayrollDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetPayroll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "payroll record", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollDTO(*rec))
}

// CreatePayrollRequest accepts amounts as strings to keep cents exact.
type CreatePayrollRequest struct {
	ID          string `json:"id,omitempty"`
	EmployeeID  string `json:"employee_id"`
	ProjectID   string `json:"project_id,omitempty"`
	Period      string `json:"period"`
	ISOYear     int    `json:"iso_year,omitempty"`
	ISOWeek     int    `json:"iso_week,omitempty"`
	Amount      string `json:"amount"`
	PeriodStart string `json:"period_start,omitempty"`
}

func (h *Handler) SavePayroll(w http.ResponseWriter, r *http.Request) {
	var req CreatePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	if _, _, ok := calendar.ParsePeriod(req.Period); !ok {
		writeError(w, http.StatusBadRequest, "period must be YYYY-MM", nil)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal string", err)
		return
	}

	rec := payroll.Record{
		ID:          req.ID,
		EmployeeID:  req.EmployeeID,
		ProjectID:   req.ProjectID,
		Period:      req.Period,
		ISOYear:     req.ISOYear,
		ISOWeek:     req.ISOWeek,
		Amount:      amount,
		State:       payroll.StateDraft,
		PeriodStart: req.PeriodStart,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	// Derive ISO coordinates from the period start when absent so new
	// records never need the resolver's fallback tail.
	if rec.ISOYear == 0 || rec.ISOWeek == 0 {
		if d, ok := calendar.ParseDate(req.PeriodStart); ok {
			rec.ISOYear, rec.ISOWeek = calendar.ISOWeek(d)
		}
	}

	if err := h.Store.SavePayroll(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save payroll record", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayrollDTO(rec))
}

func (h *Handler) TransitionPayroll(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	to := payroll.State(req.State)
	if !payroll.ValidState(to) {
		writeError(w, http.StatusBadRequest, "unknown payroll state", nil)
		return
	}

	rec, err := h.Store.TransitionPayroll(r.Context(), chi.URLParam(r, "id"), to, req.Actor)
	if err != nil {
		if errors.Is(err, sqlite.ErrInvalidTransition) {
			writeError(w, http.StatusUnprocessableEntity, "Illegal state transition", err)
			return
		}
		writeStoreError(w, "payroll record", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollDTO(*rec))
}

func (h *Handler) DeletePayroll(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePayroll(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, "payroll record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPayrollHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListPayrollHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history", err)
		return
	}
	dtos := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = HistoryEntryDTO{
			FromState: string(e.FromState),
			ToState:   string(e.ToState),
			Actor:     e.Actor,
			At:        e.At,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPeriodWeeks returns the majority weeks of a "YYYY-MM" period.
// A malformed period yields an empty list, matching the core contract.
func (h *Handler) ListPeriodWeeks(w http.ResponseWriter, r *http.Request) {
	weeks := calendar.MonthWeeks(r.URL.Query().Get("period"))
	dtos := make([]WeekDTO, len(weeks))
	for i, wk := range weeks {
		dtos[i] = WeekDTO{
			ISOYear: wk.ISOYear,
			ISOWeek: wk.ISOWeek,
			Monday:  wk.Monday.String(),
			Ordinal: i + 1,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) ExportReceiptsXLSX(w http.ResponseWriter, r *http.Request) {
	groups, err := h.receiptGroups(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="recibos.xlsx"`)
	if err := report.WriteReceiptsXLSX(w, groups); err != nil {
		logger := logging.WithComponent("api")
		logger.Error().Err(err).Msg("xlsx export failed")
	}
}

func (h *Handler) ExportReceiptsCSV(w http.ResponseWriter, r *http.Request) {
	groups, err := h.receiptGroups(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="recibos.csv"`)
	if err := report.WriteReceiptsCSV(w, groups); err != nil {
		logger := logging.WithComponent("api")
		logger.Error().Err(err).Msg("csv export failed")
	}
}

func (h *Handler) ExportPayrollPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.Store.GetPayroll(r.Context(), id)
	if err != nil {
		writeStoreError(w, "payroll record", err)
		return
	}

	employeeName := rec.EmployeeID
	if emp, err := h.Store.GetEmployee(r.Context(), rec.EmployeeID); err == nil {
		employeeName = emp.Name
	}
	history, err := h.Store.ListPayrollHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+report.PayrollPDFName(*rec, employeeName, time.Now())+`"`)
	if err := report.WritePayrollPDF(w, *rec, employeeName, history); err != nil {
		logger := logging.WithComponent("api")
		logger.Error().Err(err).Msg("pdf export failed")
	}
}

func (h *Handler) receiptGroups(r *http.Request) ([]supply.ReceiptGroup, error) {
	lines, err := h.loadSupplies(r)
	if err != nil {
		return nil, err
	}
	return supply.GroupReceipts(filterSupplies(lines, r)), nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeStoreError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found", nil)
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to access "+what, err)
}

func toProviderDTO(p sqlite.Provider) ProviderDTO {
	return ProviderDTO{
		ID: p.ID, Name: p.Name, Contact: p.Contact, Phone: p.Phone,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toProjectDTO(p sqlite.Project) ProjectDTO {
	return ProjectDTO{
		ID: p.ID, Name: p.Name, Location: p.Location,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toEmployeeDTO(e sqlite.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID: e.ID, Name: e.Name, Role: e.Role,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}
