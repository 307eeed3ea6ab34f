// Package mock provides in-memory implementations of the database interfaces.
// It backs tests and BACKEND=memory.
package mock

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// MockEmployeeDirectory is a mock implementation of database.EmployeeWriter
type MockEmployeeDirectory struct {
	mu        sync.RWMutex
	employees map[string]*database.Employee

	// Error injection
	GetError  error
	ListError error
	SetError  error
}

// NewMockEmployeeDirectory creates a new empty directory
func NewMockEmployeeDirectory() *MockEmployeeDirectory {
	return &MockEmployeeDirectory{
		employees: make(map[string]*database.Employee),
	}
}

func employeeKey(tenantID, employeeID string) string {
	return tenantID + "/" + employeeID
}

// AddEmployee adds or replaces an employee
func (m *MockEmployeeDirectory) AddEmployee(e database.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[employeeKey(e.TenantID, e.EmployeeID)] = &e
}

// SetStatus changes the status of an existing employee
func (m *MockEmployeeDirectory) SetStatus(tenantID, employeeID string, status database.EmployeeStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.employees[employeeKey(tenantID, employeeID)]; ok {
		e.Status = status
	}
}

// RemoveEmployee deletes an employee
func (m *MockEmployeeDirectory) RemoveEmployee(tenantID, employeeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.employees, employeeKey(tenantID, employeeID))
}

// GetEmployee returns a copy of the employee, or nil if not found
func (m *MockEmployeeDirectory) GetEmployee(ctx context.Context, tenantID, employeeID string) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[employeeKey(tenantID, employeeID)]
	if !ok {
		return nil, nil
	}
	out := *e
	return &out, nil
}

// ListRecognizable returns active, face-registered employees sorted by tenant and id
func (m *MockEmployeeDirectory) ListRecognizable(ctx context.Context, tenantID string) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.list(tenantID, func(e *database.Employee) bool { return e.Recognizable() }), nil
}

// CountActive returns the number of active employees of a tenant
func (m *MockEmployeeDirectory) CountActive(ctx context.Context, tenantID string) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	return len(m.list(tenantID, func(e *database.Employee) bool { return e.IsActive() })), nil
}

// SearchByName matches the normalized query against normalized full names
func (m *MockEmployeeDirectory) SearchByName(ctx context.Context, tenantID, query string) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.list(tenantID, func(e *database.Employee) bool {
		return facematch.NameMatches(e.FullName(), query)
	}), nil
}

// SetFaceRegistered updates the face flag of an employee
func (m *MockEmployeeDirectory) SetFaceRegistered(ctx context.Context, tenantID, employeeID string, registered bool, encodingRef string) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[employeeKey(tenantID, employeeID)]
	if !ok {
		return fmt.Errorf("%w: %s/%s", database.ErrEmployeeNotFound, tenantID, employeeID)
	}
	e.FaceRegistered = registered
	e.EncodingRef = encodingRef
	return nil
}

func (m *MockEmployeeDirectory) list(tenantID string, keep func(*database.Employee) bool) []database.Employee {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Employee
	for _, e := range m.employees {
		if tenantID != "" && e.TenantID != tenantID {
			continue
		}
		if keep(e) {
			out = append(out, *e)
		}
	}
	slices.SortFunc(out, func(a, b database.Employee) int {
		if c := strings.Compare(a.TenantID, b.TenantID); c != 0 {
			return c
		}
		return strings.Compare(a.EmployeeID, b.EmployeeID)
	})
	return out
}

// MockAttendanceStore is a mock implementation of database.AttendanceWriter.
// WithinDay holds an exclusive lock for the whole callback and applies the
// callback's writes only when it returns nil.
type MockAttendanceStore struct {
	mu        sync.RWMutex
	punches   []database.Punch
	summaries map[string]database.DailySummary

	// Error injection
	InsertError error
	UpsertError error
	ListError   error
}

// NewMockAttendanceStore creates a new empty store
func NewMockAttendanceStore() *MockAttendanceStore {
	return &MockAttendanceStore{
		summaries: make(map[string]database.DailySummary),
	}
}

func summaryKey(tenantID, employeeID, date string) string {
	return tenantID + "/" + employeeID + "/" + date
}

// AddPunch appends a punch directly, bypassing WithinDay
func (m *MockAttendanceStore) AddPunch(p database.Punch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.punches = append(m.punches, p)
}

// PunchCount returns the number of stored punches
func (m *MockAttendanceStore) PunchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.punches)
}

// SummaryCount returns the number of stored summaries
func (m *MockAttendanceStore) SummaryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.summaries)
}

// ListPunches returns punches with from <= timestamp < to, newest first
func (m *MockAttendanceStore) ListPunches(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]database.Punch, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := filterPunches(m.punches, tenantID, employeeID, from, to)
	slices.Reverse(out)
	return out, nil
}

// GetSummary returns the summary of a date, or nil
func (m *MockAttendanceStore) GetSummary(ctx context.Context, tenantID, employeeID, date string) (*database.DailySummary, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.summaries[summaryKey(tenantID, employeeID, date)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// ListSummaries returns summaries in [fromDate, toDate] ordered by date and employee
func (m *MockAttendanceStore) ListSummaries(ctx context.Context, tenantID, employeeID, fromDate, toDate string) ([]database.DailySummary, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.DailySummary
	for _, s := range m.summaries {
		if s.TenantID != tenantID || (employeeID != "" && s.EmployeeID != employeeID) {
			continue
		}
		if s.Date < fromDate || s.Date > toDate {
			continue
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b database.DailySummary) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.EmployeeID, b.EmployeeID)
	})
	return out, nil
}

// WithinDay runs fn against a staged transaction
func (m *MockAttendanceStore) WithinDay(ctx context.Context, key database.DayKey, fn func(tx database.AttendanceTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &mockTx{store: m, summaries: make(map[string]database.DailySummary)}
	if err := fn(tx); err != nil {
		return err
	}
	m.punches = append(m.punches, tx.punches...)
	for k, s := range tx.summaries {
		m.summaries[k] = s
	}
	return nil
}

type mockTx struct {
	store     *MockAttendanceStore
	punches   []database.Punch
	summaries map[string]database.DailySummary
}

func (tx *mockTx) all() []database.Punch {
	all := make([]database.Punch, 0, len(tx.store.punches)+len(tx.punches))
	all = append(all, tx.store.punches...)
	return append(all, tx.punches...)
}

func (tx *mockTx) LastPunch(ctx context.Context, tenantID, employeeID string, from, to time.Time) (*database.Punch, error) {
	punches := filterPunches(tx.all(), tenantID, employeeID, from, to)
	if len(punches) == 0 {
		return nil, nil
	}
	last := punches[len(punches)-1]
	return &last, nil
}

func (tx *mockTx) DayPunches(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]database.Punch, error) {
	return filterPunches(tx.all(), tenantID, employeeID, from, to), nil
}

func (tx *mockTx) InsertPunch(ctx context.Context, p *database.Punch) error {
	if tx.store.InsertError != nil {
		return tx.store.InsertError
	}
	tx.punches = append(tx.punches, *p)
	return nil
}

func (tx *mockTx) UpsertSummary(ctx context.Context, s *database.DailySummary) error {
	if tx.store.UpsertError != nil {
		return tx.store.UpsertError
	}
	tx.summaries[summaryKey(s.TenantID, s.EmployeeID, s.Date)] = *s
	return nil
}

// filterPunches returns matching punches sorted oldest first (stable by insertion).
func filterPunches(all []database.Punch, tenantID, employeeID string, from, to time.Time) []database.Punch {
	var out []database.Punch
	for _, p := range all {
		if p.TenantID != tenantID || p.EmployeeID != employeeID {
			continue
		}
		if p.Timestamp.Before(from) || !p.Timestamp.Before(to) {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b database.Punch) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// Register installs the in-memory backend in the database provider
func Register(employees *MockEmployeeDirectory, attendance *MockAttendanceStore) {
	database.RegisterBackend("memory",
		func() database.EmployeeWriter { return employees },
		func() database.AttendanceWriter { return attendance },
	)
}
