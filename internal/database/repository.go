package database

import (
	"context"
	"errors"
	"time"
)

// ErrEmployeeNotFound is returned by writers addressing an unknown employee.
var ErrEmployeeNotFound = errors.New("employee not found")

// EmployeeReader provides read-only access to the employee directory
type EmployeeReader interface {
	// GetEmployee returns the employee, or nil if not found
	GetEmployee(ctx context.Context, tenantID, employeeID string) (*Employee, error)
	// ListRecognizable returns active, face-registered employees of a tenant
	// (all tenants when tenantID is empty)
	ListRecognizable(ctx context.Context, tenantID string) ([]Employee, error)
	// CountActive returns the number of active employees of a tenant
	CountActive(ctx context.Context, tenantID string) (int, error)
	// SearchByName finds employees whose normalized name contains the normalized query
	SearchByName(ctx context.Context, tenantID, query string) ([]Employee, error)
}

// EmployeeWriter provides write access to the face registration state
type EmployeeWriter interface {
	EmployeeReader

	// SetFaceRegistered updates the face flag and encoding reference of an employee.
	// Returns ErrEmployeeNotFound if the employee does not exist.
	SetFaceRegistered(ctx context.Context, tenantID, employeeID string, registered bool, encodingRef string) error
}

// AttendanceReader provides read-only access to punches and summaries
type AttendanceReader interface {
	// ListPunches returns punches with from <= timestamp < to, newest first
	ListPunches(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Punch, error)
	// GetSummary returns the summary of a date, or nil if none exists
	GetSummary(ctx context.Context, tenantID, employeeID, date string) (*DailySummary, error)
	// ListSummaries returns summaries with fromDate <= date <= toDate ordered by date.
	// An empty employeeID lists every employee of the tenant.
	ListSummaries(ctx context.Context, tenantID, employeeID, fromDate, toDate string) ([]DailySummary, error)
}

// AttendanceTx is the view of the store inside a day transaction
type AttendanceTx interface {
	// LastPunch returns the latest punch with from <= timestamp < to, or nil
	LastPunch(ctx context.Context, tenantID, employeeID string, from, to time.Time) (*Punch, error)
	// DayPunches returns punches with from <= timestamp < to, oldest first
	DayPunches(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Punch, error)
	// InsertPunch appends a punch
	InsertPunch(ctx context.Context, p *Punch) error
	// UpsertSummary replaces the summary of (tenant, employee, date)
	UpsertSummary(ctx context.Context, s *DailySummary) error
}

// AttendanceWriter provides transactional write access to attendance data
type AttendanceWriter interface {
	AttendanceReader

	// WithinDay runs fn in one transaction, serialized against every other
	// WithinDay call for the same key. Nothing fn wrote is visible if it returns an error.
	WithinDay(ctx context.Context, key DayKey, fn func(tx AttendanceTx) error) error
}
