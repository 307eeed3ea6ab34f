package database

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout of local calendar dates used as day keys.
const DateLayout = "2006-01-02"

// EmployeeStatus mirrors the HR directory status column.
type EmployeeStatus string

const (
	StatusActive    EmployeeStatus = "active"
	StatusInactive  EmployeeStatus = "inactive"
	StatusSuspended EmployeeStatus = "suspended"
)

// Employee is an employee as seen by the attendance pipeline.
type Employee struct {
	TenantID       string         `json:"tenant_id"`
	EmployeeID     string         `json:"employee_id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Status         EmployeeStatus `json:"status"`
	FaceRegistered bool           `json:"face_registered"`
	EncodingRef    string         `json:"encoding_ref,omitempty"` // store-specific location of the encoding
}

// FullName returns "First Last".
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// IsActive reports whether the employee may punch.
func (e Employee) IsActive() bool {
	return e.Status == StatusActive
}

// Recognizable reports whether the employee belongs in the known encoding set.
func (e Employee) Recognizable() bool {
	return e.IsActive() && e.FaceRegistered
}

// PunchType is the direction of a punch.
type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// Opposite returns the type that must follow t.
func (t PunchType) Opposite() PunchType {
	if t == PunchIn {
		return PunchOut
	}
	return PunchIn
}

// Punch is one committed attendance event. Punches are append-only.
type Punch struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	EmployeeID string    `json:"employee_id"`
	CameraID   string    `json:"camera_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Type       PunchType `json:"type"`
	Confidence float64   `json:"confidence"`
	Distance   float64   `json:"distance"`
	Manual     bool      `json:"manual"`
	Notes      string    `json:"notes,omitempty"`
}

// DailySummary aggregates one employee's punches of one local date.
// It is derived data and is overwritten on every recompute.
type DailySummary struct {
	TenantID         string              `json:"tenant_id"`
	EmployeeID       string              `json:"employee_id"`
	Date             string              `json:"date"`
	CheckIn          *time.Time          `json:"check_in"`
	CheckOut         *time.Time          `json:"check_out"`
	TotalHours       decimal.NullDecimal `json:"total_hours"`
	IsPresent        bool                `json:"is_present"`
	IsLate           bool                `json:"is_late"`
	IsEarlyDeparture bool                `json:"is_early_departure"`
	FirstPunchID     string              `json:"first_punch_id,omitempty"`
	LastPunchID      string              `json:"last_punch_id,omitempty"`
}

// DayKey identifies one employee's local calendar day.
type DayKey struct {
	TenantID   string
	EmployeeID string
	Date       string // DateLayout
}

func (k DayKey) String() string {
	return k.TenantID + "|" + k.EmployeeID + "|" + k.Date
}
