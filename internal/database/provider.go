package database

import (
	"context"
	"fmt"
	"sync"
)

var (
	backendMu        sync.RWMutex
	backendName      string
	employeeWriter   func() EmployeeWriter
	attendanceWriter func() AttendanceWriter
)

// RegisterBackend registers repository constructors.
// This is called by the backend packages to avoid import cycles.
func RegisterBackend(name string, employees func() EmployeeWriter, attendance func() AttendanceWriter) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendName = name
	employeeWriter = employees
	attendanceWriter = attendance
}

// RegisterEmployeeDirectory replaces the employee constructor, e.g. with the HR directory.
func RegisterEmployeeDirectory(employees func() EmployeeWriter) {
	backendMu.Lock()
	defer backendMu.Unlock()
	employeeWriter = employees
}

// IsInitialized returns whether a backend has been registered.
func IsInitialized() bool {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return backendName != ""
}

// BackendName returns the name of the registered backend.
func BackendName() string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return backendName
}

// GetEmployeeReader returns an EmployeeReader from the registered backend
func GetEmployeeReader(ctx context.Context) (EmployeeReader, error) {
	return GetEmployeeWriter(ctx)
}

// GetEmployeeWriter returns an EmployeeWriter from the registered backend
func GetEmployeeWriter(ctx context.Context) (EmployeeWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if backendName == "" {
		return nil, fmt.Errorf("database backend not initialized: DATABASE_URL or BACKEND=memory is required")
	}
	if employeeWriter == nil {
		return nil, fmt.Errorf("%s employee repository not registered", backendName)
	}
	return employeeWriter(), nil
}

// GetAttendanceWriter returns an AttendanceWriter from the registered backend
func GetAttendanceWriter(ctx context.Context) (AttendanceWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if backendName == "" {
		return nil, fmt.Errorf("database backend not initialized: DATABASE_URL or BACKEND=memory is required")
	}
	if attendanceWriter == nil {
		return nil, fmt.Errorf("%s attendance repository not registered", backendName)
	}
	return attendanceWriter(), nil
}

// GetAttendanceReader returns an AttendanceReader from the registered backend
func GetAttendanceReader(ctx context.Context) (AttendanceReader, error) {
	return GetAttendanceWriter(ctx)
}
