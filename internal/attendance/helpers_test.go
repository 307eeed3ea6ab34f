package attendance

import (
	"testing"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/database/mock"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func testPolicy() Policy {
	return Policy{
		ConfidenceThreshold: 70,
		MinPunchInterval:    5 * time.Minute,
		WorkStart:           ClockTime{Hour: 9},
		WorkEnd:             ClockTime{Hour: 18},
		Location:            ist,
	}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, ist)
}

func activeEmployee(id string) database.Employee {
	return database.Employee{
		TenantID:       "tenant-1",
		EmployeeID:     id,
		FirstName:      "Test",
		Status:         database.StatusActive,
		FaceRegistered: true,
	}
}

func newTestService(t *testing.T) (*Service, *mock.MockAttendanceStore, *mock.MockEmployeeDirectory) {
	t.Helper()
	store := mock.NewMockAttendanceStore()
	dir := mock.NewMockEmployeeDirectory()
	svc := NewService(store, dir, testPolicy(), WithClock(func() time.Time { return at(2, 12, 0) }))
	return svc, store, dir
}

func observe(emp database.Employee, ts time.Time, confidence float64) Observation {
	return Observation{Employee: emp, Confidence: confidence, Distance: 0.2, CameraID: "cam-1", Timestamp: ts}
}
