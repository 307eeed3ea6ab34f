package mariadb

import (
	"testing"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

func TestHREmployee_ToEmployee(t *testing.T) {
	tests := []struct {
		name   string
		row    hrEmployee
		active bool
		recog  bool
	}{
		{
			name:   "active registered",
			row:    hrEmployee{CompanyID: "acme", EmployeeID: "EMP001", Status: "active", FaceRegistered: true, FaceEncodingPath: "media/acme/face_encodings/EMP001.cbor"},
			active: true,
			recog:  true,
		},
		{
			name:   "status is case insensitive",
			row:    hrEmployee{CompanyID: "acme", EmployeeID: "EMP002", Status: "ACTIVE"},
			active: true,
		},
		{
			name: "suspended",
			row:  hrEmployee{CompanyID: "acme", EmployeeID: "EMP003", Status: "suspended", FaceRegistered: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.row.toEmployee()
			if e.TenantID != tt.row.CompanyID || e.EmployeeID != tt.row.EmployeeID {
				t.Errorf("ids not mapped: %+v", e)
			}
			if e.IsActive() != tt.active {
				t.Errorf("IsActive() = %v, want %v", e.IsActive(), tt.active)
			}
			if e.Recognizable() != tt.recog {
				t.Errorf("Recognizable() = %v, want %v", e.Recognizable(), tt.recog)
			}
			if e.EncodingRef != tt.row.FaceEncodingPath {
				t.Errorf("EncodingRef = %q", e.EncodingRef)
			}
		})
	}
}

func TestHREmployee_TableName(t *testing.T) {
	if got := (hrEmployee{}).TableName(); got != "employees" {
		t.Errorf("TableName() = %q", got)
	}
}

var _ database.EmployeeWriter = (*Directory)(nil)
