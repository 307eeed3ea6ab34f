package mariadb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// hrEmployee is a row of the HR employees table. company_id is the tenant.
type hrEmployee struct {
	CompanyID        string `gorm:"column:company_id;primaryKey"`
	EmployeeID       string `gorm:"column:employee_id;primaryKey"`
	FirstName        string `gorm:"column:first_name"`
	LastName         string `gorm:"column:last_name"`
	Status           string `gorm:"column:status"`
	FaceRegistered   bool   `gorm:"column:face_registered"`
	FaceEncodingPath string `gorm:"column:face_encoding_path"`
}

func (hrEmployee) TableName() string {
	return "employees"
}

func (e hrEmployee) toEmployee() database.Employee {
	return database.Employee{
		TenantID:       e.CompanyID,
		EmployeeID:     e.EmployeeID,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Status:         database.EmployeeStatus(strings.ToLower(e.Status)),
		FaceRegistered: e.FaceRegistered,
		EncodingRef:    e.FaceEncodingPath,
	}
}

// Directory is an employee directory over the HR database.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a directory on the pool's gorm session.
func NewDirectory(p *Pool) *Directory {
	return &Directory{db: p.gorm}
}

// GetEmployee retrieves an employee, returns nil if not found
func (d *Directory) GetEmployee(ctx context.Context, tenantID, employeeID string) (*database.Employee, error) {
	var row hrEmployee
	err := d.db.WithContext(ctx).
		Where("company_id = ? AND employee_id = ?", tenantID, employeeID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	e := row.toEmployee()
	return &e, nil
}

// ListRecognizable returns active, face-registered employees
func (d *Directory) ListRecognizable(ctx context.Context, tenantID string) ([]database.Employee, error) {
	q := d.db.WithContext(ctx).Where("status = ? AND face_registered = ?", string(database.StatusActive), true)
	if tenantID != "" {
		q = q.Where("company_id = ?", tenantID)
	}
	return d.find(q.Order("company_id, employee_id"))
}

// CountActive returns the number of active employees of a tenant
func (d *Directory) CountActive(ctx context.Context, tenantID string) (int, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&hrEmployee{}).
		Where("company_id = ? AND status = ?", tenantID, string(database.StatusActive)).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count active employees: %w", err)
	}
	return int(n), nil
}

// SearchByName matches the normalized query against normalized full names
func (d *Directory) SearchByName(ctx context.Context, tenantID, query string) ([]database.Employee, error) {
	all, err := d.find(d.db.WithContext(ctx).Where("company_id = ?", tenantID).Order("employee_id"))
	if err != nil {
		return nil, err
	}
	var out []database.Employee
	for _, e := range all {
		if facematch.NameMatches(e.FullName(), query) {
			out = append(out, e)
		}
	}
	return out, nil
}

// SetFaceRegistered updates the face flag and encoding path of an employee
func (d *Directory) SetFaceRegistered(ctx context.Context, tenantID, employeeID string, registered bool, encodingRef string) error {
	// RowsAffected is 0 for unchanged rows in MySQL, so existence is checked first.
	existing, err := d.GetEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s/%s", database.ErrEmployeeNotFound, tenantID, employeeID)
	}

	err = d.db.WithContext(ctx).Model(&hrEmployee{}).
		Where("company_id = ? AND employee_id = ?", tenantID, employeeID).
		Updates(map[string]any{
			"face_registered":    registered,
			"face_encoding_path": encodingRef,
		}).Error
	if err != nil {
		return fmt.Errorf("set face registered: %w", err)
	}
	return nil
}

func (d *Directory) find(q *gorm.DB) ([]database.Employee, error) {
	var rows []hrEmployee
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	out := make([]database.Employee, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEmployee())
	}
	return out, nil
}
