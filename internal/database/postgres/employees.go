package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// EmployeeRepository provides PostgreSQL-backed employee storage
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new PostgreSQL employee repository
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

const employeeColumns = `tenant_id, employee_id, first_name, last_name, status, face_registered, encoding_ref`

// GetEmployee retrieves an employee, returns nil if not found
func (r *EmployeeRepository) GetEmployee(ctx context.Context, tenantID, employeeID string) (*database.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = $1 AND employee_id = $2`

	e, err := scanEmployee(r.pool.QueryRow(ctx, query, tenantID, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// ListRecognizable returns active, face-registered employees
func (r *EmployeeRepository) ListRecognizable(ctx context.Context, tenantID string) ([]database.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE status = $1 AND face_registered AND ($2 = '' OR tenant_id = $2)
		ORDER BY tenant_id, employee_id
	`
	return r.list(ctx, query, string(database.StatusActive), tenantID)
}

// CountActive returns the number of active employees of a tenant
func (r *EmployeeRepository) CountActive(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM employees WHERE tenant_id = $1 AND status = $2`,
		tenantID, string(database.StatusActive),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active employees: %w", err)
	}
	return n, nil
}

// SearchByName matches the normalized query against normalized full names.
// Names are compared without diacritics, so filtering happens in Go.
func (r *EmployeeRepository) SearchByName(ctx context.Context, tenantID, query string) ([]database.Employee, error) {
	all, err := r.list(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE tenant_id = $1 ORDER BY employee_id`,
		tenantID)
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

// SetFaceRegistered updates the face flag of an employee
func (r *EmployeeRepository) SetFaceRegistered(ctx context.Context, tenantID, employeeID string, registered bool, encodingRef string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE employees
		SET face_registered = $3, encoding_ref = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND employee_id = $2
	`, tenantID, employeeID, registered, encodingRef)
	if err != nil {
		return fmt.Errorf("set face registered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set face registered: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", database.ErrEmployeeNotFound, tenantID, employeeID)
	}
	return nil
}

// Upsert creates or replaces an employee record
func (r *EmployeeRepository) Upsert(ctx context.Context, e database.Employee) error {
	status := e.Status
	if status == "" {
		status = database.StatusActive
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, employee_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			status = EXCLUDED.status,
			face_registered = EXCLUDED.face_registered,
			encoding_ref = EXCLUDED.encoding_ref,
			updated_at = NOW()
	`, e.TenantID, e.EmployeeID, e.FirstName, e.LastName, string(status), e.FaceRegistered, e.EncodingRef)
	if err != nil {
		return fmt.Errorf("upsert employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) list(ctx context.Context, query string, args ...any) ([]database.Employee, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []database.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*database.Employee, error) {
	var e database.Employee
	var status string
	if err := row.Scan(&e.TenantID, &e.EmployeeID, &e.FirstName, &e.LastName, &status, &e.FaceRegistered, &e.EncodingRef); err != nil {
		return nil, err
	}
	e.Status = database.EmployeeStatus(status)
	return &e, nil
}
