package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed punch and summary storage
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const punchColumns = `id, tenant_id, employee_id, camera_id, ts, punch_type, confidence, distance, manual, notes`

const summaryColumns = `tenant_id, employee_id, work_date::text, check_in, check_out, total_hours,
	is_present, is_late, is_early_departure, first_punch_id, last_punch_id`

// ListPunches returns punches with from <= timestamp < to, newest first
func (r *AttendanceRepository) ListPunches(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]database.Punch, error) {
	return queryPunches(ctx, r.pool.db, `
		SELECT `+punchColumns+`
		FROM punches
		WHERE tenant_id = $1 AND employee_id = $2 AND ts >= $3 AND ts < $4
		ORDER BY ts DESC, id DESC
	`, tenantID, employeeID, from, to)
}

// GetSummary retrieves a daily summary, returns nil if not found
func (r *AttendanceRepository) GetSummary(ctx context.Context, tenantID, employeeID, date string) (*database.DailySummary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+summaryColumns+`
		FROM daily_summaries
		WHERE tenant_id = $1 AND employee_id = $2 AND work_date = $3::date
	`, tenantID, employeeID, date)

	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return s, nil
}

// ListSummaries returns summaries with fromDate <= date <= toDate ordered by date
func (r *AttendanceRepository) ListSummaries(ctx context.Context, tenantID, employeeID, fromDate, toDate string) ([]database.DailySummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+summaryColumns+`
		FROM daily_summaries
		WHERE tenant_id = $1 AND ($2 = '' OR employee_id = $2)
		  AND work_date >= $3::date AND work_date <= $4::date
		ORDER BY work_date, employee_id
	`, tenantID, employeeID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []database.DailySummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}

// WithinDay runs fn in a transaction holding an advisory lock on the day key,
// so commits for the same employee and date are serialized across processes.
// The transaction commits only if fn returns nil.
func (r *AttendanceRepository) WithinDay(ctx context.Context, key database.DayKey, fn func(tx database.AttendanceTx) error) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key.String()); err != nil {
		return fmt.Errorf("lock day %s: %w", key, err)
	}
	if err := fn(&dayTx{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit day %s: %w", key, err)
	}
	return nil
}

type dayTx struct {
	q querier
}

func (t *dayTx) LastPunch(ctx context.Context, tenantID, employeeID string, from, to time.Time) (*database.Punch, error) {
	punches, err := queryPunches(ctx, t.q, `
		SELECT `+punchColumns+`
		FROM punches
		WHERE tenant_id = $1 AND employee_id = $2 AND ts >= $3 AND ts < $4
		ORDER BY ts DESC, id DESC
		LIMIT 1
	`, tenantID, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	if len(punches) == 0 {
		return nil, nil
	}
	return &punches[0], nil
}

func (t *dayTx) DayPunches(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]database.Punch, error) {
	return queryPunches(ctx, t.q, `
		SELECT `+punchColumns+`
		FROM punches
		WHERE tenant_id = $1 AND employee_id = $2 AND ts >= $3 AND ts < $4
		ORDER BY ts, id
	`, tenantID, employeeID, from, to)
}

func (t *dayTx) InsertPunch(ctx context.Context, p *database.Punch) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO punches (`+punchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.TenantID, p.EmployeeID, p.CameraID, p.Timestamp, string(p.Type),
		p.Confidence, p.Distance, p.Manual, p.Notes)
	if err != nil {
		return fmt.Errorf("insert punch: %w", err)
	}
	return nil
}

func (t *dayTx) UpsertSummary(ctx context.Context, s *database.DailySummary) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO daily_summaries (
			tenant_id, employee_id, work_date, check_in, check_out, total_hours,
			is_present, is_late, is_early_departure, first_punch_id, last_punch_id
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (tenant_id, employee_id, work_date) DO UPDATE SET
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			total_hours = EXCLUDED.total_hours,
			is_present = EXCLUDED.is_present,
			is_late = EXCLUDED.is_late,
			is_early_departure = EXCLUDED.is_early_departure,
			first_punch_id = EXCLUDED.first_punch_id,
			last_punch_id = EXCLUDED.last_punch_id,
			updated_at = NOW()
	`, s.TenantID, s.EmployeeID, s.Date, nullTime(s.CheckIn), nullTime(s.CheckOut), s.TotalHours,
		s.IsPresent, s.IsLate, s.IsEarlyDeparture, nullString(s.FirstPunchID), nullString(s.LastPunchID))
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func queryPunches(ctx context.Context, q querier, query string, args ...any) ([]database.Punch, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query punches: %w", err)
	}
	defer rows.Close()

	var out []database.Punch
	for rows.Next() {
		var p database.Punch
		var typ string
		if err := rows.Scan(&p.ID, &p.TenantID, &p.EmployeeID, &p.CameraID, &p.Timestamp, &typ,
			&p.Confidence, &p.Distance, &p.Manual, &p.Notes); err != nil {
			return nil, fmt.Errorf("scan punch: %w", err)
		}
		p.Type = database.PunchType(typ)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate punches: %w", err)
	}
	return out, nil
}

func scanSummary(row rowScanner) (*database.DailySummary, error) {
	var s database.DailySummary
	var checkIn, checkOut sql.NullTime
	var first, last sql.NullString
	if err := row.Scan(&s.TenantID, &s.EmployeeID, &s.Date, &checkIn, &checkOut, &s.TotalHours,
		&s.IsPresent, &s.IsLate, &s.IsEarlyDeparture, &first, &last); err != nil {
		return nil, err
	}
	if checkIn.Valid {
		t := checkIn.Time
		s.CheckIn = &t
	}
	if checkOut.Valid {
		t := checkOut.Time
		s.CheckOut = &t
	}
	s.FirstPunchID = first.String
	s.LastPunchID = last.String
	return &s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
