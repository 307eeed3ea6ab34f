package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

// MonthlyStats summarises one employee's month.
type MonthlyStats struct {
	EmployeeID           string          `json:"employee_id"`
	Year                 int             `json:"year"`
	Month                time.Month      `json:"month"`
	TotalDays            int             `json:"total_days"`
	PresentDays          int             `json:"present_days"`
	AbsentDays           int             `json:"absent_days"`
	LateDays             int             `json:"late_days"`
	EarlyDepartures      int             `json:"early_departures"`
	AttendancePercentage decimal.Decimal `json:"attendance_percentage"`
	AverageHours         decimal.Decimal `json:"average_hours"`
}

// DailyOverview summarises one tenant's day.
type DailyOverview struct {
	Date            string `json:"date"`
	TotalEmployees  int    `json:"total_employees"`
	Present         int    `json:"present"`
	Absent          int    `json:"absent"`
	Late            int    `json:"late"`
	EarlyDepartures int    `json:"early_departures"`
}

// ComputeMonthlyStats aggregates summaries. TotalDays counts days with a summary;
// AverageHours averages the days that have total hours.
func ComputeMonthlyStats(employeeID string, year int, month time.Month, summaries []database.DailySummary) MonthlyStats {
	st := MonthlyStats{
		EmployeeID:           employeeID,
		Year:                 year,
		Month:                month,
		TotalDays:            len(summaries),
		AttendancePercentage: decimal.Zero,
		AverageHours:         decimal.Zero,
	}
	var hours []float64
	for _, s := range summaries {
		if s.IsPresent {
			st.PresentDays++
		}
		if s.IsLate {
			st.LateDays++
		}
		if s.IsEarlyDeparture {
			st.EarlyDepartures++
		}
		if s.TotalHours.Valid {
			hours = append(hours, s.TotalHours.Decimal.InexactFloat64())
		}
	}
	st.AbsentDays = st.TotalDays - st.PresentDays
	if st.TotalDays > 0 {
		st.AttendancePercentage = decimal.NewFromInt(int64(st.PresentDays)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(st.TotalDays))).
			Round(2)
	}
	if len(hours) > 0 {
		st.AverageHours = decimal.NewFromFloat(stat.Mean(hours, nil)).Round(2)
	}
	return st
}

// MonthlyStats loads and aggregates one employee's summaries of a month.
func (s *Service) MonthlyStats(ctx context.Context, tenantID, employeeID string, year int, month time.Month) (*MonthlyStats, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	summaries, err := s.store.ListSummaries(ctx, tenantID, employeeID, first.Format(database.DateLayout), last.Format(database.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	st := ComputeMonthlyStats(employeeID, year, month, summaries)
	return &st, nil
}

// DailyOverview counts present, late and early-departing employees of a tenant on date.
func (s *Service) DailyOverview(ctx context.Context, tenantID, date string) (*DailyOverview, error) {
	if _, _, err := s.policy.DayBounds(date); err != nil {
		return nil, err
	}
	if s.employees == nil {
		return nil, fmt.Errorf("daily overview: no employee directory configured")
	}
	total, err := s.employees.CountActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
	}
	summaries, err := s.store.ListSummaries(ctx, tenantID, "", date, date)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	ov := &DailyOverview{Date: date, TotalEmployees: total}
	for _, sum := range summaries {
		if sum.IsPresent {
			ov.Present++
		}
		if sum.IsLate {
			ov.Late++
		}
		if sum.IsEarlyDeparture {
			ov.EarlyDepartures++
		}
	}
	ov.Absent = max(0, total-ov.Present)
	return ov, nil
}
