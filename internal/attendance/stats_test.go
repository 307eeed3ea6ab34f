package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

func TestComputeMonthlyStats(t *testing.T) {
	summaries := []database.DailySummary{
		{Date: "2026-03-02", IsPresent: true, IsLate: true, TotalHours: decimal.NewNullDecimal(decimal.RequireFromString("9.08"))},
		{Date: "2026-03-03", IsPresent: true, IsEarlyDeparture: true, TotalHours: decimal.NewNullDecimal(decimal.RequireFromString("7.00"))},
		{Date: "2026-03-04", IsPresent: true},
		{Date: "2026-03-05"},
	}

	st := ComputeMonthlyStats("EMP001", 2026, time.March, summaries)

	if st.TotalDays != 4 || st.PresentDays != 3 || st.AbsentDays != 1 {
		t.Errorf("days = %d/%d/%d, want 4/3/1", st.TotalDays, st.PresentDays, st.AbsentDays)
	}
	if st.LateDays != 1 || st.EarlyDepartures != 1 {
		t.Errorf("late/early = %d/%d, want 1/1", st.LateDays, st.EarlyDepartures)
	}
	if st.AttendancePercentage.String() != "75" {
		t.Errorf("percentage = %s, want 75", st.AttendancePercentage)
	}
	if st.AverageHours.String() != "8.04" {
		t.Errorf("average hours = %s, want 8.04", st.AverageHours)
	}
}

func TestComputeMonthlyStats_Empty(t *testing.T) {
	st := ComputeMonthlyStats("EMP001", 2026, time.March, nil)
	if st.TotalDays != 0 || !st.AttendancePercentage.IsZero() || !st.AverageHours.IsZero() {
		t.Errorf("unexpected stats for empty month: %+v", st)
	}
}

func TestService_MonthlyStatsAndOverview(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"EMP001", "EMP002", "EMP003"} {
		dir.AddEmployee(activeEmployee(id))
	}
	for _, ts := range []time.Time{at(2, 9, 30), at(2, 17, 0)} {
		if _, err := svc.MarkAttendance(ctx, observe(activeEmployee("EMP001"), ts, 90)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.MarkAttendance(ctx, observe(activeEmployee("EMP002"), at(2, 8, 50), 90)); err != nil {
		t.Fatal(err)
	}

	st, err := svc.MonthlyStats(ctx, "tenant-1", "EMP001", 2026, time.March)
	if err != nil {
		t.Fatal(err)
	}
	if st.PresentDays != 1 || st.LateDays != 1 || st.EarlyDepartures != 1 {
		t.Errorf("unexpected monthly stats %+v", st)
	}
	if st.AverageHours.String() != "7.5" {
		t.Errorf("average hours = %s, want 7.5", st.AverageHours)
	}

	ov, err := svc.DailyOverview(ctx, "tenant-1", "2026-03-02")
	if err != nil {
		t.Fatal(err)
	}
	want := DailyOverview{Date: "2026-03-02", TotalEmployees: 3, Present: 2, Absent: 1, Late: 1, EarlyDepartures: 1}
	if *ov != want {
		t.Errorf("overview = %+v, want %+v", *ov, want)
	}

	if _, err := svc.MonthlyStats(ctx, "tenant-1", "EMP001", 2026, 13); err == nil {
		t.Error("expected error for invalid month")
	}
}
