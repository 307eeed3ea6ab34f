package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

func TestMockAttendanceStore_WithinDayRollback(t *testing.T) {
	ctx := context.Background()
	store := NewMockAttendanceStore()
	store.UpsertError = errors.New("disk full")
	key := database.DayKey{TenantID: "t1", EmployeeID: "EMP001", Date: "2026-03-02"}

	err := store.WithinDay(ctx, key, func(tx database.AttendanceTx) error {
		if err := tx.InsertPunch(ctx, &database.Punch{ID: "p1", TenantID: "t1", EmployeeID: "EMP001", Timestamp: time.Now()}); err != nil {
			return err
		}
		return tx.UpsertSummary(ctx, &database.DailySummary{TenantID: "t1", EmployeeID: "EMP001", Date: key.Date})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if store.PunchCount() != 0 || store.SummaryCount() != 0 {
		t.Errorf("expected nothing committed, got %d punches, %d summaries", store.PunchCount(), store.SummaryCount())
	}
}

func TestMockAttendanceStore_TxSeesOwnWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMockAttendanceStore()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	key := database.DayKey{TenantID: "t1", EmployeeID: "EMP001", Date: "2026-03-02"}

	err := store.WithinDay(ctx, key, func(tx database.AttendanceTx) error {
		if err := tx.InsertPunch(ctx, &database.Punch{ID: "p1", TenantID: "t1", EmployeeID: "EMP001", Timestamp: base, Type: database.PunchIn}); err != nil {
			return err
		}
		last, err := tx.LastPunch(ctx, "t1", "EMP001", base.Add(-time.Hour), base.Add(time.Hour))
		if err != nil {
			return err
		}
		if last == nil || last.ID != "p1" {
			t.Errorf("expected own insert to be visible, got %+v", last)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	punches, err := store.ListPunches(ctx, "t1", "EMP001", base.Add(-time.Hour), base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(punches) != 1 {
		t.Errorf("expected 1 committed punch, got %d", len(punches))
	}
}

func TestMockEmployeeDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewMockEmployeeDirectory()
	dir.AddEmployee(database.Employee{TenantID: "t1", EmployeeID: "EMP002", FirstName: "Jiří", LastName: "Novák", Status: database.StatusActive, FaceRegistered: true})
	dir.AddEmployee(database.Employee{TenantID: "t1", EmployeeID: "EMP001", FirstName: "Asha", Status: database.StatusActive})
	dir.AddEmployee(database.Employee{TenantID: "t2", EmployeeID: "EMP001", FirstName: "Ravi", Status: database.StatusActive, FaceRegistered: true})

	recognizable, err := dir.ListRecognizable(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(recognizable) != 1 || recognizable[0].EmployeeID != "EMP002" {
		t.Errorf("unexpected recognizable set %+v", recognizable)
	}

	all, _ := dir.ListRecognizable(ctx, "")
	if len(all) != 2 || all[0].TenantID != "t1" {
		t.Errorf("expected 2 recognizable employees sorted by tenant, got %+v", all)
	}

	found, _ := dir.SearchByName(ctx, "t1", "jiri novak")
	if len(found) != 1 {
		t.Errorf("expected diacritic-insensitive search to find 1, got %d", len(found))
	}

	if err := dir.SetFaceRegistered(ctx, "t1", "EMP404", true, ""); !errors.Is(err, database.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}
}
