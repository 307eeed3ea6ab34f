package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

// Observation is a recognized (or manually entered) sighting of an employee.
type Observation struct {
	Employee   database.Employee
	Confidence float64
	Distance   float64
	CameraID   string
	Timestamp  time.Time
	Manual     bool
	Notes      string
}

// Service decides and commits punches.
type Service struct {
	store     database.AttendanceWriter
	employees database.EmployeeReader
	policy    Policy
	locks     *keyedMutex
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service. employees may be nil if DailyOverview is not used.
func NewService(store database.AttendanceWriter, employees database.EmployeeReader, policy Policy, opts ...Option) *Service {
	s := &Service{
		store:     store,
		employees: employees,
		policy:    policy,
		locks:     newKeyedMutex(),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the policy in effect.
func (s *Service) Policy() Policy {
	return s.policy
}

// MarkAttendance applies the deduplication rules to obs and, if accepted,
// commits a punch of the alternating type together with the recomputed
// summary of that local day. Rejections are reported with the sentinel
// errors of this package (see IsRejection) and leave the store untouched.
func (s *Service) MarkAttendance(ctx context.Context, obs Observation) (*database.Punch, error) {
	if !obs.Employee.IsActive() {
		return nil, fmt.Errorf("%w: %s is %s", ErrEmployeeInactive, obs.Employee.EmployeeID, obs.Employee.Status)
	}
	if !obs.Manual && obs.Confidence < s.policy.ConfidenceThreshold {
		return nil, fmt.Errorf("%w: %.1f < %.1f", ErrBelowConfidenceThreshold, obs.Confidence, s.policy.ConfidenceThreshold)
	}
	if obs.Timestamp.IsZero() {
		obs.Timestamp = s.now()
	}

	key := database.DayKey{
		TenantID:   obs.Employee.TenantID,
		EmployeeID: obs.Employee.EmployeeID,
		Date:       s.policy.LocalDate(obs.Timestamp),
	}
	dayStart, dayEnd, err := s.policy.DayBounds(key.Date)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(key.String())
	defer unlock()

	var punch *database.Punch
	err = s.store.WithinDay(ctx, key, func(tx database.AttendanceTx) error {
		last, err := tx.LastPunch(ctx, key.TenantID, key.EmployeeID, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("last punch: %w", err)
		}

		punchType := database.PunchIn
		if last != nil {
			// A punch must come strictly after the day's last punch, even when
			// the cooldown is bypassed, or the stored sequence stops alternating.
			elapsed := obs.Timestamp.Sub(last.Timestamp)
			if elapsed <= 0 {
				return fmt.Errorf("%w: %s is not after %s at %s", ErrTooSoonSincePunch,
					obs.Timestamp.In(s.policy.location()).Format("15:04:05"), last.Type,
					last.Timestamp.In(s.policy.location()).Format("15:04:05"))
			}
			bypass := obs.Manual && s.policy.ManualBypassesCooldown
			if !bypass && elapsed < s.policy.MinPunchInterval {
				return fmt.Errorf("%w: %s since %s at %s", ErrTooSoonSincePunch,
					elapsed.Round(time.Second), last.Type, last.Timestamp.In(s.policy.location()).Format("15:04:05"))
			}
			punchType = last.Type.Opposite()
		}

		p := &database.Punch{
			ID:         uuid.NewString(),
			TenantID:   key.TenantID,
			EmployeeID: key.EmployeeID,
			CameraID:   obs.CameraID,
			Timestamp:  obs.Timestamp,
			Type:       punchType,
			Confidence: obs.Confidence,
			Distance:   obs.Distance,
			Manual:     obs.Manual,
			Notes:      obs.Notes,
		}
		if err := tx.InsertPunch(ctx, p); err != nil {
			return fmt.Errorf("insert punch: %w", err)
		}

		punches, err := tx.DayPunches(ctx, key.TenantID, key.EmployeeID, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("day punches: %w", err)
		}
		summary := ComputeSummary(key, punches, s.policy)
		if err := tx.UpsertSummary(ctx, &summary); err != nil {
			return fmt.Errorf("upsert summary: %w", err)
		}
		punch = p
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			s.logger.Debug("observation rejected", "employee", key.EmployeeID, "tenant", key.TenantID, "reason", err)
		}
		return nil, err
	}

	s.logger.Info("attendance marked",
		"employee", punch.EmployeeID, "tenant", punch.TenantID, "type", punch.Type,
		"confidence", punch.Confidence, "manual", punch.Manual)
	return punch, nil
}

// Recompute rebuilds the summary of one employee day from its punches.
// It returns nil without writing when the day has no punches.
func (s *Service) Recompute(ctx context.Context, tenantID, employeeID, date string) (*database.DailySummary, error) {
	dayStart, dayEnd, err := s.policy.DayBounds(date)
	if err != nil {
		return nil, err
	}
	key := database.DayKey{TenantID: tenantID, EmployeeID: employeeID, Date: date}

	unlock := s.locks.Lock(key.String())
	defer unlock()

	var summary *database.DailySummary
	err = s.store.WithinDay(ctx, key, func(tx database.AttendanceTx) error {
		punches, err := tx.DayPunches(ctx, tenantID, employeeID, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("day punches: %w", err)
		}
		if len(punches) == 0 {
			return nil
		}
		computed := ComputeSummary(key, punches, s.policy)
		if err := tx.UpsertSummary(ctx, &computed); err != nil {
			return fmt.Errorf("upsert summary: %w", err)
		}
		summary = &computed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// History returns punches of an employee between two local dates (inclusive), newest first.
func (s *Service) History(ctx context.Context, tenantID, employeeID, fromDate, toDate string) ([]database.Punch, error) {
	from, _, err := s.policy.DayBounds(fromDate)
	if err != nil {
		return nil, err
	}
	_, to, err := s.policy.DayBounds(toDate)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is after %s", fromDate, toDate)
	}
	return s.store.ListPunches(ctx, tenantID, employeeID, from, to)
}

// Summary returns the stored summary of a day, or nil.
func (s *Service) Summary(ctx context.Context, tenantID, employeeID, date string) (*database.DailySummary, error) {
	if _, _, err := s.policy.DayBounds(date); err != nil {
		return nil, err
	}
	return s.store.GetSummary(ctx, tenantID, employeeID, date)
}

// Today returns the local date of the current time.
func (s *Service) Today() string {
	return s.policy.LocalDate(s.now())
}
