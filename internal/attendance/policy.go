// Package attendance turns accepted face observations into an alternating
// IN/OUT punch sequence per employee and local day, and keeps one derived
// daily summary per employee and day.
package attendance

import (
	"fmt"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/config"
)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// SinceMidnight returns the offset of c from midnight.
func (c ClockTime) SinceMidnight() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Policy controls deduplication and summary rules.
type Policy struct {
	ConfidenceThreshold    float64 // minimum confidence for automatic punches
	MinPunchInterval       time.Duration
	WorkStart              ClockTime
	WorkEnd                ClockTime
	Location               *time.Location // day boundaries and work hours are evaluated here
	ManualBypassesCooldown bool
}

// DefaultPolicy returns the built-in policy (70%, 5 minutes, 09:00-18:00, Asia/Kolkata).
func DefaultPolicy() Policy {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return Policy{
		ConfidenceThreshold: 70,
		MinPunchInterval:    5 * time.Minute,
		WorkStart:           ClockTime{Hour: 9},
		WorkEnd:             ClockTime{Hour: 18},
		Location:            loc,
	}
}

// PolicyFromConfig builds a Policy from the attendance configuration.
func PolicyFromConfig(cfg config.AttendanceConfig) (Policy, error) {
	start, err := ParseClockTime(cfg.WorkStartTime)
	if err != nil {
		return Policy{}, fmt.Errorf("work start: %w", err)
	}
	end, err := ParseClockTime(cfg.WorkEndTime)
	if err != nil {
		return Policy{}, fmt.Errorf("work end: %w", err)
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return Policy{}, fmt.Errorf("time zone: %w", err)
	}
	return Policy{
		ConfidenceThreshold:    cfg.ConfidenceThreshold,
		MinPunchInterval:       cfg.MinPunchInterval(),
		WorkStart:              start,
		WorkEnd:                end,
		Location:               loc,
		ManualBypassesCooldown: cfg.ManualBypassCooldown,
	}, nil
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// LocalDate returns the calendar date of t in the policy time zone.
func (p Policy) LocalDate(t time.Time) string {
	return t.In(p.location()).Format("2006-01-02")
}

// DayBounds returns [start, end) of a local calendar date. The end is the
// next local midnight, so DST days are 23 or 25 hours long.
func (p Policy) DayBounds(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", date, p.location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return start, start.AddDate(0, 0, 1), nil
}

// timeOfDay returns the local wall-clock time of t as a duration, so a 09:30
// reading compares as 09:30 even on days with a DST transition.
func (p Policy) timeOfDay(t time.Time) time.Duration {
	local := t.In(p.location())
	return time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
}
