package attendance

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

var secondsPerHour = decimal.NewFromInt(3600)

// ComputeSummary derives the daily summary of key from that day's punches.
// FirstPunchID and LastPunchID reference the punches behind CheckIn and CheckOut.
// It is pure: the same punches and policy always give an identical summary.
func ComputeSummary(key database.DayKey, punches []database.Punch, policy Policy) database.DailySummary {
	sorted := slices.Clone(punches)
	slices.SortStableFunc(sorted, func(a, b database.Punch) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	summary := database.DailySummary{
		TenantID:   key.TenantID,
		EmployeeID: key.EmployeeID,
		Date:       key.Date,
	}
	if len(sorted) == 0 {
		return summary
	}
	var firstIn, lastOut *database.Punch
	for i := range sorted {
		p := &sorted[i]
		switch p.Type {
		case database.PunchIn:
			if firstIn == nil {
				firstIn = p
			}
		case database.PunchOut:
			lastOut = p
		}
	}

	loc := policy.location()
	if firstIn != nil {
		in := firstIn.Timestamp.In(loc)
		summary.CheckIn = &in
		summary.FirstPunchID = firstIn.ID
		summary.IsPresent = true
		summary.IsLate = policy.timeOfDay(in) > policy.WorkStart.SinceMidnight()
	}
	if lastOut != nil {
		out := lastOut.Timestamp.In(loc)
		summary.CheckOut = &out
		summary.LastPunchID = lastOut.ID
		summary.IsEarlyDeparture = policy.timeOfDay(out) < policy.WorkEnd.SinceMidnight()
	}
	if firstIn != nil && lastOut != nil && lastOut.Timestamp.After(firstIn.Timestamp) {
		summary.TotalHours = decimal.NewNullDecimal(hoursBetween(firstIn.Timestamp, lastOut.Timestamp))
	}
	return summary
}

// hoursBetween returns (to - from) in hours rounded half-up to 2 places.
func hoursBetween(from, to time.Time) decimal.Decimal {
	elapsed := to.Sub(from)
	seconds := decimal.New(elapsed.Nanoseconds(), -9)
	return seconds.Div(secondsPerHour).Round(2)
}
