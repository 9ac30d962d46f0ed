package reservation

import (
	"math"
	"time"

	"cleaning-reservation-be/internal/entity"
)

// MinDurationHours is the floor applied after a late-arrival recalculation.
const MinDurationHours = 1.0

// ShortenedDuration drops the delay from the booked duration, never below
// MinDurationHours, rounded to two decimals.
func ShortenedDuration(original float64, delayMinutes int) float64 {
	d := original - float64(delayMinutes)/60
	if d < MinDurationHours {
		d = MinDurationHours
	}
	return math.Round(d*100) / 100
}

// DelayMinutes is the whole minutes between the scheduled start and now, never negative.
func DelayMinutes(scheduledStart, now time.Time) int {
	if !now.After(scheduledStart) {
		return 0
	}
	return int(now.Sub(scheduledStart) / time.Minute)
}

// LateReport describes a recalculation for callers that want the numbers.
type LateReport struct {
	ScheduledStart time.Time
	DelayMinutes   int
	NewDuration    float64
	WindowStart    time.Time
	WindowEnd      time.Time
}

// ReportLate marks the reservation late and shortens its duration. The delay
// is measured from the scheduled start, not from when the report is filed.
func (ru *Rules) ReportLate(r *entity.Reservation, actor entity.Actor, now time.Time) (*Outcome, *LateReport, error) {
	if actor.Role != entity.UserRoleCleaner || !r.IsAssignedCleaner(actor.UserId) {
		return nil, nil, ErrForbidden
	}
	if r.IsLate {
		return nil, nil, ErrAlreadyLate
	}
	if r.Status != entity.ReservationStatusConfirmed && r.Status != entity.ReservationStatusOnTheWay {
		return nil, nil, &TransitionError{From: string(r.Status), To: "late"}
	}

	start, err := ru.calc.ScheduledStart(r, now)
	if err != nil {
		return nil, nil, err
	}
	delay := DelayMinutes(start, now)
	newDuration := ShortenedDuration(r.DurationHours, delay)

	report := &LateReport{
		ScheduledStart: start,
		DelayMinutes:   delay,
		NewDuration:    newDuration,
		WindowStart:    start.Add(time.Duration(delay) * time.Minute),
	}
	report.WindowEnd = report.WindowStart.Add(time.Duration(newDuration * float64(time.Hour)))

	late := true
	out := &Outcome{}
	out.Patch.IsLate = &late
	out.Patch.DurationHours = &newDuration
	out.Events = append(out.Events, lateNotice(r, report, ru.calc.Location()))
	return out, report, nil
}
