package reservation

import (
	"fmt"
	"time"

	"cleaning-reservation-be/internal/entity"
)

// ValidateSchedule checks a set of service dates and a start time. Dates must
// be well formed, strictly ascending and free of repeats.
func (ru *Rules) ValidateSchedule(dates []string, serviceTime string) error {
	if len(dates) == 0 {
		return NewValidationError("service_dates", "at least one date is required")
	}
	var prev time.Time
	for i, d := range dates {
		t, err := ru.calc.ParseDate(d)
		if err != nil {
			return err
		}
		if i > 0 && !t.After(prev) {
			return NewValidationError("service_dates", "dates must be ascending and unique")
		}
		prev = t
	}
	if _, err := time.Parse(TimeLayout, serviceTime); err != nil {
		return NewValidationError("service_time", fmt.Sprintf("%q is not an HH:MM time", serviceTime))
	}
	return nil
}

// Reschedule replaces the schedule. The current first date must still be
// before its cutoff, and so must the new one.
func (ru *Rules) Reschedule(r *entity.Reservation, actor entity.Actor, dates []string, serviceTime string, now time.Time) (*Outcome, error) {
	isCustomer := actor.UserId == r.CustomerId && actor.Role == entity.UserRoleCustomer
	if !isCustomer && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !reschedulable[r.Status] {
		return nil, &TransitionError{From: string(r.Status), To: "rescheduled"}
	}
	if err := ru.ValidateSchedule(dates, serviceTime); err != nil {
		return nil, err
	}
	if isCustomer {
		if err := ru.calc.CheckWindow(r, now); err != nil {
			return nil, err
		}
	}
	e, err := ru.calc.Evaluate(dates[0], now)
	if err != nil {
		return nil, err
	}
	if !e.CanModify {
		return nil, NewValidationError("service_dates", "new first date is already past its cutoff")
	}

	out := &Outcome{}
	out.Patch.ServiceDates = append([]string(nil), dates...)
	st := serviceTime
	out.Patch.ServiceTime = &st

	if r.CleanerId != nil {
		out.Events = append(out.Events, rescheduledNotice(r, *r.CleanerId, dates, serviceTime))
	}
	if !isCustomer {
		out.Events = append(out.Events, rescheduledNotice(r, r.CustomerId, dates, serviceTime))
	}
	return out, nil
}
