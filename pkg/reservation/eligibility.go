package reservation

import (
	"fmt"
	"time"

	"cleaning-reservation-be/internal/entity"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// CutoffHour is the local hour on the day before service after which a
	// booking can no longer be rescheduled or cancelled.
	CutoffHour = 17
)

// Eligibility is the read model shown next to a booking.
type Eligibility struct {
	Cutoff        time.Time
	CanModify     bool
	SameDay       bool
	TimeRemaining time.Duration
}

// Calculator evaluates time-window rules in one fixed location.
type Calculator struct {
	loc *time.Location
}

func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	return &Calculator{loc: loc}
}

func (c *Calculator) Location() *time.Location {
	return c.loc
}

// ParseDate reads a YYYY-MM-DD calendar date as midnight in the calculator's location.
func (c *Calculator) ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, c.loc)
	if err != nil {
		return time.Time{}, NewValidationError("service_dates", fmt.Sprintf("%q is not a YYYY-MM-DD date", date))
	}
	return t, nil
}

// Cutoff returns 17:00 on the calendar day before serviceDate, in serviceDate's location.
func Cutoff(serviceDate time.Time) time.Time {
	y, m, d := serviceDate.Date()
	return time.Date(y, m, d-1, CutoffHour, 0, 0, 0, serviceDate.Location())
}

// CanModify reports whether now is strictly before the cutoff of serviceDate.
func CanModify(serviceDate, now time.Time) bool {
	return now.Before(Cutoff(serviceDate))
}

// IsSameDay reports whether now falls on serviceDate's calendar day.
func IsSameDay(serviceDate, now time.Time) bool {
	y1, m1, d1 := serviceDate.Date()
	y2, m2, d2 := now.In(serviceDate.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (c *Calculator) Evaluate(date string, now time.Time) (Eligibility, error) {
	serviceDate, err := c.ParseDate(date)
	if err != nil {
		return Eligibility{}, err
	}
	cutoff := Cutoff(serviceDate)
	e := Eligibility{
		Cutoff:    cutoff,
		CanModify: now.Before(cutoff),
		SameDay:   IsSameDay(serviceDate, now),
	}
	if e.CanModify {
		e.TimeRemaining = cutoff.Sub(now)
	}
	return e, nil
}

// CheckWindow gates reschedule and cancel intents on the reservation's first
// service date.
func (c *Calculator) CheckWindow(r *entity.Reservation, now time.Time) error {
	first := r.FirstServiceDate()
	if first == "" {
		return NewValidationError("service_dates", "reservation has no service date")
	}
	e, err := c.Evaluate(first, now)
	if err != nil {
		return err
	}
	if !e.CanModify {
		return &WindowError{Cutoff: e.Cutoff, SameDay: e.SameDay}
	}
	return nil
}

// ScheduledStart is the start instant the cleaner is measured against: the
// service date that falls on now's calendar day for multi-day bookings,
// otherwise the first service date.
func (c *Calculator) ScheduledStart(r *entity.Reservation, now time.Time) (time.Time, error) {
	if len(r.ServiceDates) == 0 {
		return time.Time{}, NewValidationError("service_dates", "reservation has no service date")
	}
	clock, err := time.Parse(TimeLayout, r.ServiceTime)
	if err != nil {
		return time.Time{}, NewValidationError("service_time", fmt.Sprintf("%q is not an HH:MM time", r.ServiceTime))
	}

	date := r.ServiceDates[0]
	today := now.In(c.loc).Format(DateLayout)
	for _, d := range r.ServiceDates {
		if d == today {
			date = d
			break
		}
	}

	day, err := c.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, c.loc), nil
}
