package reservation

import (
	"time"

	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
)

// Draft is a customer's booking intent.
type Draft struct {
	ServiceDates  []string
	ServiceTime   string
	DurationHours float64
	Amount        int64
	Address       entity.Address
}

// NewReservation builds a pending reservation. Same-day bookings are accepted;
// they are simply past their own modification cutoff from the start.
func (ru *Rules) NewReservation(actor entity.Actor, d Draft, now time.Time) (*entity.Reservation, error) {
	if actor.Role != entity.UserRoleCustomer {
		return nil, ErrForbidden
	}
	if err := ru.ValidateSchedule(d.ServiceDates, d.ServiceTime); err != nil {
		return nil, err
	}
	first, err := ru.calc.ParseDate(d.ServiceDates[0])
	if err != nil {
		return nil, err
	}
	y, m, day := now.In(ru.calc.Location()).Date()
	if first.Before(time.Date(y, m, day, 0, 0, 0, 0, ru.calc.Location())) {
		return nil, NewValidationError("service_dates", "first date is in the past")
	}
	if d.DurationHours <= 0 {
		return nil, NewValidationError("duration_hours", "must be greater than zero")
	}
	if d.Amount < 0 {
		return nil, NewValidationError("amount", "must not be negative")
	}
	if d.Address.Line1 == "" {
		return nil, NewValidationError("address", "line1 is required")
	}

	return &entity.Reservation{
		Id:                        uuid.New(),
		CustomerId:                actor.UserId,
		Status:                    entity.ReservationStatusPending,
		ServiceDates:              append([]string(nil), d.ServiceDates...),
		ServiceTime:               d.ServiceTime,
		DurationHours:             d.DurationHours,
		Amount:                    d.Amount,
		Address:                   d.Address,
		AdditionalServices:        []string{},
		AdditionalServiceRequests: []entity.ServiceRequest{},
		Version:                   1,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}, nil
}
