package reservation

import (
	"time"

	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
)

var kst = time.FixedZone("KST", 9*60*60)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, kst)
}

type fixture struct {
	rules    *Rules
	customer entity.Actor
	cleaner  entity.Actor
	admin    entity.Actor
}

func newFixture() fixture {
	return fixture{
		rules:    NewRules(NewCalculator(kst)),
		customer: entity.Actor{UserId: uuid.New(), Role: entity.UserRoleCustomer},
		cleaner:  entity.Actor{UserId: uuid.New(), Role: entity.UserRoleCleaner},
		admin:    entity.Actor{UserId: uuid.New(), Role: entity.UserRoleAdmin},
	}
}

func (f fixture) reservation(status entity.ReservationStatus) *entity.Reservation {
	r := &entity.Reservation{
		Id:                        uuid.New(),
		CustomerId:                f.customer.UserId,
		Status:                    status,
		ServiceDates:              []string{"2025-03-10"},
		ServiceTime:               "10:00",
		DurationHours:             4,
		Amount:                    80000,
		AdditionalServices:        []string{},
		AdditionalServiceRequests: []entity.ServiceRequest{},
		Version:                   1,
	}
	if status != entity.ReservationStatusPending && status != entity.ReservationStatusMatching {
		id := f.cleaner.UserId
		r.CleanerId = &id
	}
	return r
}
