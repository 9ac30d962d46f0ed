package specification

import (
	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationParticipant matches reservations where the user is the customer
// or the assigned cleaner.
type ReservationParticipant struct {
	UserID uuid.UUID
}

func (s ReservationParticipant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(customer_id = ? OR cleaner_id = ?)", s.UserID, s.UserID)
}

func (s ReservationParticipant) MatchReservation(r *entity.Reservation) bool {
	return r.IsParticipant(s.UserID)
}

type ReservationStatusIn struct {
	Statuses []entity.ReservationStatus
}

func (s ReservationStatusIn) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}

func (s ReservationStatusIn) MatchReservation(r *entity.Reservation) bool {
	for _, st := range s.Statuses {
		if r.Status == st {
			return true
		}
	}
	return false
}

// ServiceDateFrom keeps reservations whose first service date is on or after Date.
type ServiceDateFrom struct {
	Date string
}

func (s ServiceDateFrom) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("service_dates->>0 >= ?", s.Date)
}

func (s ServiceDateFrom) MatchReservation(r *entity.Reservation) bool {
	return r.FirstServiceDate() >= s.Date
}
