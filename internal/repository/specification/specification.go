package specification

import (
	"cleaning-reservation-be/internal/entity"

	"gorm.io/gorm"
)

// Specification defines the interface for query specifications
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// ReservationMatcher is implemented by specifications that can also be
// evaluated against an in-memory reservation.
type ReservationMatcher interface {
	MatchReservation(r *entity.Reservation) bool
}
