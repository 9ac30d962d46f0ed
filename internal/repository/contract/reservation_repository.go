package contract

import (
	"context"
	"time"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Reservation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reservation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ConditionalUpdate writes the patch and bumps the version only if the
	// stored version still equals expectedVersion. Otherwise it returns
	// reservation.ErrConflict and writes nothing.
	ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedVersion int64, patch entity.ReservationPatch, now time.Time) error

	// Ledger
	AppendServiceRequest(ctx context.Context, reservationId uuid.UUID, req *entity.ServiceRequest) error
	ResolveServiceRequest(ctx context.Context, reservationId uuid.UUID, index int, status entity.ServiceRequestStatus, now time.Time) error
}
