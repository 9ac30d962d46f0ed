package contract

import (
	"context"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)

	// IncrementCancellationCounter adds one to the monthly counter only while
	// it is below the user's limit. At the limit it returns
	// reservation.ErrQuotaExceeded.
	IncrementCancellationCounter(ctx context.Context, userId uuid.UUID) error
}
