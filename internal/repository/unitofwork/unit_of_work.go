package unitofwork

import (
	"context"

	"cleaning-reservation-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ReservationRepository() contract.ReservationRepository
	UserRepository() contract.UserRepository
	OutboxRepository() contract.OutboxRepository
}
