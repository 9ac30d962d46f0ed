package contract

import (
	"context"
	"time"

	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
)

type OutboxRepository interface {
	Append(ctx context.Context, events []*entity.OutboxEvent) error
	FindPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error
}
