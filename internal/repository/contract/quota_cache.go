package contract

import (
	"context"

	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
)

// QuotaCache holds stale-tolerant quota snapshots for display reads. It is
// never consulted by a cancellation.
type QuotaCache interface {
	Get(ctx context.Context, userId uuid.UUID) (*entity.QuotaSnapshot, bool)
	Set(ctx context.Context, snapshot *entity.QuotaSnapshot)
	Invalidate(ctx context.Context, userId uuid.UUID)
}
