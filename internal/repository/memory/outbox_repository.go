package memory

import (
	"context"
	"sort"
	"time"

	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
)

type outboxRepository struct {
	uow *UnitOfWork
}

func (r *outboxRepository) Append(ctx context.Context, events []*entity.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	staged := make([]*entity.OutboxEvent, len(events))
	for i, e := range events {
		c := *e
		if c.Id == uuid.Nil {
			c.Id = uuid.New()
		}
		staged[i] = &c
	}
	return r.uow.exec(op{
		check: func(s *Store) error { return nil },
		apply: func(s *Store) {
			s.outbox = append(s.outbox, staged...)
		},
	})
}

func (r *outboxRepository) FindPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	s := r.uow.store
	s.mu.RLock()
	pending := make([]*entity.OutboxEvent, 0)
	for _, e := range s.outbox {
		if e.DispatchedAt == nil {
			c := *e
			pending = append(pending, &c)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *outboxRepository) MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.uow.exec(op{
		check: func(s *Store) error { return nil },
		apply: func(s *Store) {
			for _, e := range s.outbox {
				if e.Id == id && e.DispatchedAt == nil {
					t := at
					e.DispatchedAt = &t
				}
			}
		},
	})
}
