package memory

import (
	"sync"

	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
)

// Store is a process-local stand-in for the database. Writes made inside a
// unit of work are staged and validated again when the unit commits, so the
// same version and quota predicates hold as with postgres.
type Store struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]*entity.Reservation
	users        map[uuid.UUID]*entity.User
	outbox       []*entity.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		reservations: make(map[uuid.UUID]*entity.Reservation),
		users:        make(map[uuid.UUID]*entity.User),
	}
}

// op is one staged write. check runs against committed state and must not
// mutate; apply runs only after every check of the unit has passed.
type op struct {
	check func(s *Store) error
	apply func(s *Store)
}

// OutboxSnapshot returns copies of every outbox row, dispatched or not.
func (s *Store) OutboxSnapshot() []entity.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.OutboxEvent, len(s.outbox))
	for i, e := range s.outbox {
		out[i] = *e
	}
	return out
}
