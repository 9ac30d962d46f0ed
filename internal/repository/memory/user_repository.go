package memory

import (
	"context"
	"fmt"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/repository/specification"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/google/uuid"
)

type userRepository struct {
	uow *UnitOfWork
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	if user.MonthlyCancellationLimit == 0 {
		user.MonthlyCancellationLimit = entity.DefaultMonthlyCancellationLimit
	}
	stored := *user
	return r.uow.exec(op{
		check: func(s *Store) error {
			if _, exists := s.users[stored.Id]; exists {
				return fmt.Errorf("user %s already exists", stored.Id)
			}
			return nil
		},
		apply: func(s *Store) {
			s.users[stored.Id] = &stored
		},
	})
}

// FindOne understands ByID.
func (r *userRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		ok := true
		for _, spec := range specs {
			if sp, isID := spec.(specification.ByID); isID {
				ok = ok && u.Id == sp.ID
			}
		}
		if ok {
			found := *u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *userRepository) IncrementCancellationCounter(ctx context.Context, userId uuid.UUID) error {
	return r.uow.exec(op{
		check: func(s *Store) error {
			u, ok := s.users[userId]
			if !ok {
				return fmt.Errorf("user %s not found", userId)
			}
			return reservation.CheckQuota(u)
		},
		apply: func(s *Store) {
			s.users[userId].MonthlyCancellations++
		},
	})
}
