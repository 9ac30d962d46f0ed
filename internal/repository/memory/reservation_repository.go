package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/repository/specification"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/google/uuid"
)

type reservationRepository struct {
	uow *UnitOfWork
}

func matches(r *entity.Reservation, specs []specification.Specification) bool {
	for _, spec := range specs {
		if m, ok := spec.(specification.ReservationMatcher); ok && !m.MatchReservation(r) {
			return false
		}
	}
	return true
}

func paginationOf(specs []specification.Specification) *specification.Pagination {
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			return &p
		}
	}
	return nil
}

func (r *reservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	if res.Id == uuid.Nil {
		res.Id = uuid.New()
	}
	stored := res.Clone()
	return r.uow.exec(op{
		check: func(s *Store) error {
			if _, exists := s.reservations[stored.Id]; exists {
				return fmt.Errorf("reservation %s already exists", stored.Id)
			}
			return nil
		},
		apply: func(s *Store) {
			s.reservations[stored.Id] = stored
		},
	})
}

func (r *reservationRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Reservation, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *reservationRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reservation, error) {
	s := r.uow.store
	s.mu.RLock()
	result := make([]*entity.Reservation, 0)
	for _, res := range s.reservations {
		if matches(res, specs) {
			result = append(result, res.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Id.String() < result[j].Id.String()
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if p := paginationOf(specs); p != nil {
		if p.Offset >= len(result) {
			return []*entity.Reservation{}, nil
		}
		result = result[p.Offset:]
		if p.Limit > 0 && p.Limit < len(result) {
			result = result[:p.Limit]
		}
	}
	return result, nil
}

func (r *reservationRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, res := range s.reservations {
		if matches(res, specs) {
			n++
		}
	}
	return n, nil
}

func (r *reservationRepository) ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedVersion int64, patch entity.ReservationPatch, now time.Time) error {
	return r.uow.exec(op{
		check: func(s *Store) error {
			res, ok := s.reservations[id]
			if !ok || res.Version != expectedVersion {
				return fmt.Errorf("%w: reservation %s is no longer at version %d", reservation.ErrConflict, id, expectedVersion)
			}
			return nil
		},
		apply: func(s *Store) {
			patch.Apply(s.reservations[id], now)
		},
	})
}

func (r *reservationRepository) AppendServiceRequest(ctx context.Context, reservationId uuid.UUID, req *entity.ServiceRequest) error {
	entry := *req
	entry.Services = append([]string(nil), req.Services...)
	return r.uow.exec(op{
		check: func(s *Store) error {
			res, ok := s.reservations[reservationId]
			if !ok || len(res.AdditionalServiceRequests) != entry.Index {
				return fmt.Errorf("%w: service request %d already exists", reservation.ErrConflict, entry.Index)
			}
			return nil
		},
		apply: func(s *Store) {
			res := s.reservations[reservationId]
			res.AdditionalServiceRequests = append(res.AdditionalServiceRequests, entry)
		},
	})
}

func (r *reservationRepository) ResolveServiceRequest(ctx context.Context, reservationId uuid.UUID, index int, status entity.ServiceRequestStatus, now time.Time) error {
	return r.uow.exec(op{
		check: func(s *Store) error {
			res, ok := s.reservations[reservationId]
			if !ok || index < 0 || index >= len(res.AdditionalServiceRequests) ||
				res.AdditionalServiceRequests[index].Status != entity.ServiceRequestStatusPending {
				return fmt.Errorf("%w: service request %d is no longer pending", reservation.ErrConflict, index)
			}
			return nil
		},
		apply: func(s *Store) {
			s.reservations[reservationId].AdditionalServiceRequests[index].Status = status
		},
	})
}
