package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/mapper"
	"cleaning-reservation-be/internal/model"
	"cleaning-reservation-be/internal/repository/contract"
	"cleaning-reservation-be/internal/repository/scope"
	"cleaning-reservation-be/internal/repository/specification"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReservationMapper
}

func NewReservationRepository(db *gorm.DB) contract.ReservationRepository {
	return &ReservationRepositoryImpl{
		db:     db,
		mapper: mapper.NewReservationMapper(),
	}
}

func (r *ReservationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReservationRepositoryImpl) withLedger(db *gorm.DB) *gorm.DB {
	return db.Preload("ServiceRequests", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("idx ASC")
	})
}

func (r *ReservationRepositoryImpl) Create(ctx context.Context, res *entity.Reservation) error {
	m := r.mapper.ToModel(res)
	if err := r.db.WithContext(ctx).Omit("ServiceRequests").Create(m).Error; err != nil {
		return err
	}
	res.Id = m.Id
	res.CreatedAt = m.CreatedAt
	return nil
}

func (r *ReservationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Reservation, error) {
	var m model.Reservation
	query := r.withLedger(r.applySpecifications(r.db.WithContext(ctx), specs...))

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ReservationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reservation, error) {
	var models []*model.Reservation
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedDesc), specs...)

	if err := r.withLedger(query).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ReservationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Reservation{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ReservationRepositoryImpl) ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedVersion int64, patch entity.ReservationPatch, now time.Time) error {
	cols := r.mapper.PatchToColumns(patch)
	cols["version"] = gorm.Expr("version + 1")
	cols["updated_at"] = now

	result := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: reservation %s is no longer at version %d", reservation.ErrConflict, id, expectedVersion)
	}
	return nil
}

func (r *ReservationRepositoryImpl) AppendServiceRequest(ctx context.Context, reservationId uuid.UUID, req *entity.ServiceRequest) error {
	m := r.mapper.ServiceRequestToModel(&entity.Reservation{Id: reservationId}, req)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: service request %d already exists", reservation.ErrConflict, req.Index)
		}
		return err
	}
	return nil
}

func (r *ReservationRepositoryImpl) ResolveServiceRequest(ctx context.Context, reservationId uuid.UUID, index int, status entity.ServiceRequestStatus, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.ReservationServiceRequest{}).
		Where("reservation_id = ? AND idx = ? AND status = ?", reservationId, index, string(entity.ServiceRequestStatusPending)).
		Updates(map[string]interface{}{
			"status":      string(status),
			"resolved_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: service request %d is no longer pending", reservation.ErrConflict, index)
	}
	return nil
}
