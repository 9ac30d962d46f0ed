package implementation

import (
	"context"
	"time"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/mapper"
	"cleaning-reservation-be/internal/model"
	"cleaning-reservation-be/internal/repository/contract"
	"cleaning-reservation-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OutboxMapper
}

func NewOutboxRepository(db *gorm.DB) contract.OutboxRepository {
	return &OutboxRepositoryImpl{
		db:     db,
		mapper: mapper.NewOutboxMapper(),
	}
}

func (r *OutboxRepositoryImpl) Append(ctx context.Context, events []*entity.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]*model.OutboxEvent, 0, len(events))
	for _, e := range events {
		m, err := r.mapper.ToModel(e)
		if err != nil {
			return err
		}
		models = append(models, m)
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

func (r *OutboxRepositoryImpl) FindPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	var models []*model.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Scopes(scope.OrderByCreatedAsc).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	events := make([]*entity.OutboxEvent, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *OutboxRepositoryImpl) MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.OutboxEvent{}).
		Where("id = ? AND dispatched_at IS NULL", id).
		Update("dispatched_at", at).Error
}
