package mapper

import (
	"encoding/json"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/model"

	"gorm.io/datatypes"
)

type OutboxMapper struct{}

func NewOutboxMapper() *OutboxMapper {
	return &OutboxMapper{}
}

func (m *OutboxMapper) ToModel(e *entity.OutboxEvent) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(e.Intent)
	if err != nil {
		return nil, err
	}
	return &model.OutboxEvent{
		Id:            e.Id,
		ReservationId: e.ReservationId,
		Payload:       datatypes.JSON(payload),
		CreatedAt:     e.CreatedAt,
		DispatchedAt:  e.DispatchedAt,
	}, nil
}

func (m *OutboxMapper) ToEntity(o *model.OutboxEvent) (*entity.OutboxEvent, error) {
	var intent entity.NotificationIntent
	if err := json.Unmarshal(o.Payload, &intent); err != nil {
		return nil, err
	}
	return &entity.OutboxEvent{
		Id:            o.Id,
		ReservationId: o.ReservationId,
		Intent:        intent,
		CreatedAt:     o.CreatedAt,
		DispatchedAt:  o.DispatchedAt,
	}, nil
}
