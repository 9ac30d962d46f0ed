package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OutboxEvent holds a notification intent until it has been handed to the emitter.
type OutboxEvent struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReservationId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time      `gorm:"not null;index:idx_outbox_pending,priority:2"`
	DispatchedAt  *time.Time     `gorm:"index:idx_outbox_pending,priority:1"`
}

func (OutboxEvent) TableName() string {
	return "reservation_outbox"
}
