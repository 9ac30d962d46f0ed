// FILE: internal/entity/notification_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationKindStatusChanged   NotificationKind = "RESERVATION_STATUS_CHANGED"
	NotificationKindCancelled       NotificationKind = "RESERVATION_CANCELLED"
	NotificationKindRescheduled     NotificationKind = "RESERVATION_RESCHEDULED"
	NotificationKindLateArrival     NotificationKind = "RESERVATION_LATE_ARRIVAL"
	NotificationKindServiceRequest  NotificationKind = "SERVICE_REQUEST_CREATED"
	NotificationKindServiceResolved NotificationKind = "SERVICE_REQUEST_RESOLVED"
)

// NotificationIntent is what the lifecycle decides to tell a user. It says
// nothing about how the message is delivered.
type NotificationIntent struct {
	UserId    uuid.UUID        `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	ActionRef string           `json:"action_ref,omitempty"`
}

// OutboxEvent is a notification intent stored in the same transaction as the
// reservation write that produced it.
type OutboxEvent struct {
	Id            uuid.UUID
	ReservationId uuid.UUID
	Intent        NotificationIntent
	CreatedAt     time.Time
	DispatchedAt  *time.Time
}
