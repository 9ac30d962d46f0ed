// FILE: internal/service/notification_emitter.go
package service

import (
	"context"
	"time"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/pkg/logger"
	"cleaning-reservation-be/pkg/events"

	"github.com/google/uuid"
)

// NotificationEmitter delivers one notification intent. Delivery is best
// effort; callers log failures and move on.
type NotificationEmitter interface {
	Emit(ctx context.Context, eventId uuid.UUID, intent entity.NotificationIntent) error
}

// EventPublisher is satisfied by *nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type natsNotificationEmitter struct {
	publisher EventPublisher
}

func NewNatsNotificationEmitter(publisher EventPublisher) NotificationEmitter {
	return &natsNotificationEmitter{publisher: publisher}
}

func (e *natsNotificationEmitter) Emit(ctx context.Context, eventId uuid.UUID, intent entity.NotificationIntent) error {
	return e.publisher.Publish(ctx, events.BaseEvent{
		Type:       events.ReservationNotification,
		Data:       intentPayload(eventId, intent),
		OccurredAt: time.Now(),
	})
}

func intentPayload(eventId uuid.UUID, intent entity.NotificationIntent) map[string]interface{} {
	return map[string]interface{}{
		"id":         eventId.String(),
		"user_id":    intent.UserId.String(),
		"title":      intent.Title,
		"message":    intent.Message,
		"kind":       string(intent.Kind),
		"action_ref": intent.ActionRef,
	}
}

// logNotificationEmitter is used when no message bus is configured.
type logNotificationEmitter struct {
	logger logger.ILogger
}

func NewLogNotificationEmitter(log logger.ILogger) NotificationEmitter {
	return &logNotificationEmitter{logger: log}
}

func (e *logNotificationEmitter) Emit(ctx context.Context, eventId uuid.UUID, intent entity.NotificationIntent) error {
	e.logger.Info("NOTIFICATION", "Notification emitted without a bus", intentPayload(eventId, intent))
	return nil
}
