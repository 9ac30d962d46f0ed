package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cleaning-reservation-be/internal/model"
	"cleaning-reservation-be/internal/pkg/logger"
	"cleaning-reservation-be/internal/pkg/mailer"
	"cleaning-reservation-be/internal/repository"
	"cleaning-reservation-be/pkg/events"
	pktNats "cleaning-reservation-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const notificationDurable = "reservation-notification-worker"

// EventSubscriber is satisfied by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

// InboxPusher is satisfied by *websocket.Hub.
type InboxPusher interface {
	Send(userID uuid.UUID, notification model.Notification)
}

// NotificationService turns reservation notification events into inbox rows
// and, for kinds that enable it, an e-mail copy.
type NotificationService struct {
	repo       repository.NotificationRepository
	subscriber EventSubscriber
	mailer     mailer.IEmailService
	pusher     InboxPusher
	logger     logger.ILogger
}

// mail and pusher may be nil.
func NewNotificationService(repo repository.NotificationRepository, sub EventSubscriber, mail mailer.IEmailService, pusher InboxPusher, log logger.ILogger) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		mailer:     mail,
		pusher:     pusher,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() error {
	subject := events.Subject(events.ReservationNotification)
	if err := s.subscriber.Subscribe(subject, notificationDurable, s.handleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("NotificationService", "Notification service started", map[string]interface{}{"subject": subject})
	return nil
}

// handleEvent returns an error only for failures worth a redelivery.
// Malformed or disabled events are dropped.
func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	userID, err := uuid.Parse(stringField(payload, "user_id"))
	if err != nil {
		s.logger.Warn("NotificationService", "Dropping event without a valid user_id", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	kind := stringField(payload, "kind")

	config, err := s.repo.GetNotificationTypeByCode(ctx, kind)
	if err != nil {
		return fmt.Errorf("load notification type %s: %w", kind, err)
	}
	if config != nil && !config.IsActive {
		s.logger.Info("NotificationService", fmt.Sprintf("Notification type '%s' is inactive", kind), nil)
		return nil
	}

	notif := buildNotification(userID, kind, event)
	if err := s.repo.CreateNotification(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", fmt.Sprintf("Error saving notification for user %s", userID), map[string]interface{}{"error": err.Error()})
		return err
	}

	if s.pusher != nil {
		s.pusher.Send(userID, notif)
	}
	if config != nil && config.EmailEnabled && s.mailer != nil {
		s.sendEmailCopy(ctx, notif)
	}
	return nil
}

// sendEmailCopy is best effort. The inbox row is already stored, so a mail
// failure must not trigger a redelivery.
func (s *NotificationService) sendEmailCopy(ctx context.Context, notif model.Notification) {
	user, err := s.repo.GetUserByID(ctx, notif.UserID)
	if err != nil || user == nil || user.Email == "" {
		s.logger.Warn("NotificationService", "No e-mail address for notification", map[string]interface{}{"user_id": notif.UserID.String()})
		return
	}
	if err := s.mailer.SendNotification(user.Email, notif.Title, notif.Message, notif.ActionRef); err != nil {
		s.logger.Error("NotificationService", "E-mail copy failed", map[string]interface{}{
			"user_id":         notif.UserID.String(),
			"notification_id": notif.ID.String(),
			"error":           err.Error(),
		})
	}
}

func buildNotification(userID uuid.UUID, kind string, event events.Event) model.Notification {
	payload := event.Payload()

	id, err := uuid.Parse(stringField(payload, "id"))
	if err != nil {
		id = uuid.New()
	}

	metaJSON, _ := json.Marshal(payload)
	createdAt := event.Timestamp()
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return model.Notification{
		ID:        id,
		UserID:    userID,
		TypeCode:  kind,
		Title:     stringField(payload, "title"),
		Message:   stringField(payload, "message"),
		ActionRef: stringField(payload, "action_ref"),
		Metadata:  datatypes.JSON(metaJSON),
		CreatedAt: createdAt,
		IsRead:    false,
	}
}

func stringField(payload map[string]interface{}, key string) string {
	v, _ := payload[key].(string)
	return v
}

// GetNotifications fetches notifications for a user.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.repo.GetNotificationsByUserID(ctx, userID, limit, offset)
}

// GetUnreadCount fetches unread count.
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkAsRead marks one of the user's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, userID, id)
}

// MarkAllAsRead marks all notifications as read for a user.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
