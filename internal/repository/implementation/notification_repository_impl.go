package implementation

import (
	"context"
	"errors"
	"time"

	"cleaning-reservation-be/internal/model"
	"cleaning-reservation-be/internal/repository"
	"cleaning-reservation-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func inboxOf(userID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Model(&model.Notification{}).Where("user_id = ?", userID)
	}
}

func unread(db *gorm.DB) *gorm.DB {
	return db.Where("is_read = ?", false)
}

func readAt(now time.Time) map[string]interface{} {
	return map[string]interface{}{"is_read": true, "read_at": now}
}

// CreateNotification ignores a row whose id already exists, so a redelivered
// event does not duplicate the inbox entry.
func (r *NotificationRepositoryImpl) CreateNotification(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(notification).Error
}

func (r *NotificationRepositoryImpl) GetNotificationsByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Scopes(inboxOf(userID)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Scopes(inboxOf(userID), scope.OrderByCreatedDesc).
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, total, err
}

func (r *NotificationRepositoryImpl) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Scopes(inboxOf(userID), unread).Count(&count).Error
	return count, err
}

// MarkAsRead returns ErrNotificationNotFound when the row does not belong to
// the user. Marking an already read row again is not an error.
func (r *NotificationRepositoryImpl) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	var exists int64
	if err := r.db.WithContext(ctx).Scopes(inboxOf(userID)).Where("id = ?", notificationID).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotificationNotFound
	}
	return r.db.WithContext(ctx).
		Scopes(inboxOf(userID), unread).
		Where("id = ?", notificationID).
		Updates(readAt(time.Now())).Error
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Scopes(inboxOf(userID), unread).Updates(readAt(time.Now())).Error
}

// GetNotificationTypeByCode returns nil for a kind missing from the registry.
func (r *NotificationRepositoryImpl) GetNotificationTypeByCode(ctx context.Context, code string) (*model.NotificationType, error) {
	var notifType model.NotificationType
	err := r.db.WithContext(ctx).Where("code = ?", code).Take(&notifType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notifType, nil
}

func (r *NotificationRepositoryImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
