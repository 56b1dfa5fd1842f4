package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ascenthq/ascent-api/internal/models"
)

// NotificationRepository stores per-student notifications.
type NotificationRepository interface {
	Save(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, studentID uint, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, studentID uint) (models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Save(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) List(ctx context.Context, studentID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}

	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, studentID uint) (models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND student_id = ?", id, studentID).
		First(&notification).Error
	if err != nil {
		return models.Notification{}, err
	}

	if !notification.Read {
		notification.Read = true
		if err := r.db.WithContext(ctx).Save(&notification).Error; err != nil {
			return models.Notification{}, err
		}
	}
	return notification, nil
}
