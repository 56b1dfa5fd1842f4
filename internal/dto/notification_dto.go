package dto

import (
	"time"

	"github.com/ascenthq/ascent-api/internal/models"
)

// NotificationCreateRequest creates and fans out a notification.
type NotificationCreateRequest struct {
	StudentID uint              `json:"student_id" validate:"required"`
	Type      string            `json:"type" validate:"required,max=64"`
	Message   string            `json:"message" validate:"required,max=2000"`
	Metadata  map[string]string `json:"metadata" validate:"omitempty"`
}

// NotificationResponse serialises one stored notification.
type NotificationResponse struct {
	ID        uint              `json:"id"`
	StudentID uint              `json:"student_id"`
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotificationResponse maps a notification model to its public form.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	metadata := make(map[string]string, len(notification.Metadata))
	for key, value := range notification.Metadata {
		if str, ok := value.(string); ok {
			metadata[key] = str
		}
	}

	return NotificationResponse{
		ID:        notification.ID,
		StudentID: notification.StudentID,
		Type:      notification.Type,
		Message:   notification.Message,
		Read:      notification.Read,
		Metadata:  metadata,
		CreatedAt: notification.CreatedAt,
	}
}

// NewNotificationResponseSlice maps stored notifications to their public form.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, NewNotificationResponse(notification))
	}
	return out
}
