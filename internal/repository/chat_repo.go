package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ascenthq/ascent-api/internal/models"
)

// TutorChatRepository stores module-scoped tutor conversations.
type TutorChatRepository interface {
	Save(ctx context.Context, message *models.TutorMessage) error
	ListByModule(ctx context.Context, studentID uint, moduleKey string, limit int) ([]models.TutorMessage, error)
	ClearModule(ctx context.Context, studentID uint, moduleKey string) error
}

type tutorChatRepository struct {
	db *gorm.DB
}

// NewTutorChatRepository constructs a tutor chat repository.
func NewTutorChatRepository(db *gorm.DB) TutorChatRepository {
	return &tutorChatRepository{db: db}
}

func (r *tutorChatRepository) Save(ctx context.Context, message *models.TutorMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *tutorChatRepository) ListByModule(ctx context.Context, studentID uint, moduleKey string, limit int) ([]models.TutorMessage, error) {
	query := r.db.WithContext(ctx).
		Where("student_id = ? AND module_key = ?", studentID, moduleKey).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var messages []models.TutorMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}

	// Oldest first for prompt assembly.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *tutorChatRepository) ClearModule(ctx context.Context, studentID uint, moduleKey string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ? AND module_key = ?", studentID, moduleKey).
		Delete(&models.TutorMessage{}).Error
}

// CoachChatRepository stores career-coach conversations.
type CoachChatRepository interface {
	Save(ctx context.Context, message *models.CoachMessage) error
	ListByStudent(ctx context.Context, studentID uint, since time.Time) ([]models.CoachMessage, error)
}

type coachChatRepository struct {
	db *gorm.DB
}

// NewCoachChatRepository constructs a coach chat repository.
func NewCoachChatRepository(db *gorm.DB) CoachChatRepository {
	return &coachChatRepository{db: db}
}

func (r *coachChatRepository) Save(ctx context.Context, message *models.CoachMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *coachChatRepository) ListByStudent(ctx context.Context, studentID uint, since time.Time) ([]models.CoachMessage, error) {
	query := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var messages []models.CoachMessage
	if err := query.Order("created_at ASC, id ASC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
