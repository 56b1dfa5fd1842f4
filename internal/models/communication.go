package models

import (
	"time"

	"gorm.io/datatypes"
)

// TutorMessage is a single turn of a module-scoped tutor conversation.
// ModuleKey combines phase and week so histories stay isolated per module.
type TutorMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"index:idx_tutor_student_module;not null" json:"student_id"`
	ModuleKey string    `gorm:"size:64;index:idx_tutor_student_module;not null" json:"module_key"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CoachMessage is a single prompt/response exchange with the career coach.
type CoachMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"index;not null" json:"student_id"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification represents a message targeted at a specific student.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	StudentID uint              `gorm:"index;not null" json:"student_id"`
	Type      string            `gorm:"size:64" json:"type"`
	Message   string            `gorm:"type:text" json:"message"`
	Read      bool              `gorm:"not null;default:false" json:"read"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
