package dto

import (
	"time"

	"github.com/ascenthq/ascent-api/internal/models"
)

// TutorChatRequest is one student message to the module-scoped tutor.
type TutorChatRequest struct {
	Message    string `json:"message" validate:"required,max=4000"`
	PhaseID    string `json:"phase_id" validate:"omitempty,uuid4"`
	PhaseIndex *int   `json:"phase_index" validate:"omitempty,min=0"`
	Week       int    `json:"week" validate:"required,min=1,max=4"`
}

// TutorModuleRequest addresses a module without a message (history, clear).
type TutorModuleRequest struct {
	PhaseID    string `json:"phase_id" validate:"omitempty,uuid4"`
	PhaseIndex *int   `json:"phase_index" validate:"omitempty,min=0"`
	Week       int    `json:"week" validate:"required,min=1,max=4"`
}

// TutorChatResponse carries the assistant reply plus the module topic used
// to ground it.
type TutorChatResponse struct {
	Reply string `json:"reply"`
	Topic string `json:"topic"`
}

// TutorMessageResponse serialises one stored conversation turn.
type TutorMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTutorMessageResponseSlice maps stored messages to their public form.
func NewTutorMessageResponseSlice(messages []models.TutorMessage) []TutorMessageResponse {
	out := make([]TutorMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, TutorMessageResponse{
			Role:      message.Role,
			Content:   message.Content,
			CreatedAt: message.CreatedAt,
		})
	}
	return out
}
