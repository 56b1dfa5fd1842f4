package dto

import (
	"time"

	"github.com/ascenthq/ascent-api/internal/models"
)

// CoachChatRequest is one student question to the career coach.
type CoachChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// CoachMessageResponse serialises one stored coach exchange.
type CoachMessageResponse struct {
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCoachMessageResponse maps a coach message model to its public form.
func NewCoachMessageResponse(message models.CoachMessage) CoachMessageResponse {
	return CoachMessageResponse{
		Prompt:    message.Prompt,
		Response:  message.Response,
		CreatedAt: message.CreatedAt,
	}
}

// NewCoachMessageResponseSlice maps stored coach messages to their public form.
func NewCoachMessageResponseSlice(messages []models.CoachMessage) []CoachMessageResponse {
	out := make([]CoachMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewCoachMessageResponse(message))
	}
	return out
}
