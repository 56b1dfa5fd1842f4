package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/service"
	"github.com/ascenthq/ascent-api/internal/utils"
)

// CoachHandler exposes the career coach endpoints.
type CoachHandler struct {
	service service.CoachService
	logger  zerolog.Logger
}

// NewCoachHandler constructs a coach handler.
func NewCoachHandler(service service.CoachService, logger zerolog.Logger) *CoachHandler {
	return &CoachHandler{
		service: service,
		logger:  logger.With().Str("component", "coach_handler").Logger(),
	}
}

// Register wires coach routes.
func (h *CoachHandler) Register(router fiber.Router) {
	router.Post("/chat", h.chat)
	router.Get("/history", h.history)
}

func (h *CoachHandler) chat(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var payload dto.CoachChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Chat(c.Context(), studentID, payload)
	if err != nil {
		switch {
		case isValidationError(err), errors.Is(err, service.ErrEmptyMessage):
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to answer coach message")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to answer coach message")
		}
	}

	return utils.SendSuccess(c, "coach reply", response)
}

func (h *CoachHandler) history(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	messages, err := h.service.History(c.Context(), studentID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load coach history")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load coach history")
	}

	return utils.SendSuccess(c, "coach history", messages)
}
