package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/roadmap"
	"github.com/ascenthq/ascent-api/internal/service"
	"github.com/ascenthq/ascent-api/internal/utils"
)

// TutorHandler exposes the module-scoped AI tutor endpoints.
type TutorHandler struct {
	service service.TutorService
	logger  zerolog.Logger
}

// NewTutorHandler constructs a tutor handler.
func NewTutorHandler(service service.TutorService, logger zerolog.Logger) *TutorHandler {
	return &TutorHandler{
		service: service,
		logger:  logger.With().Str("component", "tutor_handler").Logger(),
	}
}

// Register wires tutor routes.
func (h *TutorHandler) Register(router fiber.Router) {
	router.Post("/chat", h.chat)
	router.Post("/history", h.history)
	router.Post("/clear-history", h.clearHistory)
}

func (h *TutorHandler) chat(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var payload dto.TutorChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Chat(c.Context(), studentID, payload)
	if err != nil {
		return h.mapTutorError(c, err, "failed to answer tutor message")
	}

	return utils.SendSuccess(c, "tutor reply", response)
}

func (h *TutorHandler) history(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var payload dto.TutorModuleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	messages, err := h.service.History(c.Context(), studentID, payload)
	if err != nil {
		return h.mapTutorError(c, err, "failed to load tutor history")
	}

	return utils.SendSuccess(c, "tutor history", messages)
}

func (h *TutorHandler) clearHistory(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var payload dto.TutorModuleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.service.ClearHistory(c.Context(), studentID, payload); err != nil {
		return h.mapTutorError(c, err, "failed to clear tutor history")
	}

	return utils.SendSuccess(c, "tutor history cleared", nil)
}

func (h *TutorHandler) mapTutorError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case isValidationError(err), errors.Is(err, service.ErrEmptyMessage):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, service.ErrNoRoadmap), errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "no roadmap generated yet")
	case errors.Is(err, roadmap.ErrPhaseNotFound), errors.Is(err, roadmap.ErrWeekNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, roadmap.ErrPlanMissing):
		return utils.SendError(c, fiber.StatusConflict, "learning plan not generated for this phase")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
