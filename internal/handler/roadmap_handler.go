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

// RoadmapHandler exposes the roadmap document, learning-plan expansion and
// task completion endpoints.
type RoadmapHandler struct {
	service service.RoadmapService
	logger  zerolog.Logger
}

// NewRoadmapHandler constructs a roadmap handler.
func NewRoadmapHandler(service service.RoadmapService, logger zerolog.Logger) *RoadmapHandler {
	return &RoadmapHandler{
		service: service,
		logger:  logger.With().Str("component", "roadmap_handler").Logger(),
	}
}

// Register wires roadmap routes.
func (h *RoadmapHandler) Register(router fiber.Router) {
	router.Get("/", h.get)
	router.Post("/phases/plan", h.ensurePlan)
	router.Patch("/tasks", h.toggleTask)
}

func (h *RoadmapHandler) get(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	response, err := h.service.GetRoadmap(c.Context(), studentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoRoadmap), errors.Is(err, gorm.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "no roadmap generated yet")
		default:
			h.logger.Error().Err(err).Msg("failed to load roadmap")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load roadmap")
		}
	}

	return utils.SendSuccess(c, "roadmap retrieved", response)
}

func (h *RoadmapHandler) ensurePlan(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var payload dto.PhaseRefRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.EnsureLearningPlan(c.Context(), studentID, payload)
	if err != nil {
		return h.mapRoadmapError(c, err, "failed to prepare learning plan")
	}

	return utils.OK(c, result, "learning plan ready", fiber.Map{"generated": result.Generated})
}

func (h *RoadmapHandler) toggleTask(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var payload dto.TaskToggleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.SetTaskCompleted(c.Context(), studentID, payload)
	if err != nil {
		return h.mapRoadmapError(c, err, "failed to update task")
	}

	return utils.SendSuccess(c, "task updated", response)
}

func (h *RoadmapHandler) mapRoadmapError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, service.ErrNoRoadmap), errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "no roadmap generated yet")
	case errors.Is(err, roadmap.ErrPhaseNotFound),
		errors.Is(err, roadmap.ErrWeekNotFound),
		errors.Is(err, roadmap.ErrDayNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, roadmap.ErrPlanMissing):
		return utils.SendError(c, fiber.StatusConflict, "learning plan not generated for this phase")
	case errors.Is(err, service.ErrRoadmapConflict):
		return utils.SendError(c, fiber.StatusConflict, "roadmap was modified concurrently, retry")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
