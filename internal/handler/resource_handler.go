package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/service"
	"github.com/ascenthq/ascent-api/internal/utils"
)

// ResourceHandler exposes the learning resource discovery endpoint.
type ResourceHandler struct {
	service service.ResourceService
	logger  zerolog.Logger
}

// NewResourceHandler constructs a resource handler.
func NewResourceHandler(service service.ResourceService, logger zerolog.Logger) *ResourceHandler {
	return &ResourceHandler{
		service: service,
		logger:  logger.With().Str("component", "resource_handler").Logger(),
	}
}

// Register wires resource routes.
func (h *ResourceHandler) Register(router fiber.Router) {
	router.Get("/", h.discover)
	router.Get("/articles", h.articles)
}

func (h *ResourceHandler) discover(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	query := dto.ResourceQuery{
		Topic: c.Query("topic"),
		Kind:  c.Query("type"),
		Limit: limit,
	}

	bundle, err := h.service.Discover(c.Context(), query)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to discover resources")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to discover resources")
	}

	return utils.SendSuccess(c, "resources retrieved", bundle)
}

func (h *ResourceHandler) articles(c *fiber.Ctx) error {
	studentID := studentIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	feed, err := h.service.Articles(c.Context(), dto.ArticleQuery{
		Topic: c.Query("topic"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch article feed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch article feed")
	}

	return utils.OK(c, feed, "articles retrieved", fiber.Map{"page": feed.Page, "topic": feed.Topic})
}
