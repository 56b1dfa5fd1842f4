package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/handler"
	"github.com/ascenthq/ascent-api/internal/roadmap"
	"github.com/ascenthq/ascent-api/internal/service"
	"github.com/ascenthq/ascent-api/internal/utils"
)

type mockRoadmapService struct {
	getResponse    dto.RoadmapResponse
	getErr         error
	planResult     dto.LearningPlanResult
	planErr        error
	toggleResponse dto.RoadmapResponse
	toggleErr      error
	lastToggle     dto.TaskToggleRequest
}

func (m *mockRoadmapService) GetRoadmap(_ context.Context, _ uint) (dto.RoadmapResponse, error) {
	return m.getResponse, m.getErr
}

func (m *mockRoadmapService) EnsureLearningPlan(_ context.Context, _ uint, _ dto.PhaseRefRequest) (dto.LearningPlanResult, error) {
	return m.planResult, m.planErr
}

func (m *mockRoadmapService) SetTaskCompleted(_ context.Context, _ uint, req dto.TaskToggleRequest) (dto.RoadmapResponse, error) {
	m.lastToggle = req
	return m.toggleResponse, m.toggleErr
}

func newRoadmapApp(svc service.RoadmapService, studentID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if studentID != 0 {
			c.Locals("user_id", studentID)
		}
		return c.Next()
	})
	handler.NewRoadmapHandler(svc, zerolog.Nop()).Register(app.Group("/roadmap"))
	return app
}

func decodeEnvelope(t *testing.T, body io.ReadCloser) utils.APIResponse {
	t.Helper()
	defer func() { _ = body.Close() }()

	var envelope utils.APIResponse
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	return envelope
}

func TestRoadmapHandlerGet(t *testing.T) {
	svc := &mockRoadmapService{getResponse: dto.RoadmapResponse{
		Phases:  []roadmap.Phase{{ID: "p1", Name: "Foundations"}},
		Version: 3,
	}}
	app := newRoadmapApp(svc, 7)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/roadmap/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp.Body)
	require.True(t, envelope.Success)
	require.Equal(t, "roadmap retrieved", envelope.Message)
}

func TestRoadmapHandlerGetWithoutRoadmap(t *testing.T) {
	svc := &mockRoadmapService{getErr: service.ErrNoRoadmap}
	app := newRoadmapApp(svc, 7)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/roadmap/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	envelope := decodeEnvelope(t, resp.Body)
	require.False(t, envelope.Success)
	require.Equal(t, "no roadmap generated yet", envelope.Message)
}

func TestRoadmapHandlerRequiresAuth(t *testing.T) {
	app := newRoadmapApp(&mockRoadmapService{}, 0)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/roadmap/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRoadmapHandlerEnsurePlan(t *testing.T) {
	svc := &mockRoadmapService{planResult: dto.LearningPlanResult{
		PhaseID:   "p1",
		PhaseName: "Foundations",
		Generated: true,
	}}
	app := newRoadmapApp(svc, 7)

	payload := bytes.NewBufferString(`{"phase_index": 0}`)
	req := httptest.NewRequest(fiber.MethodPost, "/roadmap/phases/plan", payload)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp.Body)
	require.True(t, envelope.Success)
	meta, ok := envelope.Meta.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, true, meta["generated"])
}

func TestRoadmapHandlerEnsurePlanConflict(t *testing.T) {
	svc := &mockRoadmapService{planErr: service.ErrRoadmapConflict}
	app := newRoadmapApp(svc, 7)

	req := httptest.NewRequest(fiber.MethodPost, "/roadmap/phases/plan", bytes.NewBufferString(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRoadmapHandlerToggleTask(t *testing.T) {
	svc := &mockRoadmapService{toggleResponse: dto.RoadmapResponse{Version: 4}}
	app := newRoadmapApp(svc, 7)

	payload := bytes.NewBufferString(`{"phase_id": "p1", "week_id": "w1", "day_id": "d1", "completed": true}`)
	req := httptest.NewRequest(fiber.MethodPatch, "/roadmap/tasks", payload)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "d1", svc.lastToggle.DayID)
	require.True(t, svc.lastToggle.Completed)
}

func TestRoadmapHandlerToggleTaskMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid reference", validator.ValidationErrors{}, fiber.StatusBadRequest},
		{"unknown day", roadmap.ErrDayNotFound, fiber.StatusNotFound},
		{"plan missing", roadmap.ErrPlanMissing, fiber.StatusConflict},
		{"concurrent edit", service.ErrRoadmapConflict, fiber.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newRoadmapApp(&mockRoadmapService{toggleErr: tc.err}, 7)

			req := httptest.NewRequest(fiber.MethodPatch, "/roadmap/tasks", bytes.NewBufferString(`{"day_index": 9}`))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
