package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ascenthq/ascent-api/internal/config"
	"github.com/ascenthq/ascent-api/internal/handler"
	"github.com/ascenthq/ascent-api/internal/middleware"
	"github.com/ascenthq/ascent-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	ProfileHandler      *handler.ProfileHandler
	RoadmapHandler      *handler.RoadmapHandler
	TutorHandler        *handler.TutorHandler
	CoachHandler        *handler.CoachHandler
	ResourceHandler     *handler.ResourceHandler
	NotificationHandler *handler.NotificationHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth)
	}

	if deps.ProfileHandler != nil {
		profile := api.Group("/profile", jwtMiddleware)
		deps.ProfileHandler.Register(profile)
	}

	if deps.RoadmapHandler != nil {
		roadmap := api.Group("/roadmap", jwtMiddleware)
		deps.RoadmapHandler.Register(roadmap)
	}

	// Provider-backed chat routes carry a per-student rate limit.
	if deps.TutorHandler != nil {
		tutor := api.Group("/tutor", jwtMiddleware, middleware.RateLimit("tutor", 30, time.Minute))
		deps.TutorHandler.Register(tutor)
	}

	if deps.CoachHandler != nil {
		coach := api.Group("/coach", jwtMiddleware, middleware.RateLimit("coach", 30, time.Minute))
		deps.CoachHandler.Register(coach)
	}

	if deps.ResourceHandler != nil {
		resources := api.Group("/resources", jwtMiddleware)
		deps.ResourceHandler.Register(resources)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}
}
