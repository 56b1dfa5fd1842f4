package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ascenthq/ascent-api/internal/config"
	"github.com/ascenthq/ascent-api/internal/database"
	"github.com/ascenthq/ascent-api/internal/handler"
	"github.com/ascenthq/ascent-api/internal/middleware"
	"github.com/ascenthq/ascent-api/internal/models"
	"github.com/ascenthq/ascent-api/internal/repository"
	"github.com/ascenthq/ascent-api/internal/roadmap"
	"github.com/ascenthq/ascent-api/internal/router"
	"github.com/ascenthq/ascent-api/internal/service"
	"github.com/ascenthq/ascent-api/pkg/ai"
	"github.com/ascenthq/ascent-api/pkg/discovery"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Student{}, &models.TutorMessage{}, &models.CoachMessage{}, &models.Notification{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, notifications stay node-local")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	provider, err := ai.NewOpenAIProvider(ai.OpenAIConfig{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai provider: %v", err)
	}

	var videos discovery.VideoSearcher
	if cfg.YouTubeAPIKey != "" {
		client, err := discovery.NewYouTubeClient(cfg.YouTubeAPIKey, logger)
		if err != nil {
			log.Fatalf("failed to create youtube client: %v", err)
		}
		videos = client
	}

	var papers discovery.PaperSearcher
	var web discovery.WebSearcher
	var articles discovery.ArticleSearcher
	if cfg.RapidAPIKey != "" {
		client, err := discovery.NewRapidAPIClient(cfg.RapidAPIKey, logger)
		if err != nil {
			log.Fatalf("failed to create rapidapi client: %v", err)
		}
		papers = client
		web = client
		articles = client
	}

	githubClient := discovery.NewGitHubClient(logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	roadmapRepo := repository.NewRoadmapRepository(db)
	tutorChatRepo := repository.NewTutorChatRepository(db)
	coachChatRepo := repository.NewCoachChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	generator := roadmap.NewGenerator(provider, logger)
	expander := roadmap.NewExpander(provider, logger)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.ChannelBase, natsConn, validate, logger)
	authService := service.NewAuthService(studentRepo, validate, cfg.JWTSecret, cfg.JWTTokenTTL, logger)
	profileService := service.NewProfileService(studentRepo, roadmapRepo, generator, notificationService, validate, cfg.ExposeGenerationOutcome, logger)
	roadmapService := service.NewRoadmapService(roadmapRepo, expander, notificationService, validate, cfg.ExposeGenerationOutcome, logger)
	tutorService := service.NewTutorService(roadmapRepo, tutorChatRepo, provider, redisClient, cfg.ChannelBase, cfg.TutorContextSize, validate, logger)
	coachService := service.NewCoachService(studentRepo, coachChatRepo, provider, githubClient, validate, logger)
	resourceService := service.NewResourceService(videos, papers, web, articles, redisClient, cfg.ChannelBase, cfg.ResourceCacheTTL, validate, logger)

	serviceCtx, stopServices := context.WithCancel(context.Background())
	defer stopServices()
	notificationService.Start(serviceCtx)

	authHandler := handler.NewAuthHandler(authService, logger)
	profileHandler := handler.NewProfileHandler(profileService, logger)
	roadmapHandler := handler.NewRoadmapHandler(roadmapService, logger)
	tutorHandler := handler.NewTutorHandler(tutorService, logger)
	coachHandler := handler.NewCoachHandler(coachService, logger)
	resourceHandler := handler.NewResourceHandler(resourceService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, 30*time.Second)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         authHandler,
		ProfileHandler:      profileHandler,
		RoadmapHandler:      roadmapHandler,
		TutorHandler:        tutorHandler,
		CoachHandler:        coachHandler,
		ResourceHandler:     resourceHandler,
		NotificationHandler: notificationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopServices)
}

func waitForShutdown(app *fiber.App, stopServices context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopServices()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
