package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/models"
	"github.com/ascenthq/ascent-api/internal/repository"
	"github.com/ascenthq/ascent-api/internal/roadmap"
	"github.com/ascenthq/ascent-api/pkg/ai"
)

const (
	tutorContextCacheTTL = 30 * time.Minute
	tutorReplyMaxTokens  = 1000
	tutorTemperature     = 0.5
)

// ErrEmptyMessage indicates the student message had no content left after
// sanitization.
var ErrEmptyMessage = errors.New("message empty after sanitization")

// TutorService runs the module-scoped AI tutor. Each conversation is keyed
// by phase and week so the tutor stays grounded in one module at a time.
type TutorService interface {
	Chat(ctx context.Context, studentID uint, req dto.TutorChatRequest) (dto.TutorChatResponse, error)
	History(ctx context.Context, studentID uint, req dto.TutorModuleRequest) ([]dto.TutorMessageResponse, error)
	ClearHistory(ctx context.Context, studentID uint, req dto.TutorModuleRequest) error
}

// moduleContext is the slice of the roadmap the tutor grounds its answers in.
type moduleContext struct {
	ModuleKey  string              `json:"module_key"`
	Topic      string              `json:"topic"`
	Objectives []string            `json:"objectives"`
	Skills     []string            `json:"skills"`
	Resources  map[string][]string `json:"resources"`
}

type tutorService struct {
	roadmaps    repository.RoadmapRepository
	chats       repository.TutorChatRepository
	provider    ai.Provider
	redis       *redis.Client
	cachePrefix string
	contextSize int
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewTutorService constructs the tutor service. contextSize bounds how many
// prior turns are replayed to the provider on each message.
func NewTutorService(roadmaps repository.RoadmapRepository, chats repository.TutorChatRepository, provider ai.Provider, redisClient *redis.Client, channelBase string, contextSize int, validate *validator.Validate, logger zerolog.Logger) TutorService {
	if contextSize <= 0 {
		contextSize = 10
	}

	prefix := ""
	if channelBase != "" {
		prefix = channelBase + ":tutor:module"
	}

	return &tutorService{
		roadmaps:    roadmaps,
		chats:       chats,
		provider:    provider,
		redis:       redisClient,
		cachePrefix: prefix,
		contextSize: contextSize,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "tutor_service").Logger(),
		tracer:      otel.Tracer("github.com/ascenthq/ascent-api/internal/service/tutor"),
	}
}

func (s *tutorService) Chat(parent context.Context, studentID uint, req dto.TutorChatRequest) (dto.TutorChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TutorChatResponse{}, err
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(req.Message))
	if message == "" {
		return dto.TutorChatResponse{}, ErrEmptyMessage
	}

	module, err := s.resolveModule(parent, studentID, req.PhaseID, req.PhaseIndex, req.Week)
	if err != nil {
		return dto.TutorChatResponse{}, err
	}

	ctx, span := s.tracer.Start(parent, "tutor.chat", trace.WithAttributes(
		attribute.Int("student_id", int(studentID)),
		attribute.String("module_key", module.ModuleKey),
	))
	defer span.End()

	previous, err := s.chats.ListByModule(ctx, studentID, module.ModuleKey, s.contextSize)
	if err != nil {
		span.RecordError(err)
		return dto.TutorChatResponse{}, err
	}

	reply, err := s.provider.Complete(ctx, ai.CompletionRequest{
		System:      tutorSystemPrompt(module),
		Prompt:      message,
		History:     tutorHistory(previous),
		MaxTokens:   tutorReplyMaxTokens,
		Temperature: tutorTemperature,
	})
	if err != nil {
		span.RecordError(err)
		return dto.TutorChatResponse{}, fmt.Errorf("tutor completion: %w", err)
	}
	reply = strings.TrimSpace(reply)

	turns := []models.TutorMessage{
		{StudentID: studentID, ModuleKey: module.ModuleKey, Role: ai.RoleUser, Content: message},
		{StudentID: studentID, ModuleKey: module.ModuleKey, Role: ai.RoleAssistant, Content: reply},
	}
	for i := range turns {
		if err := s.chats.Save(ctx, &turns[i]); err != nil {
			span.RecordError(err)
			return dto.TutorChatResponse{}, err
		}
	}

	return dto.TutorChatResponse{Reply: reply, Topic: module.Topic}, nil
}

func (s *tutorService) History(ctx context.Context, studentID uint, req dto.TutorModuleRequest) ([]dto.TutorMessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	module, err := s.resolveModule(ctx, studentID, req.PhaseID, req.PhaseIndex, req.Week)
	if err != nil {
		return nil, err
	}

	messages, err := s.chats.ListByModule(ctx, studentID, module.ModuleKey, 0)
	if err != nil {
		return nil, err
	}

	return dto.NewTutorMessageResponseSlice(messages), nil
}

func (s *tutorService) ClearHistory(ctx context.Context, studentID uint, req dto.TutorModuleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	module, err := s.resolveModule(ctx, studentID, req.PhaseID, req.PhaseIndex, req.Week)
	if err != nil {
		return err
	}

	return s.chats.ClearModule(ctx, studentID, module.ModuleKey)
}

// resolveModule locates the addressed phase and week and assembles the
// grounding context. Resolved contexts are cached briefly so successive chat
// turns do not decode the whole roadmap document each time.
func (s *tutorService) resolveModule(ctx context.Context, studentID uint, phaseID string, phaseIndex *int, week int) (moduleContext, error) {
	cacheKey := s.moduleCacheKey(studentID, phaseID, phaseIndex, week)
	if cached, ok := s.cachedModule(ctx, cacheKey); ok {
		return cached, nil
	}

	doc, err := s.roadmaps.Load(ctx, studentID)
	if err != nil {
		return moduleContext{}, err
	}
	if !doc.HasPhases() {
		return moduleContext{}, ErrNoRoadmap
	}
	doc.EnsureIDs()

	ref := roadmap.PhaseRef{PhaseID: phaseID, PhaseIndex: -1}
	if phaseIndex != nil {
		ref.PhaseIndex = *phaseIndex
	}
	phaseIdx, err := roadmap.FindPhase(&doc, ref)
	if err != nil {
		return moduleContext{}, err
	}

	phase := doc.Phases[phaseIdx]
	if phase.LearningPlan == nil {
		return moduleContext{}, roadmap.ErrPlanMissing
	}
	if week < 1 || week > len(phase.LearningPlan.WeeklySchedule) {
		return moduleContext{}, roadmap.ErrWeekNotFound
	}
	weekEntry := phase.LearningPlan.WeeklySchedule[week-1]

	module := moduleContext{
		ModuleKey:  fmt.Sprintf("%s_%d", phase.ID, week),
		Topic:      fmt.Sprintf("%s - Week %d", phase.Name, weekEntry.Week),
		Objectives: weekEntry.LearningObjectives,
		Skills:     phase.Skills,
		Resources:  phase.Resources,
	}

	s.cacheModule(ctx, cacheKey, module)
	return module, nil
}

func (s *tutorService) moduleCacheKey(studentID uint, phaseID string, phaseIndex *int, week int) string {
	if s.redis == nil || s.cachePrefix == "" {
		return ""
	}
	phasePart := phaseID
	if phasePart == "" && phaseIndex != nil {
		phasePart = fmt.Sprintf("idx%d", *phaseIndex)
	}
	return fmt.Sprintf("%s:%d:%s:%d", s.cachePrefix, studentID, phasePart, week)
}

func (s *tutorService) cachedModule(ctx context.Context, key string) (moduleContext, bool) {
	if key == "" {
		return moduleContext{}, false
	}

	raw, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return moduleContext{}, false
	}

	var module moduleContext
	if err := json.Unmarshal([]byte(raw), &module); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached tutor module")
		return moduleContext{}, false
	}
	return module, true
}

func (s *tutorService) cacheModule(ctx context.Context, key string, module moduleContext) {
	if key == "" {
		return
	}

	payload, err := json.Marshal(module)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, payload, tutorContextCacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache tutor module context")
	}
}

func tutorSystemPrompt(module moduleContext) string {
	var resources strings.Builder
	for category, items := range module.Resources {
		fmt.Fprintf(&resources, "%s: %s\n", category, strings.Join(items, ", "))
	}

	return fmt.Sprintf(`You are an AI tutor specializing in %s.

You are currently helping the student with the following:
- Topic: %s
- Learning Objectives: %s
- Key Skills: %s

Available Learning Resources:
%s
Your role is to:
1. Answer questions about the topic in an educational manner
2. Explain concepts clearly and thoroughly
3. Provide practical examples and applications
4. Suggest additional resources when appropriate
5. Encourage critical thinking and problem-solving
6. If the student seems to be struggling, break down complex topics into simpler components
7. Maintain a supportive, patient, and encouraging tone

Do not:
- Provide incorrect information
- Go off-topic from the learning objectives
- Write extremely long responses (keep them concise but educational)

Write in an engaging educational style that's friendly but professional.`,
		module.Topic,
		module.Topic,
		strings.Join(module.Objectives, ", "),
		strings.Join(module.Skills, ", "),
		resources.String(),
	)
}

func tutorHistory(messages []models.TutorMessage) []ai.Message {
	history := make([]ai.Message, 0, len(messages))
	for _, message := range messages {
		history = append(history, ai.Message{Role: message.Role, Content: message.Content})
	}
	return history
}
