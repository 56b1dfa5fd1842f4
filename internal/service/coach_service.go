package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/models"
	"github.com/ascenthq/ascent-api/internal/repository"
	"github.com/ascenthq/ascent-api/pkg/ai"
	"github.com/ascenthq/ascent-api/pkg/discovery"
)

const (
	coachReplyMaxTokens  = 300
	coachTemperature     = 0.5
	coachHistoryWindow   = 90 * 24 * time.Hour
	coachMaxRepoContext  = 15
	coachMaxHistoryTurns = 20
)

// CoachService runs the career-coach conversation. Unlike the tutor it is
// grounded in the student's profile and public repositories rather than a
// roadmap module.
type CoachService interface {
	Chat(ctx context.Context, studentID uint, req dto.CoachChatRequest) (dto.CoachMessageResponse, error)
	History(ctx context.Context, studentID uint) ([]dto.CoachMessageResponse, error)
}

type coachService struct {
	students  repository.StudentRepository
	chats     repository.CoachChatRepository
	provider  ai.Provider
	repos     discovery.RepoLister
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewCoachService constructs the career coach service. repos may be nil when
// no repository listing client is configured.
func NewCoachService(students repository.StudentRepository, chats repository.CoachChatRepository, provider ai.Provider, repos discovery.RepoLister, validate *validator.Validate, logger zerolog.Logger) CoachService {
	return &coachService{
		students:  students,
		chats:     chats,
		provider:  provider,
		repos:     repos,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "coach_service").Logger(),
		tracer:    otel.Tracer("github.com/ascenthq/ascent-api/internal/service/coach"),
		now:       time.Now,
	}
}

func (s *coachService) Chat(parent context.Context, studentID uint, req dto.CoachChatRequest) (dto.CoachMessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CoachMessageResponse{}, err
	}

	question := strings.TrimSpace(s.sanitizer.Sanitize(req.Message))
	if question == "" {
		return dto.CoachMessageResponse{}, ErrEmptyMessage
	}

	ctx, span := s.tracer.Start(parent, "coach.chat", trace.WithAttributes(
		attribute.Int("student_id", int(studentID)),
	))
	defer span.End()

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.CoachMessageResponse{}, err
	}

	history, err := s.chats.ListByStudent(ctx, studentID, s.now().Add(-coachHistoryWindow))
	if err != nil {
		span.RecordError(err)
		return dto.CoachMessageResponse{}, err
	}
	if len(history) > coachMaxHistoryTurns {
		history = history[len(history)-coachMaxHistoryTurns:]
	}

	reply, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      s.coachPrompt(ctx, student, question, history),
		MaxTokens:   coachReplyMaxTokens,
		Temperature: coachTemperature,
	})
	if err != nil {
		span.RecordError(err)
		return dto.CoachMessageResponse{}, fmt.Errorf("coach completion: %w", err)
	}
	reply = strings.TrimSpace(reply)

	exchange := models.CoachMessage{
		StudentID: studentID,
		Prompt:    question,
		Response:  reply,
	}
	if err := s.chats.Save(ctx, &exchange); err != nil {
		span.RecordError(err)
		return dto.CoachMessageResponse{}, err
	}

	return dto.NewCoachMessageResponse(exchange), nil
}

func (s *coachService) History(ctx context.Context, studentID uint) ([]dto.CoachMessageResponse, error) {
	messages, err := s.chats.ListByStudent(ctx, studentID, time.Time{})
	if err != nil {
		return nil, err
	}
	return dto.NewCoachMessageResponseSlice(messages), nil
}

func (s *coachService) coachPrompt(ctx context.Context, student models.Student, question string, history []models.CoachMessage) string {
	interests := "None"
	if len(student.KeyInterests) > 0 {
		interests = strings.Join(student.KeyInterests, ", ")
	}

	goal := student.CareerGoal
	if goal == "" {
		goal = "Not specified"
	}
	statement := student.PersonalStatement
	if statement == "" {
		statement = "Not provided"
	}

	var turns strings.Builder
	for _, entry := range history {
		fmt.Fprintf(&turns, "User: %s\nBot: %s\n", entry.Prompt, entry.Response)
	}

	return fmt.Sprintf(`You are a helpful assistant responding in a friendly and conversational tone.
The student's profile contains the following:
- Name: %s
- Career Goal: %s
- Dream Company: %s
- Company Preference: %s
- Personal Statement: %s
- Key Interests: %s
- Projects: %s

Chat history:
%s
User Question: "%s"

Respond in a friendly and concise manner:
- Continue the conversation based on the chat history and user profile.
- Keep responses brief and focused while maintaining context.`,
		student.Name,
		goal,
		valueOrNone(student.DreamCompany),
		valueOrNone(student.CompanyPreference),
		statement,
		interests,
		s.projectContext(ctx, student.GitHubProfile),
		turns.String(),
		question,
	)
}

// projectContext fetches the student's public repositories. Failures degrade
// to "None" so the coach still answers without project context.
func (s *coachService) projectContext(ctx context.Context, githubProfile string) string {
	username := githubUsername(githubProfile)
	if s.repos == nil || username == "" {
		return "None"
	}

	repos, err := s.repos.ListRepos(ctx, username)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("failed to fetch repositories for coach context")
		return "None"
	}
	if len(repos) == 0 {
		return "None"
	}
	if len(repos) > coachMaxRepoContext {
		repos = repos[:coachMaxRepoContext]
	}

	parts := make([]string, 0, len(repos))
	for _, repo := range repos {
		parts = append(parts, fmt.Sprintf("%s: %s", repo.Title, repo.Description))
	}
	return strings.Join(parts, ", ")
}

// githubUsername accepts either a bare username or a full profile URL.
func githubUsername(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return ""
	}

	profile = strings.TrimPrefix(profile, "https://")
	profile = strings.TrimPrefix(profile, "http://")
	profile = strings.TrimPrefix(profile, "www.")
	profile = strings.TrimPrefix(profile, "github.com/")
	profile = strings.Trim(profile, "/")

	if idx := strings.IndexByte(profile, '/'); idx >= 0 {
		profile = profile[:idx]
	}
	return profile
}

func valueOrNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "None"
	}
	return value
}
