package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/models"
	"github.com/ascenthq/ascent-api/internal/repository"
	"github.com/ascenthq/ascent-api/internal/roadmap"
	"github.com/ascenthq/ascent-api/pkg/ai"
)

// recordingProvider keeps the last request so tests can inspect the prompt.
type recordingProvider struct {
	response string
	last     ai.CompletionRequest
	calls    int
}

func (p *recordingProvider) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	p.calls++
	p.last = req
	return p.response, nil
}

func seedStudentWithPlan(t *testing.T, db *gorm.DB, username string) (models.Student, roadmap.Document) {
	t.Helper()
	student, stored := seedStudentWithRoadmap(t, db, username)

	stored.Phases[0].LearningPlan = &roadmap.LearningPlan{WeeklySchedule: []roadmap.Week{
		{
			Week:               1,
			LearningObjectives: []string{"Understand goroutines"},
			DailyTasks:         []roadmap.Day{{Day: 1, Tasks: []string{"Read the tour"}, Resources: []string{"go.dev"}, DurationHours: 2}},
			Assessment:         "Quiz",
		},
		{
			Week:               2,
			LearningObjectives: []string{"Channels in practice"},
			DailyTasks:         []roadmap.Day{{Day: 1, Tasks: []string{"Build a pipeline"}, Resources: []string{"blog"}, DurationHours: 2}},
			Assessment:         "Project",
		},
	}}
	stored.EnsureIDs()

	repo := repository.NewRoadmapRepository(db)
	require.NoError(t, repo.Replace(context.Background(), student.ID, stored, stored.Version))

	reloaded, err := repo.Load(context.Background(), student.ID)
	require.NoError(t, err)
	return student, reloaded
}

func newTutorService(t *testing.T, db *gorm.DB, provider ai.Provider) (TutorService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	svc := NewTutorService(
		repository.NewRoadmapRepository(db),
		repository.NewTutorChatRepository(db),
		provider,
		redisClient,
		"ascent-test",
		10,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
	return svc, mr
}

func TestTutorChatSavesBothTurns(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithPlan(t, db, "tutor-chat")

	provider := &recordingProvider{response: "Goroutines are lightweight threads."}
	svc, _ := newTutorService(t, db, provider)

	resp, err := svc.Chat(context.Background(), student.ID, dto.TutorChatRequest{
		Message: "What is a goroutine?",
		PhaseID: stored.Phases[0].ID,
		Week:    1,
	})
	require.NoError(t, err)
	require.Equal(t, "Goroutines are lightweight threads.", resp.Reply)
	require.Equal(t, "Foundations - Week 1", resp.Topic)

	require.Contains(t, provider.last.System, "Foundations - Week 1")
	require.Contains(t, provider.last.System, "Understand goroutines")

	history, err := svc.History(context.Background(), student.ID, dto.TutorModuleRequest{
		PhaseID: stored.Phases[0].ID,
		Week:    1,
	})
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, ai.RoleUser, history[0].Role)
	require.Equal(t, "What is a goroutine?", history[0].Content)
	require.Equal(t, ai.RoleAssistant, history[1].Role)
}

func TestTutorChatReplaysPriorTurns(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithPlan(t, db, "tutor-replay")

	provider := &recordingProvider{response: "Sure."}
	svc, _ := newTutorService(t, db, provider)

	req := dto.TutorChatRequest{Message: "First question", PhaseID: stored.Phases[0].ID, Week: 1}
	_, err := svc.Chat(context.Background(), student.ID, req)
	require.NoError(t, err)

	req.Message = "Second question"
	_, err = svc.Chat(context.Background(), student.ID, req)
	require.NoError(t, err)

	require.Equal(t, 2, provider.calls)
	require.Len(t, provider.last.History, 2)
	require.Equal(t, "First question", provider.last.History[0].Content)
}

func TestTutorModulesAreIsolated(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithPlan(t, db, "tutor-isolated")

	provider := &recordingProvider{response: "Answer."}
	svc, _ := newTutorService(t, db, provider)

	_, err := svc.Chat(context.Background(), student.ID, dto.TutorChatRequest{
		Message: "Week one question",
		PhaseID: stored.Phases[0].ID,
		Week:    1,
	})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), student.ID, dto.TutorModuleRequest{
		PhaseID: stored.Phases[0].ID,
		Week:    2,
	})
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestTutorClearHistory(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithPlan(t, db, "tutor-clear")

	provider := &recordingProvider{response: "Answer."}
	svc, _ := newTutorService(t, db, provider)

	module := dto.TutorModuleRequest{PhaseID: stored.Phases[0].ID, Week: 1}
	_, err := svc.Chat(context.Background(), student.ID, dto.TutorChatRequest{
		Message: "Question",
		PhaseID: module.PhaseID,
		Week:    module.Week,
	})
	require.NoError(t, err)

	require.NoError(t, svc.ClearHistory(context.Background(), student.ID, module))

	history, err := svc.History(context.Background(), student.ID, module)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestTutorChatCachesModuleContext(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithPlan(t, db, "tutor-cache")

	provider := &recordingProvider{response: "Answer."}
	svc, mr := newTutorService(t, db, provider)

	_, err := svc.Chat(context.Background(), student.ID, dto.TutorChatRequest{
		Message: "Question",
		PhaseID: stored.Phases[0].ID,
		Week:    1,
	})
	require.NoError(t, err)

	key := fmt.Sprintf("ascent-test:tutor:module:%d:%s:1", student.ID, stored.Phases[0].ID)
	require.True(t, mr.Exists(key))
}

func TestTutorChatRejectsEmptyMessage(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithPlan(t, db, "tutor-empty")

	provider := &recordingProvider{response: "Answer."}
	svc, _ := newTutorService(t, db, provider)

	_, err := svc.Chat(context.Background(), student.ID, dto.TutorChatRequest{
		Message: "<script>alert(1)</script>",
		PhaseID: stored.Phases[0].ID,
		Week:    1,
	})
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.Zero(t, provider.calls)
}

func TestTutorChatRequiresLearningPlan(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithPlan(t, db, "tutor-noplan")

	provider := &recordingProvider{response: "Answer."}
	svc, _ := newTutorService(t, db, provider)

	// Phase 1 never had a plan generated.
	_, err := svc.Chat(context.Background(), student.ID, dto.TutorChatRequest{
		Message: "Question",
		PhaseID: stored.Phases[1].ID,
		Week:    1,
	})
	require.ErrorIs(t, err, roadmap.ErrPlanMissing)

	// The stored plan only has two weeks.
	_, err = svc.Chat(context.Background(), student.ID, dto.TutorChatRequest{
		Message: "Question",
		PhaseID: stored.Phases[0].ID,
		Week:    3,
	})
	require.ErrorIs(t, err, roadmap.ErrWeekNotFound)
}

func TestTutorSystemPromptListsResources(t *testing.T) {
	module := moduleContext{
		Topic:      "Foundations - Week 1",
		Objectives: []string{"Understand goroutines"},
		Skills:     []string{"Go"},
		Resources:  map[string][]string{"Courses": {"Tour of Go"}},
	}

	prompt := tutorSystemPrompt(module)
	require.True(t, strings.Contains(prompt, "Courses: Tour of Go"))
	require.True(t, strings.Contains(prompt, "Understand goroutines"))
}
