package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/models"
	"github.com/ascenthq/ascent-api/internal/repository"
	"github.com/ascenthq/ascent-api/internal/roadmap"
	"github.com/ascenthq/ascent-api/pkg/ai"
)

type stubProvider struct {
	response string
	err      error
	calls    int
}

func (p *stubProvider) Complete(_ context.Context, _ ai.CompletionRequest) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

const validPlanJSON = `{
  "weekly_schedule": [
    {"week": 1, "learning_objectives": ["o1"], "daily_tasks": [{"day": 1, "tasks": ["t"], "resources": ["r"], "duration_hours": 2}], "assessment": "a1"},
    {"week": 2, "learning_objectives": ["o2"], "daily_tasks": [{"day": 1, "tasks": ["t"], "resources": ["r"], "duration_hours": 2}], "assessment": "a2"},
    {"week": 3, "learning_objectives": ["o3"], "daily_tasks": [{"day": 1, "tasks": ["t"], "resources": ["r"], "duration_hours": 2}], "assessment": "a3"},
    {"week": 4, "learning_objectives": ["o4"], "daily_tasks": [{"day": 1, "tasks": ["t"], "resources": ["r"], "duration_hours": 2}], "assessment": "a4"}
  ]
}`

func openServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.TutorMessage{}, &models.CoachMessage{}, &models.Notification{}))
	return db
}

func seedStudentWithRoadmap(t *testing.T, db *gorm.DB, username string) (models.Student, roadmap.Document) {
	t.Helper()
	student := models.Student{
		Username:     username,
		Name:         "Test Student",
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CareerGoal:   "Backend Engineer",
	}
	require.NoError(t, db.Create(&student).Error)

	doc := roadmap.Document{Phases: []roadmap.Phase{
		{Name: "Foundations", Duration: "1-2 months", Description: "Basics", Skills: []string{"Go"}},
		{Name: "Core"},
		{Name: "Advanced"},
		{Name: "Career"},
	}}
	doc.EnsureIDs()

	repo := repository.NewRoadmapRepository(db)
	require.NoError(t, repo.Replace(context.Background(), student.ID, doc, 0))

	stored, err := repo.Load(context.Background(), student.ID)
	require.NoError(t, err)
	return student, stored
}

func TestRoadmapServiceEnsureLearningPlanGeneratesOnce(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithRoadmap(t, db, "plan-once")

	provider := &stubProvider{response: validPlanJSON}
	expander := roadmap.NewExpander(provider, zerolog.Nop())
	svc := NewRoadmapService(repository.NewRoadmapRepository(db), expander, nil, validator.New(validator.WithRequiredStructEnabled()), true, zerolog.Nop())

	ref := dto.PhaseRefRequest{PhaseID: stored.Phases[0].ID}

	first, err := svc.EnsureLearningPlan(context.Background(), student.ID, ref)
	require.NoError(t, err)
	require.True(t, first.Generated)
	require.Equal(t, string(roadmap.OutcomeProvider), first.Outcome)
	require.Len(t, first.Plan.WeeklySchedule, roadmap.WeekCount)
	require.Equal(t, 1, provider.calls)

	second, err := svc.EnsureLearningPlan(context.Background(), student.ID, ref)
	require.NoError(t, err)
	require.False(t, second.Generated)
	require.Empty(t, second.Outcome)
	require.Equal(t, 1, provider.calls, "stored plan must be reused without another provider call")
	require.Equal(t, first.Plan.WeeklySchedule[0].ID, second.Plan.WeeklySchedule[0].ID)
}

func TestRoadmapServiceEnsureLearningPlanByPosition(t *testing.T) {
	db := openServiceDB(t)
	student, _ := seedStudentWithRoadmap(t, db, "plan-index")

	provider := &stubProvider{response: validPlanJSON}
	expander := roadmap.NewExpander(provider, zerolog.Nop())
	svc := NewRoadmapService(repository.NewRoadmapRepository(db), expander, nil, validator.New(validator.WithRequiredStructEnabled()), false, zerolog.Nop())

	index := 1
	result, err := svc.EnsureLearningPlan(context.Background(), student.ID, dto.PhaseRefRequest{PhaseIndex: &index})
	require.NoError(t, err)
	require.True(t, result.Generated)
	require.Equal(t, "Core", result.PhaseName)
	require.Empty(t, result.Outcome, "outcome must stay hidden when not exposed")
}

func TestRoadmapServiceEnsureLearningPlanUnknownPhase(t *testing.T) {
	db := openServiceDB(t)
	student, _ := seedStudentWithRoadmap(t, db, "plan-unknown")

	provider := &stubProvider{response: validPlanJSON}
	expander := roadmap.NewExpander(provider, zerolog.Nop())
	svc := NewRoadmapService(repository.NewRoadmapRepository(db), expander, nil, validator.New(validator.WithRequiredStructEnabled()), true, zerolog.Nop())

	index := 9
	_, err := svc.EnsureLearningPlan(context.Background(), student.ID, dto.PhaseRefRequest{PhaseIndex: &index})
	require.ErrorIs(t, err, roadmap.ErrPhaseNotFound)
	require.Zero(t, provider.calls)
}

func TestRoadmapServiceSetTaskCompletedPersists(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithRoadmap(t, db, "task-persist")

	provider := &stubProvider{response: validPlanJSON}
	expander := roadmap.NewExpander(provider, zerolog.Nop())
	repo := repository.NewRoadmapRepository(db)
	svc := NewRoadmapService(repo, expander, nil, validator.New(validator.WithRequiredStructEnabled()), true, zerolog.Nop())

	_, err := svc.EnsureLearningPlan(context.Background(), student.ID, dto.PhaseRefRequest{PhaseID: stored.Phases[0].ID})
	require.NoError(t, err)

	phaseIdx, weekIdx, dayIdx := 0, 0, 0
	response, err := svc.SetTaskCompleted(context.Background(), student.ID, dto.TaskToggleRequest{
		PhaseIndex: &phaseIdx,
		WeekIndex:  &weekIdx,
		DayIndex:   &dayIdx,
		Completed:  true,
	})
	require.NoError(t, err)

	day := response.Phases[0].LearningPlan.WeeklySchedule[0].DailyTasks[0]
	require.True(t, day.Completed)
	require.NotNil(t, day.CompletedDate)

	reloaded, err := repo.Load(context.Background(), student.ID)
	require.NoError(t, err)
	require.True(t, reloaded.Phases[0].LearningPlan.WeeklySchedule[0].DailyTasks[0].Completed)
	require.Equal(t, response.Version, reloaded.Version)
}

func TestRoadmapServiceSetTaskCompletedRejectsOutOfRange(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithRoadmap(t, db, "task-reject")

	provider := &stubProvider{response: validPlanJSON}
	expander := roadmap.NewExpander(provider, zerolog.Nop())
	repo := repository.NewRoadmapRepository(db)
	svc := NewRoadmapService(repo, expander, nil, validator.New(validator.WithRequiredStructEnabled()), true, zerolog.Nop())

	_, err := svc.EnsureLearningPlan(context.Background(), student.ID, dto.PhaseRefRequest{PhaseID: stored.Phases[0].ID})
	require.NoError(t, err)

	before, err := repo.Load(context.Background(), student.ID)
	require.NoError(t, err)

	phaseIdx, weekIdx, dayIdx := 0, 0, 9
	_, err = svc.SetTaskCompleted(context.Background(), student.ID, dto.TaskToggleRequest{
		PhaseIndex: &phaseIdx,
		WeekIndex:  &weekIdx,
		DayIndex:   &dayIdx,
		Completed:  true,
	})
	require.ErrorIs(t, err, roadmap.ErrDayNotFound)

	after, err := repo.Load(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, before.Version, after.Version, "rejected update must not bump the version")
}

func TestRoadmapServiceGetRoadmapMissing(t *testing.T) {
	db := openServiceDB(t)
	student := models.Student{Username: "no-roadmap", Name: "N", Email: "no-roadmap@example.com", PasswordHash: "h"}
	require.NoError(t, db.Create(&student).Error)

	svc := NewRoadmapService(repository.NewRoadmapRepository(db), roadmap.NewExpander(&stubProvider{}, zerolog.Nop()), nil, validator.New(validator.WithRequiredStructEnabled()), true, zerolog.Nop())

	_, err := svc.GetRoadmap(context.Background(), student.ID)
	require.ErrorIs(t, err, ErrNoRoadmap)
}

func TestRoadmapServiceGetRoadmapExposesStoredOutcome(t *testing.T) {
	db := openServiceDB(t)
	student, stored := seedStudentWithRoadmap(t, db, "stored-outcome")

	repo := repository.NewRoadmapRepository(db)
	require.NoError(t, repo.ReplaceWithOutcome(context.Background(), student.ID, stored, stored.Version, roadmap.OutcomeFallback))

	expander := roadmap.NewExpander(&stubProvider{}, zerolog.Nop())
	exposing := NewRoadmapService(repo, expander, nil, validator.New(validator.WithRequiredStructEnabled()), true, zerolog.Nop())

	response, err := exposing.GetRoadmap(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, string(roadmap.OutcomeFallback), response.Outcome)

	hiding := NewRoadmapService(repo, expander, nil, validator.New(validator.WithRequiredStructEnabled()), false, zerolog.Nop())

	response, err = hiding.GetRoadmap(context.Background(), student.ID)
	require.NoError(t, err)
	require.Empty(t, response.Outcome)
}

func TestRoadmapServiceValidatesRequests(t *testing.T) {
	db := openServiceDB(t)
	student, _ := seedStudentWithRoadmap(t, db, "validate-refs")

	provider := &stubProvider{response: validPlanJSON}
	expander := roadmap.NewExpander(provider, zerolog.Nop())
	svc := NewRoadmapService(repository.NewRoadmapRepository(db), expander, nil, validator.New(validator.WithRequiredStructEnabled()), true, zerolog.Nop())

	var validationErrors validator.ValidationErrors

	_, err := svc.EnsureLearningPlan(context.Background(), student.ID, dto.PhaseRefRequest{PhaseID: "not-a-uuid"})
	require.ErrorAs(t, err, &validationErrors)
	require.Zero(t, provider.calls)

	negative := -1
	_, err = svc.SetTaskCompleted(context.Background(), student.ID, dto.TaskToggleRequest{
		DayID:      "also-not-a-uuid",
		PhaseIndex: &negative,
	})
	require.ErrorAs(t, err, &validationErrors)
}
