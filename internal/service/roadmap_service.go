package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/observability"
	"github.com/ascenthq/ascent-api/internal/repository"
	"github.com/ascenthq/ascent-api/internal/roadmap"
)

// ErrNoRoadmap indicates the student has not generated a roadmap yet.
var ErrNoRoadmap = errors.New("no roadmap for student")

// ErrRoadmapConflict indicates a write repeatedly lost the optimistic
// concurrency race and the caller should retry the whole operation.
var ErrRoadmapConflict = errors.New("roadmap was modified concurrently")

// RoadmapService exposes the stored roadmap document, lazy learning-plan
// expansion and fine-grained task completion updates.
type RoadmapService interface {
	GetRoadmap(ctx context.Context, studentID uint) (dto.RoadmapResponse, error)
	EnsureLearningPlan(ctx context.Context, studentID uint, ref dto.PhaseRefRequest) (dto.LearningPlanResult, error)
	SetTaskCompleted(ctx context.Context, studentID uint, req dto.TaskToggleRequest) (dto.RoadmapResponse, error)
}

type roadmapService struct {
	repo          repository.RoadmapRepository
	expander      *roadmap.Expander
	notifications NotificationService
	validator     *validator.Validate
	exposeOutcome bool
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewRoadmapService constructs the roadmap service.
func NewRoadmapService(repo repository.RoadmapRepository, expander *roadmap.Expander, notifications NotificationService, validate *validator.Validate, exposeOutcome bool, logger zerolog.Logger) RoadmapService {
	return &roadmapService{
		repo:          repo,
		expander:      expander,
		notifications: notifications,
		validator:     validate,
		exposeOutcome: exposeOutcome,
		logger:        logger.With().Str("component", "roadmap_service").Logger(),
		tracer:        otel.Tracer("github.com/ascenthq/ascent-api/internal/service/roadmap"),
		now:           time.Now,
	}
}

func (s *roadmapService) GetRoadmap(ctx context.Context, studentID uint) (dto.RoadmapResponse, error) {
	doc, outcome, err := s.repo.LoadWithOutcome(ctx, studentID)
	if err != nil {
		return dto.RoadmapResponse{}, err
	}
	if !doc.HasPhases() {
		return dto.RoadmapResponse{}, ErrNoRoadmap
	}

	// Migrate legacy documents to stable identifiers on read. Persisting the
	// migration is best-effort; a conflict just means someone else already
	// rewrote the document.
	migrated := doc.Clone()
	migrated.EnsureIDs()
	if !identifiersComplete(doc) {
		if err := s.repo.Replace(ctx, studentID, migrated, doc.Version); err == nil {
			migrated.Version = doc.Version + 1
		} else if !errors.Is(err, repository.ErrVersionConflict) {
			return dto.RoadmapResponse{}, err
		}
	}

	response := dto.RoadmapResponse{Phases: migrated.Phases, Version: migrated.Version}
	if s.exposeOutcome {
		response.Outcome = string(outcome)
	}
	return response, nil
}

// EnsureLearningPlan lazily expands the addressed phase. The expander is
// invoked only when the phase has no stored plan; a second open reuses the
// stored plan without another provider call.
func (s *roadmapService) EnsureLearningPlan(parent context.Context, studentID uint, ref dto.PhaseRefRequest) (dto.LearningPlanResult, error) {
	if err := s.validator.Struct(ref); err != nil {
		return dto.LearningPlanResult{}, err
	}

	ctx, span := s.tracer.Start(parent, "roadmap.ensure_plan", trace.WithAttributes(
		attribute.Int("student_id", int(studentID)),
	))
	defer span.End()

	for attempt := 0; attempt < 2; attempt++ {
		doc, err := s.repo.Load(ctx, studentID)
		if err != nil {
			return dto.LearningPlanResult{}, err
		}
		if !doc.HasPhases() {
			return dto.LearningPlanResult{}, ErrNoRoadmap
		}
		doc.EnsureIDs()

		phaseIdx, err := roadmap.FindPhase(&doc, phaseRefFromDTO(ref))
		if err != nil {
			return dto.LearningPlanResult{}, err
		}

		phase := &doc.Phases[phaseIdx]
		if phase.LearningPlan != nil {
			return dto.LearningPlanResult{
				PhaseID:   phase.ID,
				PhaseName: phase.Name,
				Plan:      *phase.LearningPlan,
				Generated: false,
			}, nil
		}

		start := s.now()
		plan, outcome := s.expander.GenerateLearningPlan(ctx, phase.Name, phase.Skills)
		observability.GenerationLatency().WithLabelValues("plan").Observe(time.Since(start).Seconds())
		observability.Generations().WithLabelValues("plan", string(outcome)).Inc()

		phase.LearningPlan = &plan

		err = s.repo.Replace(ctx, studentID, doc, doc.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			// Another writer got in between the read and the write; reload
			// and either reuse their plan or regenerate against fresh state.
			observability.DocumentConflicts().WithLabelValues("ensure_plan").Inc()
			s.logger.Warn().Uint("student_id", studentID).Msg("plan write conflicted, retrying")
			continue
		}
		if err != nil {
			return dto.LearningPlanResult{}, fmt.Errorf("store learning plan: %w", err)
		}

		s.notifyPlanReady(ctx, studentID, phase.Name)

		result := dto.LearningPlanResult{
			PhaseID:   phase.ID,
			PhaseName: phase.Name,
			Plan:      plan,
			Generated: true,
		}
		if s.exposeOutcome {
			result.Outcome = string(outcome)
		}
		return result, nil
	}

	return dto.LearningPlanResult{}, ErrRoadmapConflict
}

// SetTaskCompleted flips one day's completion flag and persists the whole
// document back under the optimistic version check.
func (s *roadmapService) SetTaskCompleted(parent context.Context, studentID uint, req dto.TaskToggleRequest) (dto.RoadmapResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RoadmapResponse{}, err
	}

	ctx, span := s.tracer.Start(parent, "roadmap.set_task_completed", trace.WithAttributes(
		attribute.Int("student_id", int(studentID)),
		attribute.Bool("completed", req.Completed),
	))
	defer span.End()

	for attempt := 0; attempt < 2; attempt++ {
		doc, err := s.repo.Load(ctx, studentID)
		if err != nil {
			return dto.RoadmapResponse{}, err
		}
		if !doc.HasPhases() {
			return dto.RoadmapResponse{}, ErrNoRoadmap
		}

		if err := roadmap.SetTaskCompleted(&doc, taskRefFromDTO(req), req.Completed, s.now()); err != nil {
			observability.TaskToggles().WithLabelValues("rejected").Inc()
			return dto.RoadmapResponse{}, err
		}

		err = s.repo.Replace(ctx, studentID, doc, doc.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			observability.DocumentConflicts().WithLabelValues("set_task").Inc()
			s.logger.Warn().Uint("student_id", studentID).Msg("task toggle conflicted, retrying")
			continue
		}
		if err != nil {
			observability.TaskToggles().WithLabelValues("error").Inc()
			return dto.RoadmapResponse{}, fmt.Errorf("store task update: %w", err)
		}

		observability.TaskToggles().WithLabelValues("ok").Inc()
		doc.Version++
		return dto.RoadmapResponse{Phases: doc.Phases, Version: doc.Version}, nil
	}

	return dto.RoadmapResponse{}, ErrRoadmapConflict
}

func (s *roadmapService) notifyPlanReady(ctx context.Context, studentID uint, phaseName string) {
	if s.notifications == nil {
		return
	}

	_, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
		StudentID: studentID,
		Type:      "plan.generated",
		Message:   fmt.Sprintf("Your weekly plan for %s is ready.", phaseName),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish plan notification")
	}
}

func phaseRefFromDTO(ref dto.PhaseRefRequest) roadmap.PhaseRef {
	out := roadmap.PhaseRef{PhaseID: ref.PhaseID, PhaseIndex: -1}
	if ref.PhaseIndex != nil {
		out.PhaseIndex = *ref.PhaseIndex
	}
	return out
}

func taskRefFromDTO(req dto.TaskToggleRequest) roadmap.TaskRef {
	out := roadmap.TaskRef{
		PhaseID:    req.PhaseID,
		WeekID:     req.WeekID,
		DayID:      req.DayID,
		PhaseIndex: -1,
		WeekIndex:  -1,
		DayIndex:   -1,
	}
	if req.PhaseIndex != nil {
		out.PhaseIndex = *req.PhaseIndex
	}
	if req.WeekIndex != nil {
		out.WeekIndex = *req.WeekIndex
	}
	if req.DayIndex != nil {
		out.DayIndex = *req.DayIndex
	}
	return out
}

func identifiersComplete(doc roadmap.Document) bool {
	for _, phase := range doc.Phases {
		if phase.ID == "" {
			return false
		}
		if phase.LearningPlan == nil {
			continue
		}
		for _, week := range phase.LearningPlan.WeeklySchedule {
			if week.ID == "" {
				return false
			}
			for _, day := range week.DailyTasks {
				if day.ID == "" {
					return false
				}
			}
		}
	}
	return true
}
