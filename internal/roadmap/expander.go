package roadmap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ascenthq/ascent-api/pkg/ai"
)

// Expander decomposes a single phase into a weekly/daily learning plan. Like
// the Generator it absorbs provider failures into a deterministic fallback.
// It holds no cache; invoking it at most once per phase is the caller's job.
type Expander struct {
	provider ai.Provider
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewExpander constructs a learning-plan expander.
func NewExpander(provider ai.Provider, logger zerolog.Logger) *Expander {
	return &Expander{
		provider: provider,
		logger:   logger.With().Str("component", "plan_expander").Logger(),
		tracer:   otel.Tracer("github.com/ascenthq/ascent-api/internal/roadmap/expander"),
	}
}

// GenerateLearningPlan returns a plan with exactly WeekCount weeks, each
// carrying between 1 and MaxDailyTasks days.
func (e *Expander) GenerateLearningPlan(parent context.Context, phaseName string, skills []string) (LearningPlan, Outcome) {
	ctx, span := e.tracer.Start(parent, "roadmap.expand", trace.WithAttributes(
		attribute.String("roadmap.phase", phaseName),
	))
	defer span.End()

	content, err := e.provider.Complete(ctx, ai.CompletionRequest{
		System:      "Return valid JSON only.",
		Prompt:      planPrompt(phaseName, skills),
		MaxTokens:   planMaxTokens,
		Temperature: 0,
		JSONOnly:    true,
	})
	if err != nil {
		e.logger.Warn().Err(err).Str("phase", phaseName).Msg("plan generation failed, serving fallback")
		span.SetAttributes(attribute.String("roadmap.outcome", string(OutcomeFallback)))
		return fallbackPlan(phaseName), OutcomeFallback
	}

	var parsed LearningPlan
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &parsed); err != nil || len(parsed.WeeklySchedule) == 0 {
		if err != nil {
			e.logger.Warn().Err(err).Str("phase", phaseName).Msg("plan response unparseable, serving fallback")
		} else {
			e.logger.Warn().Str("phase", phaseName).Msg("plan response missing weeks, serving fallback")
		}
		span.SetAttributes(attribute.String("roadmap.outcome", string(OutcomeFallback)))
		return fallbackPlan(phaseName), OutcomeFallback
	}

	plan, repaired := repairPlan(parsed, phaseName)
	ensurePlanIDs(&plan)

	outcome := OutcomeProvider
	if repaired {
		outcome = OutcomeRepaired
	}
	span.SetAttributes(attribute.String("roadmap.outcome", string(outcome)))
	return plan, outcome
}

func planPrompt(phaseName string, skills []string) string {
	builder := strings.Builder{}
	builder.WriteString("Generate a learning plan for the ")
	builder.WriteString(phaseName)
	builder.WriteString(" phase with skills: ")
	builder.WriteString(strings.Join(skills, ", "))
	builder.WriteString(". Return pure JSON:\n")
	builder.WriteString(`{
  "weekly_schedule": [
    {
      "week": 1,
      "learning_objectives": ["Objective 1", "Objective 2"],
      "daily_tasks": [
        {
          "day": 1,
          "tasks": ["Task 1", "Task 2"],
          "resources": ["Resource 1"],
          "duration_hours": 2
        }
      ],
      "assessment": "Project description"
    }
  ]
}`)
	builder.WriteString("\nInclude exactly ")
	builder.WriteString(fmt.Sprint(WeekCount))
	builder.WriteString(" weeks.")
	return builder.String()
}

// repairPlan normalises a parsed plan to exactly WeekCount complete weeks and
// reports whether any repair was required.
func repairPlan(plan LearningPlan, phaseName string) (LearningPlan, bool) {
	repaired := false

	if len(plan.WeeklySchedule) > WeekCount {
		plan.WeeklySchedule = plan.WeeklySchedule[:WeekCount]
		repaired = true
	}
	for len(plan.WeeklySchedule) < WeekCount {
		last := plan.WeeklySchedule[len(plan.WeeklySchedule)-1]
		last.ID = ""
		last.Week = len(plan.WeeklySchedule) + 1
		last.LearningObjectives = append([]string(nil), last.LearningObjectives...)
		last.DailyTasks = cloneDays(last.DailyTasks)
		plan.WeeklySchedule = append(plan.WeeklySchedule, last)
		repaired = true
	}

	for i := range plan.WeeklySchedule {
		if repairWeek(&plan.WeeklySchedule[i], i, phaseName) {
			repaired = true
		}
	}
	return plan, repaired
}

func repairWeek(week *Week, index int, phaseName string) bool {
	repaired := false

	if week.Week != index+1 {
		week.Week = index + 1
		repaired = true
	}
	if len(week.LearningObjectives) == 0 {
		week.LearningObjectives = []string{fmt.Sprintf("Progress through %s", phaseName)}
		repaired = true
	}
	if strings.TrimSpace(week.Assessment) == "" {
		week.Assessment = fmt.Sprintf("Review what you learned in week %d", week.Week)
		repaired = true
	}

	if len(week.DailyTasks) > MaxDailyTasks {
		week.DailyTasks = week.DailyTasks[:MaxDailyTasks]
		repaired = true
	}
	if len(week.DailyTasks) == 0 {
		week.DailyTasks = []Day{genericDay(phaseName)}
		repaired = true
	}
	for i := range week.DailyTasks {
		if repairDay(&week.DailyTasks[i], i, phaseName) {
			repaired = true
		}
	}
	return repaired
}

func repairDay(day *Day, index int, phaseName string) bool {
	repaired := false

	if day.Day != index+1 {
		day.Day = index + 1
		repaired = true
	}
	if len(day.Tasks) == 0 {
		day.Tasks = []string{fmt.Sprintf("Study %s material", phaseName)}
		repaired = true
	}
	if day.Resources == nil {
		day.Resources = []string{}
		repaired = true
	}
	if day.DurationHours <= 0 {
		day.DurationHours = 1
		repaired = true
	}
	// Generated content never arrives completed, even when the provider
	// invents a completion date.
	if day.Completed || day.CompletedDate != nil {
		day.Completed = false
		day.CompletedDate = nil
		repaired = true
	}
	return repaired
}

func genericDay(phaseName string) Day {
	return Day{
		Day:           1,
		Tasks:         []string{fmt.Sprintf("Study %s material", phaseName)},
		Resources:     []string{},
		DurationHours: 2,
	}
}

func cloneDays(days []Day) []Day {
	out := make([]Day, len(days))
	for i, day := range days {
		cloned := day
		cloned.ID = ""
		cloned.Tasks = append([]string(nil), day.Tasks...)
		cloned.Resources = append([]string(nil), day.Resources...)
		cloned.Completed = false
		cloned.CompletedDate = nil
		out[i] = cloned
	}
	return out
}

// fallbackPlan is the deterministic single-week plan served when the provider
// response is unusable, padded to the required week count.
func fallbackPlan(phaseName string) LearningPlan {
	plan := LearningPlan{WeeklySchedule: []Week{{
		Week:               1,
		LearningObjectives: []string{fmt.Sprintf("Get started with %s", phaseName)},
		DailyTasks:         []Day{genericDay(phaseName)},
		Assessment:         fmt.Sprintf("Summarise your first steps in %s", phaseName),
	}}}
	plan, _ = repairPlan(plan, phaseName)
	ensurePlanIDs(&plan)
	return plan
}
