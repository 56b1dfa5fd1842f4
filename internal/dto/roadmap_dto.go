package dto

import "github.com/ascenthq/ascent-api/internal/roadmap"

// RoadmapResponse wraps the stored roadmap document. Outcome is only set
// when the deployment is configured to expose how content was produced.
type RoadmapResponse struct {
	Phases  []roadmap.Phase `json:"phases"`
	Version int             `json:"version"`
	Outcome string          `json:"outcome,omitempty"`
}

// PhaseRefRequest addresses one phase, by stable identifier or position.
type PhaseRefRequest struct {
	PhaseID    string `json:"phase_id" validate:"omitempty,uuid4"`
	PhaseIndex *int   `json:"phase_index" validate:"omitempty,min=0"`
}

// LearningPlanResult reports the plan for a phase and whether this call
// generated it or reused the stored one.
type LearningPlanResult struct {
	PhaseID   string               `json:"phase_id"`
	PhaseName string               `json:"phase_name"`
	Plan      roadmap.LearningPlan `json:"plan"`
	Generated bool                 `json:"generated"`
	Outcome   string               `json:"outcome,omitempty"`
}

// TaskToggleRequest flips the completion state of one day, addressed by
// stable identifiers with positional fallback for legacy documents.
type TaskToggleRequest struct {
	PhaseID    string `json:"phase_id" validate:"omitempty,uuid4"`
	WeekID     string `json:"week_id" validate:"omitempty,uuid4"`
	DayID      string `json:"day_id" validate:"omitempty,uuid4"`
	PhaseIndex *int   `json:"phase_index" validate:"omitempty,min=0"`
	WeekIndex  *int   `json:"week_index" validate:"omitempty,min=0"`
	DayIndex   *int   `json:"day_index" validate:"omitempty,min=0"`
	Completed  bool   `json:"completed"`
}
