package roadmap

import (
	"errors"
	"fmt"
	"time"
)

// Addressing errors returned by the navigator. The document is never mutated
// when any of these is returned.
var (
	ErrPhaseNotFound = errors.New("phase not found")
	ErrPlanMissing   = errors.New("phase has no learning plan")
	ErrWeekNotFound  = errors.New("week not found")
	ErrDayNotFound   = errors.New("day not found")
)

// TaskRef addresses one day inside the nested document. Stable identifiers
// take precedence; the positional indices are the legacy fallback for
// documents written before identifiers existed.
type TaskRef struct {
	PhaseID string
	WeekID  string
	DayID   string

	PhaseIndex int
	WeekIndex  int
	DayIndex   int
}

// PhaseRef addresses one phase, by identifier or position.
type PhaseRef struct {
	PhaseID    string
	PhaseIndex int
}

// FindPhase resolves a phase reference against the document and returns the
// phase's position.
func FindPhase(doc *Document, ref PhaseRef) (int, error) {
	if ref.PhaseID != "" {
		for i := range doc.Phases {
			if doc.Phases[i].ID == ref.PhaseID {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: id %s", ErrPhaseNotFound, ref.PhaseID)
	}

	if ref.PhaseIndex < 0 || ref.PhaseIndex >= len(doc.Phases) {
		return 0, fmt.Errorf("%w: index %d out of range", ErrPhaseNotFound, ref.PhaseIndex)
	}
	return ref.PhaseIndex, nil
}

// SetTaskCompleted flips the completion state of the addressed day and
// stamps or clears its completion date. Validation happens before any
// mutation so an addressing error leaves the document untouched.
func SetTaskCompleted(doc *Document, ref TaskRef, completed bool, now time.Time) error {
	phaseIdx, err := FindPhase(doc, PhaseRef{PhaseID: ref.PhaseID, PhaseIndex: ref.PhaseIndex})
	if err != nil {
		return err
	}

	plan := doc.Phases[phaseIdx].LearningPlan
	if plan == nil {
		return fmt.Errorf("%w: phase %d", ErrPlanMissing, phaseIdx)
	}

	weekIdx, err := findWeek(plan, ref)
	if err != nil {
		return err
	}

	dayIdx, err := findDay(&plan.WeeklySchedule[weekIdx], ref)
	if err != nil {
		return err
	}

	day := &plan.WeeklySchedule[weekIdx].DailyTasks[dayIdx]
	day.Completed = completed
	if completed {
		ts := now.UTC()
		day.CompletedDate = &ts
	} else {
		day.CompletedDate = nil
	}
	return nil
}

func findWeek(plan *LearningPlan, ref TaskRef) (int, error) {
	if ref.WeekID != "" {
		for i := range plan.WeeklySchedule {
			if plan.WeeklySchedule[i].ID == ref.WeekID {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: id %s", ErrWeekNotFound, ref.WeekID)
	}

	if ref.WeekIndex < 0 || ref.WeekIndex >= len(plan.WeeklySchedule) {
		return 0, fmt.Errorf("%w: index %d out of range", ErrWeekNotFound, ref.WeekIndex)
	}
	return ref.WeekIndex, nil
}

func findDay(week *Week, ref TaskRef) (int, error) {
	if ref.DayID != "" {
		for i := range week.DailyTasks {
			if week.DailyTasks[i].ID == ref.DayID {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: id %s", ErrDayNotFound, ref.DayID)
	}

	if ref.DayIndex < 0 || ref.DayIndex >= len(week.DailyTasks) {
		return 0, fmt.Errorf("%w: index %d out of range", ErrDayNotFound, ref.DayIndex)
	}
	return ref.DayIndex, nil
}
