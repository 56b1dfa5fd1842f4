package roadmap

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// PhaseCount is the number of phases every repaired roadmap carries.
	PhaseCount = 4
	// WeekCount is the number of weeks every repaired learning plan carries.
	WeekCount = 4
	// MaxDailyTasks caps the number of day entries per week.
	MaxDailyTasks = 5
)

// Day is the leaf schedule unit carrying completion state.
type Day struct {
	ID            string     `json:"id,omitempty"`
	Day           int        `json:"day"`
	Tasks         []string   `json:"tasks"`
	Resources     []string   `json:"resources"`
	DurationHours float64    `json:"duration_hours"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

// Week groups the daily tasks and objectives for one week of a plan.
type Week struct {
	ID                 string   `json:"id,omitempty"`
	Week               int      `json:"week"`
	LearningObjectives []string `json:"learning_objectives"`
	DailyTasks         []Day    `json:"daily_tasks"`
	Assessment         string   `json:"assessment"`
}

// LearningPlan is the lazily generated weekly breakdown attached to a phase.
type LearningPlan struct {
	WeeklySchedule []Week `json:"weekly_schedule"`
}

// Phase is one stage of a roadmap.
type Phase struct {
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name"`
	Duration     string              `json:"duration"`
	Description  string              `json:"description"`
	Skills       []string            `json:"skills"`
	Resources    map[string][]string `json:"resources"`
	LearningPlan *LearningPlan       `json:"learning_plan,omitempty"`
}

// Document is the full roadmap for one student, persisted as a single JSON
// text value. Version backs the optimistic concurrency check on writes.
type Document struct {
	Version int     `json:"version"`
	Phases  []Phase `json:"phases"`
}

// Decode parses a stored roadmap document. An empty payload yields an empty
// document rather than an error so callers can treat "no roadmap yet"
// uniformly.
func Decode(raw string) (Document, error) {
	if raw == "" || raw == "{}" {
		return Document{}, nil
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Document{}, fmt.Errorf("decode roadmap document: %w", err)
	}
	return doc, nil
}

// Encode serialises the document for storage.
func Encode(doc Document) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode roadmap document: %w", err)
	}
	return string(payload), nil
}

// HasPhases reports whether the document carries a usable roadmap.
func (d Document) HasPhases() bool {
	return len(d.Phases) > 0
}

// Clone returns a deep copy of the document so callers can mutate a working
// copy without touching the original.
func (d Document) Clone() Document {
	out := Document{Version: d.Version, Phases: make([]Phase, len(d.Phases))}
	for i, phase := range d.Phases {
		out.Phases[i] = clonePhase(phase)
	}
	return out
}

func clonePhase(p Phase) Phase {
	out := p
	out.Skills = append([]string(nil), p.Skills...)
	out.Resources = make(map[string][]string, len(p.Resources))
	for category, items := range p.Resources {
		out.Resources[category] = append([]string(nil), items...)
	}
	if p.LearningPlan != nil {
		plan := cloneLearningPlan(*p.LearningPlan)
		out.LearningPlan = &plan
	}
	return out
}

func cloneLearningPlan(plan LearningPlan) LearningPlan {
	out := LearningPlan{WeeklySchedule: make([]Week, len(plan.WeeklySchedule))}
	for i, week := range plan.WeeklySchedule {
		cloned := week
		cloned.LearningObjectives = append([]string(nil), week.LearningObjectives...)
		cloned.DailyTasks = make([]Day, len(week.DailyTasks))
		for j, day := range week.DailyTasks {
			clonedDay := day
			clonedDay.Tasks = append([]string(nil), day.Tasks...)
			clonedDay.Resources = append([]string(nil), day.Resources...)
			if day.CompletedDate != nil {
				ts := *day.CompletedDate
				clonedDay.CompletedDate = &ts
			}
			cloned.DailyTasks[j] = clonedDay
		}
		out.WeeklySchedule[i] = cloned
	}
	return out
}

// EnsureIDs assigns stable identifiers to every phase, week and day that
// lacks one. Documents written before identifiers existed are migrated in
// place on first load; addressing falls back to positions for anything still
// unidentified.
func (d *Document) EnsureIDs() {
	for i := range d.Phases {
		if d.Phases[i].ID == "" {
			d.Phases[i].ID = uuid.NewString()
		}
		plan := d.Phases[i].LearningPlan
		if plan == nil {
			continue
		}
		ensurePlanIDs(plan)
	}
}

func ensurePlanIDs(plan *LearningPlan) {
	for i := range plan.WeeklySchedule {
		if plan.WeeklySchedule[i].ID == "" {
			plan.WeeklySchedule[i].ID = uuid.NewString()
		}
		for j := range plan.WeeklySchedule[i].DailyTasks {
			if plan.WeeklySchedule[i].DailyTasks[j].ID == "" {
				plan.WeeklySchedule[i].DailyTasks[j].ID = uuid.NewString()
			}
		}
	}
}
