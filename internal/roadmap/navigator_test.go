package roadmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func planDocument() Document {
	doc := Document{Phases: []Phase{
		{Name: "Foundations", Skills: []string{"Go"}},
		{Name: "Core"},
		{Name: "Advanced"},
		{Name: "Career"},
	}}
	doc.Phases[0].LearningPlan = &LearningPlan{WeeklySchedule: []Week{
		{
			Week:               1,
			LearningObjectives: []string{"o1"},
			Assessment:         "a1",
			DailyTasks: []Day{
				{Day: 1, Tasks: []string{"t1"}, DurationHours: 2},
				{Day: 2, Tasks: []string{"t2"}, DurationHours: 2},
			},
		},
		{
			Week:               2,
			LearningObjectives: []string{"o2"},
			Assessment:         "a2",
			DailyTasks:         []Day{{Day: 1, Tasks: []string{"t"}, DurationHours: 1}},
		},
	}}
	doc.EnsureIDs()
	return doc
}

func TestSetTaskCompletedByID(t *testing.T) {
	doc := planDocument()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	week := doc.Phases[0].LearningPlan.WeeklySchedule[0]
	ref := TaskRef{PhaseID: doc.Phases[0].ID, WeekID: week.ID, DayID: week.DailyTasks[1].ID, PhaseIndex: -1, WeekIndex: -1, DayIndex: -1}

	require.NoError(t, SetTaskCompleted(&doc, ref, true, now))

	day := doc.Phases[0].LearningPlan.WeeklySchedule[0].DailyTasks[1]
	require.True(t, day.Completed)
	require.NotNil(t, day.CompletedDate)
	require.Equal(t, now, *day.CompletedDate)

	// The sibling day is untouched.
	require.False(t, doc.Phases[0].LearningPlan.WeeklySchedule[0].DailyTasks[0].Completed)
}

func TestSetTaskCompletedByPosition(t *testing.T) {
	doc := planDocument()
	now := time.Now()

	ref := TaskRef{PhaseIndex: 0, WeekIndex: 1, DayIndex: 0}
	require.NoError(t, SetTaskCompleted(&doc, ref, true, now))
	require.True(t, doc.Phases[0].LearningPlan.WeeklySchedule[1].DailyTasks[0].Completed)
}

func TestSetTaskCompletedUncompleteClearsDate(t *testing.T) {
	doc := planDocument()
	now := time.Now()
	ref := TaskRef{PhaseIndex: 0, WeekIndex: 0, DayIndex: 0}

	require.NoError(t, SetTaskCompleted(&doc, ref, true, now))
	require.NoError(t, SetTaskCompleted(&doc, ref, false, now.Add(time.Hour)))

	day := doc.Phases[0].LearningPlan.WeeklySchedule[0].DailyTasks[0]
	require.False(t, day.Completed)
	require.Nil(t, day.CompletedDate)
}

func TestSetTaskCompletedIsIdempotent(t *testing.T) {
	doc := planDocument()
	now := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	ref := TaskRef{PhaseIndex: 0, WeekIndex: 0, DayIndex: 0}

	require.NoError(t, SetTaskCompleted(&doc, ref, true, now))
	first, err := Encode(doc)
	require.NoError(t, err)

	require.NoError(t, SetTaskCompleted(&doc, ref, true, now))
	second, err := Encode(doc)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestSetTaskCompletedRejectsOutOfRange(t *testing.T) {
	cases := map[string]TaskRef{
		"phase":        {PhaseIndex: 9, WeekIndex: 0, DayIndex: 0},
		"negative":     {PhaseIndex: -1, WeekIndex: 0, DayIndex: 0},
		"week":         {PhaseIndex: 0, WeekIndex: 5, DayIndex: 0},
		"day":          {PhaseIndex: 0, WeekIndex: 0, DayIndex: 7},
		"unknown id":   {PhaseID: "missing", WeekIndex: 0, DayIndex: 0},
		"unknown week": {PhaseIndex: 0, WeekID: "missing", DayIndex: 0},
		"unknown day":  {PhaseIndex: 0, WeekIndex: 0, DayID: "missing"},
	}

	for name, ref := range cases {
		t.Run(name, func(t *testing.T) {
			doc := planDocument()
			before, err := Encode(doc)
			require.NoError(t, err)

			require.Error(t, SetTaskCompleted(&doc, ref, true, time.Now()))

			after, err := Encode(doc)
			require.NoError(t, err)
			require.Equal(t, before, after, "failed update must not mutate the document")
		})
	}
}

func TestSetTaskCompletedRequiresPlan(t *testing.T) {
	doc := planDocument()
	ref := TaskRef{PhaseIndex: 1, WeekIndex: 0, DayIndex: 0}

	err := SetTaskCompleted(&doc, ref, true, time.Now())
	require.ErrorIs(t, err, ErrPlanMissing)
}

func TestFindPhasePrefersID(t *testing.T) {
	doc := planDocument()

	// The identifier wins even when the positional index disagrees.
	idx, err := FindPhase(&doc, PhaseRef{PhaseID: doc.Phases[2].ID, PhaseIndex: 0})
	require.NoError(t, err)
	require.Equal(t, 2, idx)
}
