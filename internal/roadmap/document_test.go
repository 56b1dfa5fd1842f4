package roadmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEmptyReturnsEmptyDocument(t *testing.T) {
	doc, err := Decode("")
	require.NoError(t, err)
	require.False(t, doc.HasPhases())
}

func TestDecodeRoundTrip(t *testing.T) {
	doc := planDocument()
	doc.Version = 3

	encoded, err := Encode(doc)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Phases, len(doc.Phases))
	require.Equal(t, doc.Phases[0].ID, decoded.Phases[0].ID)
}

func TestCloneIsDeep(t *testing.T) {
	doc := planDocument()
	clone := doc.Clone()

	clone.Phases[0].Name = "changed"
	clone.Phases[0].Skills[0] = "changed"
	clone.Phases[0].LearningPlan.WeeklySchedule[0].DailyTasks[0].Tasks[0] = "changed"

	require.Equal(t, "Foundations", doc.Phases[0].Name)
	require.Equal(t, "Go", doc.Phases[0].Skills[0])
	require.Equal(t, "t1", doc.Phases[0].LearningPlan.WeeklySchedule[0].DailyTasks[0].Tasks[0])
}

func TestEnsureIDsIsStable(t *testing.T) {
	doc := planDocument()
	phaseID := doc.Phases[0].ID
	weekID := doc.Phases[0].LearningPlan.WeeklySchedule[0].ID

	doc.EnsureIDs()

	require.Equal(t, phaseID, doc.Phases[0].ID)
	require.Equal(t, weekID, doc.Phases[0].LearningPlan.WeeklySchedule[0].ID)
}
