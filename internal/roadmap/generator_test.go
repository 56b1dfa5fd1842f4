package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

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

func phasesJSON(names ...string) string {
	type phase struct {
		Name string `json:"name"`
	}
	phases := make([]phase, 0, len(names))
	for _, name := range names {
		phases = append(phases, phase{Name: name})
	}
	payload, _ := json.Marshal(map[string]interface{}{"phases": phases})
	return string(payload)
}

func TestGenerateRoadmapKeepsWellFormedResponse(t *testing.T) {
	response := `{
	  "phases": [
	    {"name": "Foundations", "duration": "1-2 months", "description": "Basics", "skills": ["Go"], "resources": {"Courses": ["a"], "Books": ["b"], "Projects": ["c"]}},
	    {"name": "Core", "duration": "2-3 months", "description": "Core work", "skills": ["SQL"], "resources": {"Courses": ["a"], "Books": ["b"], "Projects": ["c"]}},
	    {"name": "Advanced", "duration": "2-3 months", "description": "Advanced work", "skills": ["Systems"], "resources": {"Courses": ["a"], "Books": ["b"], "Projects": ["c"]}},
	    {"name": "Career", "duration": "1-2 months", "description": "Job prep", "skills": ["Interviews"], "resources": {"Courses": ["a"], "Books": ["b"], "Projects": ["c"]}}
	  ]
	}`
	provider := &stubProvider{response: response}
	generator := NewGenerator(provider, zerolog.Nop())

	doc, outcome := generator.GenerateRoadmap(context.Background(), "Backend Engineer")

	require.Equal(t, OutcomeProvider, outcome)
	require.Len(t, doc.Phases, PhaseCount)
	require.Equal(t, "Foundations", doc.Phases[0].Name)
	require.Equal(t, 1, provider.calls)
	for _, phase := range doc.Phases {
		require.NotEmpty(t, phase.ID)
	}
}

func TestGenerateRoadmapPadsShortResponse(t *testing.T) {
	provider := &stubProvider{response: phasesJSON("Basics")}
	generator := NewGenerator(provider, zerolog.Nop())

	doc, outcome := generator.GenerateRoadmap(context.Background(), "Data Engineer")

	require.Equal(t, OutcomeRepaired, outcome)
	require.Len(t, doc.Phases, PhaseCount)
	require.Equal(t, "Basics", doc.Phases[0].Name)
	require.Equal(t, "Basics (Extended 2)", doc.Phases[1].Name)
	require.Equal(t, "Basics (Extended 3)", doc.Phases[2].Name)
	require.Equal(t, "Basics (Extended 4)", doc.Phases[3].Name)
}

func TestGenerateRoadmapTruncatesLongResponse(t *testing.T) {
	provider := &stubProvider{response: phasesJSON("P1", "P2", "P3", "P4", "P5", "P6", "P7", "P8", "P9", "P10")}
	generator := NewGenerator(provider, zerolog.Nop())

	doc, outcome := generator.GenerateRoadmap(context.Background(), "SRE")

	require.Equal(t, OutcomeRepaired, outcome)
	require.Len(t, doc.Phases, PhaseCount)
	require.Equal(t, "P1", doc.Phases[0].Name)
	require.Equal(t, "P4", doc.Phases[3].Name)
}

func TestGenerateRoadmapBackfillsMissingFields(t *testing.T) {
	provider := &stubProvider{response: phasesJSON("A", "B", "C", "D")}
	generator := NewGenerator(provider, zerolog.Nop())

	doc, outcome := generator.GenerateRoadmap(context.Background(), "ML Engineer")

	require.Equal(t, OutcomeRepaired, outcome)
	for _, phase := range doc.Phases {
		require.NotEmpty(t, phase.Name)
		require.NotEmpty(t, phase.Duration)
		require.NotEmpty(t, phase.Description)
		require.NotEmpty(t, phase.Skills)
		for _, category := range []string{"Courses", "Books", "Projects"} {
			require.NotEmpty(t, phase.Resources[category], "category %s", category)
		}
	}
}

func TestGenerateRoadmapStripsCodeFence(t *testing.T) {
	provider := &stubProvider{response: "```json\n" + phasesJSON("A", "B", "C", "D") + "\n```"}
	generator := NewGenerator(provider, zerolog.Nop())

	doc, outcome := generator.GenerateRoadmap(context.Background(), "Frontend Engineer")

	require.NotEqual(t, OutcomeFallback, outcome)
	require.Equal(t, "A", doc.Phases[0].Name)
}

func TestGenerateRoadmapFallsBackOnProse(t *testing.T) {
	provider := &stubProvider{response: "Here is your roadmap! First learn the basics, then..."}
	generator := NewGenerator(provider, zerolog.Nop())

	doc, outcome := generator.GenerateRoadmap(context.Background(), "Cloud Architect")

	require.Equal(t, OutcomeFallback, outcome)
	require.Len(t, doc.Phases, PhaseCount)
	require.Equal(t, "Getting Started with Cloud Architect", doc.Phases[0].Name)
	require.Equal(t, "1-3 months", doc.Phases[0].Duration)
	require.Equal(t, "Learn the fundamentals of Cloud Architect", doc.Phases[0].Description)
	require.Equal(t, []string{"Basic skills"}, doc.Phases[0].Skills)
}

func TestGenerateRoadmapFallsBackOnProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("rate limited")}
	generator := NewGenerator(provider, zerolog.Nop())

	doc, outcome := generator.GenerateRoadmap(context.Background(), "Game Developer")

	require.Equal(t, OutcomeFallback, outcome)
	require.Len(t, doc.Phases, PhaseCount)
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"plain":          {`{"a":1}`, `{"a":1}`},
		"json fence":     {"```json\n{\"a\":1}\n```", `{"a":1}`},
		"bare fence":     {"```\n{\"a\":1}\n```", `{"a":1}`},
		"unclosed fence": {"```json\n{\"a\":1}", `{"a":1}`},
		"whitespace":     {"  \n{\"a\":1}\n ", `{"a":1}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, StripCodeFence(tc.in))
		})
	}
}
