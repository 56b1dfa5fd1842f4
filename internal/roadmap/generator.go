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

// Outcome reports how a generated structure was produced so callers can
// distinguish genuine provider content from repaired or filler output.
type Outcome string

const (
	// OutcomeProvider means the provider response was used as returned.
	OutcomeProvider Outcome = "provider"
	// OutcomeRepaired means the response parsed but needed structural repair.
	OutcomeRepaired Outcome = "repaired"
	// OutcomeFallback means the response was unusable and a deterministic
	// placeholder was served instead.
	OutcomeFallback Outcome = "fallback"
)

const (
	roadmapMaxTokens = 2000
	planMaxTokens    = 4000

	defaultPhaseDuration = "1-2 months"
)

// requiredResourceCategories must be present on every repaired phase.
var requiredResourceCategories = []string{"Courses", "Books", "Projects"}

// Generator turns a free-text career goal into a normalised roadmap. It
// never fails: unusable provider output is absorbed into a deterministic
// fallback so callers always receive a structurally complete document.
type Generator struct {
	provider ai.Provider
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewGenerator constructs a roadmap generator backed by the given provider.
func NewGenerator(provider ai.Provider, logger zerolog.Logger) *Generator {
	return &Generator{
		provider: provider,
		logger:   logger.With().Str("component", "roadmap_generator").Logger(),
		tracer:   otel.Tracer("github.com/ascenthq/ascent-api/internal/roadmap/generator"),
	}
}

// GenerateRoadmap produces a document with exactly PhaseCount phases for the
// given goal. Exactly one provider call is made; correctness comes from
// post-hoc repair rather than retrying.
func (g *Generator) GenerateRoadmap(parent context.Context, goal string) (Document, Outcome) {
	ctx, span := g.tracer.Start(parent, "roadmap.generate", trace.WithAttributes(
		attribute.String("roadmap.goal", goal),
	))
	defer span.End()

	goal = strings.TrimSpace(goal)
	if goal == "" {
		goal = "Software Developer"
	}

	content, err := g.provider.Complete(ctx, ai.CompletionRequest{
		System:      "You are a technical career mentor. Respond with valid JSON only. Do not include markdown formatting, code blocks, or any explanatory text.",
		Prompt:      roadmapPrompt(goal),
		MaxTokens:   roadmapMaxTokens,
		Temperature: 0.1,
		JSONOnly:    true,
	})
	if err != nil {
		g.logger.Warn().Err(err).Str("goal", goal).Msg("roadmap generation failed, serving fallback")
		span.SetAttributes(attribute.String("roadmap.outcome", string(OutcomeFallback)))
		return fallbackRoadmap(goal), OutcomeFallback
	}

	var parsed Document
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &parsed); err != nil || len(parsed.Phases) == 0 {
		if err != nil {
			g.logger.Warn().Err(err).Str("goal", goal).Msg("roadmap response unparseable, serving fallback")
		} else {
			g.logger.Warn().Str("goal", goal).Msg("roadmap response missing phases, serving fallback")
		}
		span.SetAttributes(attribute.String("roadmap.outcome", string(OutcomeFallback)))
		return fallbackRoadmap(goal), OutcomeFallback
	}

	doc, repaired := repairRoadmap(parsed, goal)
	doc.EnsureIDs()

	outcome := OutcomeProvider
	if repaired {
		outcome = OutcomeRepaired
	}
	span.SetAttributes(attribute.String("roadmap.outcome", string(outcome)))
	return doc, outcome
}

func roadmapPrompt(goal string) string {
	builder := strings.Builder{}
	builder.WriteString("Create a structured learning roadmap for ")
	builder.WriteString(goal)
	builder.WriteString(" in this exact JSON format:\n")
	builder.WriteString(`{
  "phases": [
    {
      "name": "Phase Name",
      "duration": "X-Y months",
      "description": "Brief description",
      "skills": ["skill1", "skill2", "skill3"],
      "resources": {
        "Courses": ["Resource1", "Resource2"],
        "Books": ["Resource3", "Resource4"],
        "Projects": ["Resource5", "Resource6"]
      }
    }
  ]
}`)
	builder.WriteString("\nInclude exactly ")
	builder.WriteString(fmt.Sprint(PhaseCount))
	builder.WriteString(" phases. Return ONLY the JSON without any markdown formatting or code blocks.")
	return builder.String()
}

// StripCodeFence removes a markdown code fence wrapping the payload.
// Providers frequently add one despite being told not to.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[idx+1:]
	} else {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
	}
	if idx := strings.LastIndex(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

// repairRoadmap normalises a parsed document to exactly PhaseCount complete
// phases. It reports whether any repair was required.
func repairRoadmap(doc Document, goal string) (Document, bool) {
	repaired := false

	if len(doc.Phases) > PhaseCount {
		doc.Phases = doc.Phases[:PhaseCount]
		repaired = true
	}
	for len(doc.Phases) < PhaseCount {
		last := clonePhase(doc.Phases[len(doc.Phases)-1])
		last.ID = ""
		last.Name = fmt.Sprintf("%s (Extended %d)", baseName(last.Name), len(doc.Phases)+1)
		last.LearningPlan = nil
		doc.Phases = append(doc.Phases, last)
		repaired = true
	}

	for i := range doc.Phases {
		if repairPhase(&doc.Phases[i], i, goal) {
			repaired = true
		}
	}
	return doc, repaired
}

func repairPhase(phase *Phase, index int, goal string) bool {
	repaired := false

	if strings.TrimSpace(phase.Name) == "" {
		phase.Name = fmt.Sprintf("Phase %d: %s", index+1, goal)
		repaired = true
	}
	if strings.TrimSpace(phase.Duration) == "" {
		phase.Duration = defaultPhaseDuration
		repaired = true
	}
	if strings.TrimSpace(phase.Description) == "" {
		phase.Description = fmt.Sprintf("Build the skills required for %s.", phase.Name)
		repaired = true
	}
	if len(phase.Skills) == 0 {
		phase.Skills = []string{fmt.Sprintf("%s fundamentals", goal)}
		repaired = true
	}
	if phase.Resources == nil {
		phase.Resources = make(map[string][]string, len(requiredResourceCategories))
		repaired = true
	}
	for _, category := range requiredResourceCategories {
		if len(phase.Resources[category]) == 0 {
			phase.Resources[category] = []string{fmt.Sprintf("Recommended %s for %s", strings.ToLower(category), phase.Name)}
			repaired = true
		}
	}
	return repaired
}

func baseName(name string) string {
	if idx := strings.Index(name, " (Extended"); idx >= 0 {
		return name[:idx]
	}
	return name
}

// fallbackRoadmap is the deterministic single-seed roadmap served when the
// provider response is unusable, padded to the required phase count.
func fallbackRoadmap(goal string) Document {
	seed := Phase{
		Name:        fmt.Sprintf("Getting Started with %s", goal),
		Duration:    "1-3 months",
		Description: fmt.Sprintf("Learn the fundamentals of %s", goal),
		Skills:      []string{"Basic skills"},
		Resources: map[string][]string{
			"Courses":  {"Recommended courses"},
			"Books":    {"Recommended books"},
			"Projects": {"Starter projects"},
		},
	}

	doc := Document{Phases: []Phase{seed}}
	doc, _ = repairRoadmap(doc, goal)
	doc.EnsureIDs()
	return doc
}
