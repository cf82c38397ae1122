package agents

import (
	"context"
	"sort"
	"strings"

	m "github.com/nieveai/content-crew/internal/models"
	"github.com/nieveai/content-crew/internal/render"
)

// interpolator replaces {key} placeholders with the kickoff inputs.
func interpolator(inputs map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", inputs[k])
	}
	return strings.NewReplacer(pairs...)
}

// CitedURLs returns the links a blog post cites.
func CitedURLs(post string) []string {
	return render.Links(post)
}

// Generator builds a fresh content crew for every topic.
type Generator struct {
	Client m.GenAIClient
	Model  *m.Model
	Tools  []m.Tool

	StepCallback func(*m.TaskOutput)
}

func (g *Generator) Generate(ctx context.Context, topic string, temperature float64) (*m.CrewOutput, error) {
	crew := NewContentCrew(topic, g.Client, g.Model, g.Tools...)
	temperature = m.ClampTemperature(temperature)
	crew.Temperature = &temperature
	crew.StepCallback = g.StepCallback
	return crew.Kickoff(ctx, map[string]string{"topic": topic})
}

func (g *Generator) ModelID() string {
	if g.Model == nil {
		return ""
	}
	return g.Model.ModelID
}
