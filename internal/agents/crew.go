package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nieveai/content-crew/internal/logging"
	m "github.com/nieveai/content-crew/internal/models"
)

var (
	ErrNoTasks   = errors.New("crew has no tasks")
	ErrTaskOrder = errors.New("context task has not run yet")
)

// Crew runs its tasks one after the other. The output of every task listed
// in a task's Context is handed to that task's prompt.
type Crew struct {
	Agents []*m.Agent
	Tasks  []*m.Task
	Client m.GenAIClient

	// Temperature overrides the temperature of every agent's model when set.
	Temperature *float64

	// StepCallback is called after each task completes.
	StepCallback func(*m.TaskOutput)

	// resolved is set when the agents and tasks already carry the inputs, so
	// Kickoff must not substitute placeholders a second time.
	resolved bool
}

type stepCallbackKey struct{}

// WithStepCallback returns a context under which every crew also reports
// each finished task to fn. Front-ends use it to show progress of their own
// run while the crew executes on a worker.
func WithStepCallback(ctx context.Context, fn func(*m.TaskOutput)) context.Context {
	return context.WithValue(ctx, stepCallbackKey{}, fn)
}

// ReportStep hands out to the callback registered on ctx, if any.
func ReportStep(ctx context.Context, out *m.TaskOutput) {
	if fn, ok := ctx.Value(stepCallbackKey{}).(func(*m.TaskOutput)); ok && fn != nil {
		fn(out)
	}
}

// StepMessage is the progress line shown once the named task has finished.
func StepMessage(task string) string {
	switch task {
	case ResearchTaskName:
		return "Research done, writing the blog post..."
	case WritingTaskName:
		return "Blog post written, saving..."
	default:
		return "Finished " + task
	}
}

// NewContentCrew wires the research analyst and the content writer for topic.
func NewContentCrew(topic string, client m.GenAIClient, model *m.Model, tools ...m.Tool) *Crew {
	analyst := NewSeniorResearchAnalyst(topic, model, tools...)
	writer := NewContentWriter(model)
	research := NewResearchTask(topic, analyst)
	writing := NewWritingTask(topic, writer, research)
	return &Crew{
		Agents:   []*m.Agent{analyst, writer},
		Tasks:    []*m.Task{research, writing},
		Client:   client,
		resolved: true,
	}
}

// Kickoff runs the tasks in order. The first task's output becomes the
// research brief and the last task's output the blog post. Any failure
// aborts the run and earlier outputs are discarded.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]string) (*m.CrewOutput, error) {
	if len(c.Tasks) == 0 {
		return nil, ErrNoTasks
	}
	if c.Client == nil {
		return nil, errors.New("crew has no model client")
	}

	logger := logging.Logger()
	r := interpolator(inputs)
	if c.resolved {
		r = strings.NewReplacer()
	}
	topic := inputs["topic"]
	outputs := make(map[*m.Task]*m.TaskOutput, len(c.Tasks))
	result := &m.CrewOutput{}

	for i, task := range c.Tasks {
		start := time.Now()
		logger.Info("Task started", slog.String("task", task.Name), slog.String("agent", agentRole(task.Agent)))

		out, sources, err := c.executeTask(ctx, task, outputs, r)
		if err != nil {
			logger.Error("Task failed", slog.String("task", task.Name), slog.String("error", err.Error()))
			return nil, fmt.Errorf("%s task: %w", task.Name, err)
		}
		logger.Info("Task completed",
			slog.String("task", task.Name),
			slog.Duration("elapsed", time.Since(start)),
			slog.Int64("total_tokens", out.Usage.TotalTokens))

		outputs[task] = out
		result.TasksOutput = append(result.TasksOutput, out)
		result.Usage.Add(out.Usage)
		if i == 0 {
			result.Brief = &m.ResearchBrief{Topic: topic, Raw: out.Raw, Sources: sources}
		}
		if c.StepCallback != nil {
			c.StepCallback(out)
		}
		ReportStep(ctx, out)
	}

	result.Raw = result.TasksOutput[len(result.TasksOutput)-1].Raw
	result.Post = m.NewBlogPost(topic, result.Raw)
	return result, nil
}

func (c *Crew) executeTask(ctx context.Context, task *m.Task, outputs map[*m.Task]*m.TaskOutput, r *strings.Replacer) (*m.TaskOutput, []m.Source, error) {
	agent := task.Agent
	if agent == nil {
		return nil, nil, errors.New("task has no agent")
	}
	if agent.Model == nil {
		return nil, nil, fmt.Errorf("agent %q has no model", agent.Role)
	}

	var taskContext []string
	for _, dep := range task.Context {
		prev, ok := outputs[dep]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrTaskOrder, dep.Name)
		}
		taskContext = append(taskContext, prev.Raw)
	}

	description := r.Replace(task.Description)
	query := r.Replace(task.ToolInput)
	if query == "" {
		query = description
	}
	toolResults, sources, err := runTools(ctx, agent, query)
	if err != nil {
		return nil, nil, err
	}

	req := m.GenerateRequest{
		ModelID:      agent.Model.ID,
		SystemPrompt: systemPrompt(agent, r),
		Prompt:       taskPrompt(description, r.Replace(task.ExpectedOutput), toolResults, taskContext),
		Temperature:  c.Temperature,
	}
	if agent.Verbose {
		logging.Logger().Debug("Agent prompt", slog.String("agent", agent.Role), slog.String("prompt", req.Prompt))
	}

	completion, err := c.Client.GenerateContent(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	return &m.TaskOutput{
		Name:        task.Name,
		Agent:       agent.Role,
		Description: description,
		Raw:         strings.TrimSpace(completion.Text),
		Usage:       completion.Usage,
	}, sources, nil
}

// runTools invokes the agent's tools in order. Each tool sees the sources
// collected by the tools before it.
func runTools(ctx context.Context, agent *m.Agent, query string) ([]*m.ToolResult, []m.Source, error) {
	var results []*m.ToolResult
	var sources []m.Source
	for _, tool := range agent.Tools {
		logging.Logger().Info("Using tool", slog.String("agent", agent.Role), slog.String("tool", tool.Name()))
		res, err := tool.Run(ctx, m.ToolInput{Query: query, Sources: sources})
		if err != nil {
			return nil, nil, fmt.Errorf("tool %q: %w", tool.Name(), err)
		}
		results = append(results, res)
		sources = appendSources(sources, res.Sources)
	}
	return results, sources, nil
}

func appendSources(dst, src []m.Source) []m.Source {
	for _, s := range src {
		dup := false
		for _, d := range dst {
			if d.Link == s.Link {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, s)
		}
	}
	return dst
}

func systemPrompt(agent *m.Agent, r *strings.Replacer) string {
	return fmt.Sprintf("You are %s. %s\nYour personal goal is: %s",
		agent.Role, r.Replace(agent.Backstory), r.Replace(agent.Goal))
}

func taskPrompt(description, expected string, toolResults []*m.ToolResult, taskContext []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Task: %s\n\n", description)
	fmt.Fprintf(&b, "This is the expected criteria for your final answer: %s\n", expected)
	b.WriteString("you MUST return the actual complete content as the final answer, not a summary.\n")

	for _, res := range toolResults {
		fmt.Fprintf(&b, "\nResults from the tool \"%s\" for \"%s\":\n%s\n", res.Tool, res.Query, res.Text)
	}
	if len(taskContext) > 0 {
		b.WriteString("\nThis is the context you're working with:\n")
		b.WriteString(strings.Join(taskContext, "\n\n----------\n\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nBegin! This is VERY important to you, give your best Final Answer, your job depends on it!")
	return b.String()
}

func agentRole(a *m.Agent) string {
	if a == nil {
		return ""
	}
	return a.Role
}
