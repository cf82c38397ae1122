package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/nieveai/content-crew/internal/models"
)

type fakeClient struct {
	requests []m.GenerateRequest
	replies  []string
	failAt   int
}

func (f *fakeClient) GenerateContent(_ context.Context, req m.GenerateRequest) (*m.Completion, error) {
	f.requests = append(f.requests, req)
	n := len(f.requests)
	if f.failAt == n {
		return nil, errors.New("error calling OpenAI API: 429 Too Many Requests")
	}
	return &m.Completion{
		Text:  f.replies[n-1],
		Usage: m.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

type fakeTool struct {
	name    string
	inputs  []m.ToolInput
	sources []m.Source
	err     error
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake" }
func (f *fakeTool) Run(_ context.Context, in m.ToolInput) (*m.ToolResult, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &m.ToolResult{Tool: f.name, Query: in.Query, Text: "search says hi", Sources: f.sources}, nil
}

func testModel() *m.Model {
	return &m.Model{ID: "openai:gpt-4o-mini", ModelID: "gpt-4o-mini", APISpec: m.APISpecOpenAI, Temperature: 0.7}
}

func TestNewContentCrewEmbedsTopic(t *testing.T) {
	topics := []string{"Quantum computing in 2025", "50% off: why {discounts} work", "naïve café culture"}
	for _, topic := range topics {
		crew := NewContentCrew(topic, &fakeClient{}, testModel())
		require.Len(t, crew.Tasks, 2)
		require.Len(t, crew.Agents, 2)

		research, writing := crew.Tasks[0], crew.Tasks[1]
		assert.Contains(t, research.Description, topic)
		assert.Contains(t, writing.Description, topic)
		assert.Contains(t, research.Agent.Goal, topic)

		assert.NotSame(t, research.Agent, writing.Agent)
		assert.Equal(t, SeniorResearchAnalystRole, research.Agent.Role)
		assert.Equal(t, ContentWriterRole, writing.Agent.Role)
		assert.Equal(t, []*m.Task{research}, writing.Context)
		assert.False(t, research.Agent.AllowDelegation)
		assert.False(t, writing.Agent.AllowDelegation)
	}
}

func TestKickoffRunsResearchThenWriting(t *testing.T) {
	client := &fakeClient{replies: []string{"## Brief\n- fact [1]", "# Post\n\nBody [Source: https://a.example]"}}
	search := &fakeTool{name: "search", sources: []m.Source{{Title: "A", Link: "https://a.example"}}}
	reader := &fakeTool{name: "reader"}

	crew := NewContentCrew("edge AI", client, testModel(), search, reader)
	temp := 0.3
	crew.Temperature = &temp
	var steps []string
	crew.StepCallback = func(out *m.TaskOutput) { steps = append(steps, out.Name) }

	out, err := crew.Kickoff(t.Context(), map[string]string{"topic": "edge AI"})
	require.NoError(t, err)

	assert.Equal(t, []string{ResearchTaskName, WritingTaskName}, steps)
	assert.Equal(t, "# Post\n\nBody [Source: https://a.example]", out.Raw)
	assert.Equal(t, "Post", out.Post.Title)
	require.Len(t, out.TasksOutput, 2)
	assert.Equal(t, SeniorResearchAnalystRole, out.TasksOutput[0].Agent)
	assert.Equal(t, ContentWriterRole, out.TasksOutput[1].Agent)
	assert.Equal(t, "## Brief\n- fact [1]", out.Brief.Raw)
	assert.Equal(t, []m.Source{{Title: "A", Link: "https://a.example"}}, out.Brief.Sources)
	assert.Equal(t, int64(30), out.Usage.TotalTokens)

	// tools: queried with the topic, the reader sees the search sources
	require.Len(t, search.inputs, 1)
	assert.Equal(t, "edge AI", search.inputs[0].Query)
	require.Len(t, reader.inputs, 1)
	assert.Equal(t, search.sources, reader.inputs[0].Sources)

	require.Len(t, client.requests, 2)
	researchReq, writingReq := client.requests[0], client.requests[1]

	// temperature reaches both calls
	require.NotNil(t, researchReq.Temperature)
	require.NotNil(t, writingReq.Temperature)
	assert.Equal(t, 0.3, *researchReq.Temperature)
	assert.Equal(t, 0.3, *writingReq.Temperature)

	assert.Contains(t, researchReq.SystemPrompt, "You are Senior Research Analyst.")
	assert.Contains(t, researchReq.SystemPrompt, "information on edge AI from reliable web sources")
	assert.Contains(t, researchReq.Prompt, "search says hi")
	assert.NotContains(t, researchReq.Prompt, "context you're working with")

	assert.Contains(t, writingReq.SystemPrompt, "You are Content Writer.")
	assert.Contains(t, writingReq.Prompt, "This is the context you're working with:\n## Brief\n- fact [1]")
	assert.NotContains(t, writingReq.Prompt, "search says hi")
}

func TestKickoffWritingFailureDiscardsResearch(t *testing.T) {
	client := &fakeClient{replies: []string{"brief", ""}, failAt: 2}
	crew := NewContentCrew("x", client, testModel())

	out, err := crew.Kickoff(t.Context(), map[string]string{"topic": "x"})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing task")
	assert.Contains(t, err.Error(), "429 Too Many Requests")
}

func TestKickoffToolFailureAbortsBeforeModelCall(t *testing.T) {
	client := &fakeClient{}
	crew := NewContentCrew("x", client, testModel(), &fakeTool{name: "search", err: errors.New("401 Unauthorized")})

	_, err := crew.Kickoff(t.Context(), map[string]string{"topic": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "research task")
	assert.Contains(t, err.Error(), "401 Unauthorized")
	assert.Empty(t, client.requests)
}

func TestKickoffRejectsOutOfOrderContext(t *testing.T) {
	client := &fakeClient{replies: []string{"a", "b"}}
	crew := NewContentCrew("x", client, testModel())
	crew.Tasks[0], crew.Tasks[1] = crew.Tasks[1], crew.Tasks[0]

	_, err := crew.Kickoff(t.Context(), map[string]string{"topic": "x"})
	assert.ErrorIs(t, err, ErrTaskOrder)
	assert.Empty(t, client.requests)
}

func TestKickoffEmptyTopicPassesThrough(t *testing.T) {
	client := &fakeClient{replies: []string{"brief", "post"}}
	out, err := NewContentCrew("", client, testModel()).Kickoff(t.Context(), map[string]string{"topic": ""})
	require.NoError(t, err)
	assert.Equal(t, "post", out.Raw)
	assert.Contains(t, client.requests[0].Prompt, "Conduct comprehensive research on  including")
}

func TestKickoffInterpolatesInputs(t *testing.T) {
	client := &fakeClient{replies: []string{"ok"}}
	agent := &m.Agent{Role: "Tester", Goal: "test {thing}", Model: testModel()}
	crew := &Crew{
		Agents: []*m.Agent{agent},
		Tasks:  []*m.Task{{Name: "t", Description: "Check {thing} twice", ExpectedOutput: "{thing} report", Agent: agent}},
		Client: client,
	}

	_, err := crew.Kickoff(t.Context(), map[string]string{"thing": "widgets"})
	require.NoError(t, err)
	assert.Contains(t, client.requests[0].Prompt, "Current Task: Check widgets twice")
	assert.Contains(t, client.requests[0].Prompt, "widgets report")
	assert.True(t, strings.HasSuffix(client.requests[0].SystemPrompt, "Your personal goal is: test widgets"))
	assert.Nil(t, client.requests[0].Temperature)
}

func TestKickoffNoTasks(t *testing.T) {
	_, err := (&Crew{Client: &fakeClient{}}).Kickoff(t.Context(), nil)
	assert.ErrorIs(t, err, ErrNoTasks)
}

func TestGeneratorClampsTemperature(t *testing.T) {
	client := &fakeClient{replies: []string{"brief", "# T\nbody"}}
	g := &Generator{Client: client, Model: testModel()}

	out, err := g.Generate(t.Context(), "topic", 4.2)
	require.NoError(t, err)
	assert.Equal(t, "# T\nbody", out.Raw)
	for _, req := range client.requests {
		require.NotNil(t, req.Temperature)
		assert.Equal(t, 1.0, *req.Temperature)
	}
	assert.Equal(t, "gpt-4o-mini", g.ModelID())
}

func TestCitedURLs(t *testing.T) {
	post := "Intro [Source: https://a.example/x].\n\n### References\n- https://b.example\n- https://a.example/x"
	assert.Equal(t, []string{"https://a.example/x", "https://b.example"}, CitedURLs(post))
}

func TestKickoffTopicWithPlaceholderIsInsertedOnce(t *testing.T) {
	topic := "learn {topic} syntax"
	client := &fakeClient{replies: []string{"brief", "post"}}
	search := &fakeTool{name: "search"}

	_, err := NewContentCrew(topic, client, testModel(), search).Kickoff(t.Context(), map[string]string{"topic": topic})
	require.NoError(t, err)

	require.Len(t, search.inputs, 1)
	assert.Equal(t, topic, search.inputs[0].Query)

	require.Len(t, client.requests, 2)
	assert.Contains(t, client.requests[0].Prompt, "Conduct comprehensive research on learn {topic} syntax including")
	assert.Contains(t, client.requests[0].SystemPrompt, "information on learn {topic} syntax from reliable web sources")
	assert.Contains(t, client.requests[1].Prompt, "engaging blog post about learn {topic} syntax that")
	for _, req := range client.requests {
		assert.NotContains(t, req.Prompt, "learn learn")
		assert.NotContains(t, req.SystemPrompt, "learn learn")
	}
}

func TestCitedURLsKeepsParentheses(t *testing.T) {
	post := "Go [Source: https://en.wikipedia.org/wiki/Go_(programming_language)].\n\n" +
		"### References\n- [Go](https://en.wikipedia.org/wiki/Go_(programming_language))\n"
	assert.Equal(t, []string{"https://en.wikipedia.org/wiki/Go_(programming_language)"}, CitedURLs(post))
}

func TestKickoffReportsStepsToContext(t *testing.T) {
	client := &fakeClient{replies: []string{"brief", "post"}}
	var crewSteps, ctxSteps []string
	crew := NewContentCrew("x", client, testModel())
	crew.StepCallback = func(out *m.TaskOutput) { crewSteps = append(crewSteps, out.Name) }

	ctx := WithStepCallback(t.Context(), func(out *m.TaskOutput) { ctxSteps = append(ctxSteps, out.Name) })
	_, err := crew.Kickoff(ctx, map[string]string{"topic": "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{ResearchTaskName, WritingTaskName}, crewSteps)
	assert.Equal(t, crewSteps, ctxSteps)

	// no callback registered
	ReportStep(t.Context(), &m.TaskOutput{Name: ResearchTaskName})

	assert.Equal(t, "Research done, writing the blog post...", StepMessage(ResearchTaskName))
	assert.Equal(t, "Blog post written, saving...", StepMessage(WritingTaskName))
}
