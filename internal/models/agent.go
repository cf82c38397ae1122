package models

import (
	"context"
)

// Agent is a role bound to a model and an optional set of tools.
type Agent struct {
	Role      string `json:"role"`
	Goal      string `json:"goal"`
	Backstory string `json:"backstory"`

	Model *Model `json:"model"`
	Tools []Tool `json:"-"`

	AllowDelegation bool `json:"allow_delegation"`
	Verbose         bool `json:"verbose"`
}

// Task is a unit of work owned by an agent. Context lists the tasks whose
// outputs are handed to this one.
type Task struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	ExpectedOutput string  `json:"expected_output"`
	Agent          *Agent  `json:"-"`
	Context        []*Task `json:"-"`

	// ToolInput is the query handed to the agent's tools. It may contain
	// {placeholders} filled from the kickoff inputs.
	ToolInput string `json:"tool_input,omitempty"`
}

// GenerateRequest is a single prompt sent to a model binding.
type GenerateRequest struct {
	ModelID      string
	SystemPrompt string
	Prompt       string
	Temperature  *float64
}

// Completion is the text returned by a model together with its token usage.
type Completion struct {
	Text  string
	Usage Usage
}

// GenAIClient interface for generative AI clients
type GenAIClient interface {
	GenerateContent(ctx context.Context, req GenerateRequest) (*Completion, error)
}

// Source is a web page surfaced by a tool.
type Source struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}

// ToolInput is what an agent hands to each of its tools. Sources carries
// the results of the tools that already ran for the same task.
type ToolInput struct {
	Query   string
	Sources []Source
}

// ToolResult is the formatted output of one tool invocation.
type ToolResult struct {
	Tool    string   `json:"tool"`
	Query   string   `json:"query"`
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// Tool is an external capability an agent can use while working on a task.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input ToolInput) (*ToolResult, error)
}
