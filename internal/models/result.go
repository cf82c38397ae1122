package models

import (
	"regexp"
	"strings"
	"time"
)

type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

func (u *Usage) Add(o Usage) {
	u.PromptTokens += o.PromptTokens
	u.CompletionTokens += o.CompletionTokens
	u.TotalTokens += o.TotalTokens
}

// TaskOutput is the raw text produced by one task.
type TaskOutput struct {
	Name        string `json:"name"`
	Agent       string `json:"agent"`
	Description string `json:"description"`
	Raw         string `json:"raw"`
	Usage       Usage  `json:"usage"`
}

// ResearchBrief is the output of the research stage together with the
// search results the analyst worked from.
type ResearchBrief struct {
	Topic   string   `json:"topic"`
	Raw     string   `json:"raw"`
	Sources []Source `json:"sources,omitempty"`
}

// BlogPost is the markdown produced by the writing stage.
type BlogPost struct {
	Topic string `json:"topic"`
	Title string `json:"title,omitempty"`
	Raw   string `json:"raw"`
}

var h1Re = regexp.MustCompile(`(?m)^#\s+(.+?)\s*#*\s*$`)

// NewBlogPost wraps markdown text, picking the first H1 as the title.
func NewBlogPost(topic, raw string) *BlogPost {
	post := &BlogPost{Topic: topic, Raw: raw}
	if m := h1Re.FindStringSubmatch(raw); m != nil {
		post.Title = strings.TrimSpace(m[1])
	}
	return post
}

// CrewOutput is the result of a crew kickoff. Raw is the output of the last task.
type CrewOutput struct {
	Raw         string         `json:"raw"`
	TasksOutput []*TaskOutput  `json:"tasks_output"`
	Brief       *ResearchBrief `json:"brief,omitempty"`
	Post        *BlogPost      `json:"post,omitempty"`
	Usage       Usage          `json:"usage"`
}

func (o *CrewOutput) String() string {
	return o.Raw
}

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one persisted generation.
type Run struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Temperature float64   `json:"temperature"`
	ModelID     string    `json:"model_id"`
	Status      RunStatus `json:"status"`
	Research    string    `json:"research,omitempty"`
	Content     string    `json:"content,omitempty"`
	Error       string    `json:"error,omitempty"`
	Usage       Usage     `json:"usage"`
	CreatedAt   time.Time `json:"created_at"`
}
