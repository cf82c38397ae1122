package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nieveai/content-crew/internal/agents"
	m "github.com/nieveai/content-crew/internal/models"
)

func press(t *testing.T, mo Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := mo.Update(key)
	return next.(Model), cmd
}

func TestTemperatureAdjustsAndClamps(t *testing.T) {
	mo := New(nil, t.TempDir())
	mo, _ = press(t, mo, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusTemperature, mo.focus)

	mo, _ = press(t, mo, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 0.75, mo.temperature)

	for i := 0; i < 10; i++ {
		mo, _ = press(t, mo, tea.KeyMsg{Type: tea.KeyRight})
	}
	assert.Equal(t, 1.0, mo.temperature)

	for i := 0; i < 30; i++ {
		mo, _ = press(t, mo, tea.KeyMsg{Type: tea.KeyLeft})
	}
	assert.Equal(t, 0.0, mo.temperature)
}

func TestGenerateSendsTopicAndTemperature(t *testing.T) {
	var gotTopic string
	var gotTemp float64
	gen := func(_ context.Context, topic string, temperature float64) (*m.Run, error) {
		gotTopic, gotTemp = topic, temperature
		return &m.Run{ID: "r1", Topic: topic, Status: m.RunCompleted, Content: "# Title\n\nbody"}, nil
	}
	mo := New(gen, t.TempDir())
	mo.topic.SetValue("Edge AI")

	mo, cmd := press(t, mo, tea.KeyMsg{Type: tea.KeyCtrlG})
	require.NotNil(t, cmd)
	assert.True(t, mo.generating)
	assert.Contains(t, mo.View(), "Generating content")

	msg := mo.generateCmd(make(chan string, 2), make(chan struct{}))()
	assert.Equal(t, "Edge AI", gotTopic)
	assert.Equal(t, 0.7, gotTemp)

	next, _ := mo.Update(msg)
	mo = next.(Model)
	assert.False(t, mo.generating)
	require.NotNil(t, mo.run)
	assert.Equal(t, "# Title\n\nbody", mo.run.Content)
	assert.Equal(t, focusResult, mo.focus)
	assert.Contains(t, mo.View(), "Generated Content")
}

func TestGenerateShowsCrewProgress(t *testing.T) {
	gen := func(ctx context.Context, topic string, _ float64) (*m.Run, error) {
		agents.ReportStep(ctx, &m.TaskOutput{Name: agents.ResearchTaskName})
		agents.ReportStep(ctx, &m.TaskOutput{Name: agents.WritingTaskName})
		return &m.Run{ID: "r1", Topic: topic, Status: m.RunCompleted, Content: "# T"}, nil
	}
	mo := New(gen, t.TempDir())
	mo.generating = true

	steps, done := make(chan string, 2), make(chan struct{})
	result := mo.generateCmd(steps, done)()

	msg := waitForStep(steps, done)()
	require.IsType(t, stepMsg{}, msg)
	next, cmd := mo.Update(msg)
	mo = next.(Model)
	assert.Contains(t, mo.View(), "Research done, writing the blog post...")
	require.NotNil(t, cmd)

	msg = cmd()
	require.IsType(t, stepMsg{}, msg)
	next, cmd = mo.Update(msg)
	mo = next.(Model)
	assert.Contains(t, mo.View(), "Blog post written")
	assert.Nil(t, cmd())

	next, _ = mo.Update(result)
	mo = next.(Model)
	assert.Empty(t, mo.progress)
	assert.Contains(t, mo.View(), "Generated Content")
}

func TestGenerateErrorIsShown(t *testing.T) {
	mo := New(nil, t.TempDir())
	mo.generating = true

	next, _ := mo.Update(generatedMsg{err: errors.New("research task: 401 Unauthorized")})
	mo = next.(Model)
	assert.False(t, mo.generating)
	assert.Nil(t, mo.run)
	assert.Contains(t, mo.View(), "An error occurred: research task: 401 Unauthorized")
}

func TestSaveWritesRawPost(t *testing.T) {
	dir := t.TempDir()
	mo := New(nil, dir)
	mo.run = &m.Run{Topic: "Edge AI", Content: "# Edge AI\n\n**raw**"}

	mo, cmd := press(t, mo, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	next, _ := mo.Update(cmd())
	mo = next.(Model)

	path := filepath.Join(dir, "edge_ai_article.md")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Edge AI\n\n**raw**", string(data))
	assert.Equal(t, "Saved "+path, mo.status)
}

func TestCopyUsesClipboard(t *testing.T) {
	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { copyToClipboard = orig })

	mo := New(nil, t.TempDir())
	_, cmd := press(t, mo, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Nil(t, cmd)

	mo.run = &m.Run{Content: "post"}
	mo, cmd = press(t, mo, tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd)
	next, _ := mo.Update(cmd())
	assert.Equal(t, "post", copied)
	assert.Equal(t, "Copied post to clipboard", next.(Model).status)
}

func TestQuitCancelsGeneration(t *testing.T) {
	mo := New(nil, t.TempDir())
	_, cmd := press(t, mo, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Error(t, mo.ctx.Err())
}
