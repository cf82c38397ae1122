// Package tui is the terminal front-end: topic editor, temperature control,
// progress spinner and a rendered view of the generated post.
package tui

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nieveai/content-crew/internal/agents"
	m "github.com/nieveai/content-crew/internal/models"
	"github.com/nieveai/content-crew/internal/render"
)

const temperatureStep = 0.05

// GenerateFunc runs the crew for one topic.
type GenerateFunc func(ctx context.Context, topic string, temperature float64) (*m.Run, error)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	copyToClipboard = clipboard.WriteAll
	writeFile       = os.WriteFile
)

type focus int

const (
	focusTopic focus = iota
	focusTemperature
	focusResult
)

type generatedMsg struct {
	run *m.Run
	err error
}

// stepMsg reports a finished crew task and carries the channels to keep
// listening on.
type stepMsg struct {
	task  string
	steps <-chan string
	done  <-chan struct{}
}

type savedMsg struct {
	path string
	err  error
}

type copiedMsg struct{ err error }

type Model struct {
	generate  GenerateFunc
	outputDir string

	ctx    context.Context
	cancel context.CancelFunc

	topic       textarea.Model
	spinner     spinner.Model
	result      viewport.Model
	temperature float64
	focus       focus
	generating  bool
	width       int

	run      *m.Run
	status   string
	progress string
	err      error
}

func New(generate GenerateFunc, outputDir string) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter the topic"
	ta.SetHeight(4)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		generate:    generate,
		outputDir:   outputDir,
		ctx:         ctx,
		cancel:      cancel,
		topic:       ta,
		spinner:     sp,
		result:      viewport.New(80, 20),
		temperature: m.DefaultTemperature,
		width:       80,
	}
}

func (mo Model) Init() tea.Cmd {
	return textarea.Blink
}

func (mo Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		mo.width = msg.Width
		mo.topic.SetWidth(msg.Width - 2)
		mo.result.Width = msg.Width
		mo.result.Height = max(msg.Height-14, 5)
		mo.refreshResult()
		return mo, nil

	case tea.KeyMsg:
		return mo.handleKey(msg)

	case spinner.TickMsg:
		if !mo.generating {
			return mo, nil
		}
		var cmd tea.Cmd
		mo.spinner, cmd = mo.spinner.Update(msg)
		return mo, cmd

	case stepMsg:
		if !mo.generating {
			return mo, nil
		}
		mo.progress = agents.StepMessage(msg.task)
		return mo, waitForStep(msg.steps, msg.done)

	case generatedMsg:
		mo.generating = false
		mo.progress = ""
		if msg.err != nil {
			mo.err = msg.err
			mo.status = ""
			return mo, nil
		}
		mo.err = nil
		mo.run = msg.run
		mo.status = "Generated Content"
		mo.refreshResult()
		mo.setFocus(focusResult)
		return mo, nil

	case savedMsg:
		if msg.err != nil {
			mo.err = msg.err
		} else {
			mo.status = "Saved " + msg.path
		}
		return mo, nil

	case copiedMsg:
		if msg.err != nil {
			mo.err = msg.err
		} else {
			mo.status = "Copied post to clipboard"
		}
		return mo, nil
	}
	return mo, nil
}

func (mo Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		mo.cancel()
		return mo, tea.Quit
	case "tab":
		mo.setFocus((mo.focus + 1) % 3)
		return mo, nil
	case "ctrl+g":
		if mo.generating {
			return mo, nil
		}
		mo.generating = true
		mo.err = nil
		mo.status = ""
		mo.progress = ""
		steps, done := make(chan string, 2), make(chan struct{})
		return mo, tea.Batch(mo.spinner.Tick, mo.generateCmd(steps, done), waitForStep(steps, done))
	case "ctrl+s":
		if mo.run == nil {
			return mo, nil
		}
		return mo, mo.saveCmd()
	case "ctrl+y":
		if mo.run == nil {
			return mo, nil
		}
		content := mo.run.Content
		return mo, func() tea.Msg { return copiedMsg{err: copyToClipboard(content)} }
	}

	var cmd tea.Cmd
	switch mo.focus {
	case focusTopic:
		mo.topic, cmd = mo.topic.Update(msg)
	case focusTemperature:
		switch msg.String() {
		case "left", "h", "-":
			mo.temperature = stepTemperature(mo.temperature, -temperatureStep)
		case "right", "l", "+":
			mo.temperature = stepTemperature(mo.temperature, temperatureStep)
		}
	case focusResult:
		mo.result, cmd = mo.result.Update(msg)
	}
	return mo, cmd
}

func (mo *Model) setFocus(f focus) {
	mo.focus = f
	if f == focusTopic {
		mo.topic.Focus()
	} else {
		mo.topic.Blur()
	}
}

func (mo *Model) refreshResult() {
	if mo.run == nil {
		return
	}
	mo.result.SetContent(render.Terminal(mo.run.Content, mo.width))
}

// generateCmd runs the crew and forwards finished task names to steps.
// done is closed once the run returns.
func (mo Model) generateCmd(steps chan<- string, done chan<- struct{}) tea.Cmd {
	gen := mo.generate
	topic, temperature := mo.topic.Value(), mo.temperature
	ctx := agents.WithStepCallback(mo.ctx, func(out *m.TaskOutput) {
		select {
		case steps <- out.Name:
		default:
		}
	})
	return func() tea.Msg {
		defer close(done)
		run, err := gen(ctx, topic, temperature)
		return generatedMsg{run: run, err: err}
	}
}

func waitForStep(steps <-chan string, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case task := <-steps:
			return stepMsg{task: task, steps: steps, done: done}
		default:
		}
		select {
		case task := <-steps:
			return stepMsg{task: task, steps: steps, done: done}
		case <-done:
			return nil
		}
	}
}

func (mo Model) saveCmd() tea.Cmd {
	path := filepath.Join(mo.outputDir, render.DeriveFilename(mo.run.Topic))
	content := mo.run.Content
	return func() tea.Msg {
		if err := writeFile(path, []byte(content), 0o644); err != nil {
			return savedMsg{err: fmt.Errorf("failed to save %s: %w", path, err)}
		}
		return savedMsg{path: path}
	}
}

func stepTemperature(t, delta float64) float64 {
	return m.ClampTemperature(math.Round((t+delta)*100) / 100)
}

func (mo Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Content Researcher & Writer"))
	b.WriteString("\nGenerate blog posts about any topic using AI agents.\n\n")

	b.WriteString(mo.label("Enter your topic", focusTopic))
	b.WriteString("\n" + mo.topic.View() + "\n\n")

	b.WriteString(mo.label("Temperature", focusTemperature))
	b.WriteString(fmt.Sprintf(" %s %.2f\n\n", temperatureBar(mo.temperature, 20), mo.temperature))

	switch {
	case mo.generating && mo.progress != "":
		b.WriteString(mo.spinner.View() + " " + mo.progress + "\n")
	case mo.generating:
		b.WriteString(mo.spinner.View() + " Generating content... This may take a moment.\n")
	case mo.err != nil:
		b.WriteString(errorStyle.Render("An error occurred: "+mo.err.Error()) + "\n")
	case mo.status != "":
		b.WriteString(labelStyle.Render(mo.status) + "\n")
	}

	if mo.run != nil {
		b.WriteString(mo.result.View() + "\n")
	}
	b.WriteString(helpStyle.Render("tab focus • ctrl+g generate • ctrl+s save • ctrl+y copy • ←/→ temperature • esc quit"))
	return b.String()
}

func (mo Model) label(text string, f focus) string {
	if mo.focus == f {
		return activeStyle.Render("> " + text)
	}
	return labelStyle.Render("  " + text)
}

func temperatureBar(t float64, width int) string {
	filled := int(math.Round(t * float64(width)))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
