// Package tui provides a Bubble Tea terminal user interface for apod-downloader.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/apod-downloader/internal/config"
	"github.com/handiism/apod-downloader/internal/download"
	"github.com/handiism/apod-downloader/internal/logging"
	"github.com/handiism/apod-downloader/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	pictureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is how many progress lines stay on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDownloading
	StateComplete
	StateNoDate
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	settings  *config.Settings
	logs      []LogEntry
	result    *download.Result
	err       error

	ctx    context.Context
	cancel context.CancelFunc
	events chan download.ProgressEvent

	// Options
	surprise bool
	verbose  bool

	width  int
	height int
}

// NewModel creates a new TUI model. A nil settings uses the defaults.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "MM DD YYYY (empty for yesterday)"
	ti.Focus()
	ti.CharLimit = 10
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		settings:  settings,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg is sent for each pipeline progress event.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// DoneMsg is sent when the pipeline finishes.
	DoneMsg struct {
		Result *download.Result
		Err    error
	}

	// eventsClosedMsg is sent once the progress channel is drained.
	eventsClosedMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateDownloading {
				m.cancel()
				return m, nil
			}
			return m, tea.Quit

		case "enter":
			if m.state == StateInput {
				return m.start()
			}
			return m, nil

		case "s":
			if m.state == StateInput {
				m.surprise = !m.surprise
			}
			return m, nil

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}
			return m, nil

		case "q":
			if m.state != StateDownloading {
				return m, tea.Quit
			}
			return m, nil

		case "r":
			if m.state == StateComplete || m.state == StateNoDate || m.state == StateError {
				m.reset()
			}
			return m, nil
		}

		if msg.Type == tea.KeyRunes && !dateRunes(msg.Runes) {
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, waitForEvent(m.events))
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			return m, tea.Batch(cmds...)
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}

	case eventsClosedMsg:
		return m, nil

	case DoneMsg:
		m.result = msg.Result
		m.err = msg.Err
		switch {
		case msg.Err == nil:
			m.state = StateComplete
		case errors.Is(msg.Err, model.ErrNoValidDate):
			m.state = StateNoDate
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		default:
			m.state = StateError
		}
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// start parses the input and launches the pipeline.
func (m Model) start() (tea.Model, tea.Cmd) {
	req, err := m.request()
	if err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	m.state = StateDownloading
	m.logs = nil
	m.events = make(chan download.ProgressEvent, 16)

	return m, tea.Batch(m.runPipeline(req), waitForEvent(m.events), m.spinner.Tick)
}

// request builds the pipeline request from the input. An empty input means
// yesterday, or a random date in surprise mode.
func (m Model) request() (download.Request, error) {
	value := strings.TrimSpace(m.textInput.Value())
	if value == "" {
		return download.Request{Surprise: m.surprise}, nil
	}

	t, err := model.ParseTriple(value)
	if err != nil {
		return download.Request{}, err
	}
	return download.Request{Date: &t, Surprise: m.surprise}, nil
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.result = nil
	m.err = nil
	m.events = nil
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// runPipeline runs one download, forwarding progress events to the channel.
func (m Model) runPipeline(req download.Request) tea.Cmd {
	ctx := m.ctx
	events := m.events
	settings := *m.settings

	return func() tea.Msg {
		defer close(events)

		pipeline := download.NewPipeline(&settings, func(event download.ProgressEvent) {
			events <- event
		}, download.WithLogger(logging.Discard()))

		result, err := pipeline.Run(ctx, req)
		return DoneMsg{Result: result, Err: err}
	}
}

// waitForEvent reads the next progress event.
func waitForEvent(events <-chan download.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return eventsClosedMsg{}
		}
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return ProgressMsg{Event: event}
	}
}

// dateRunes reports whether runes may appear in a typed date.
func dateRunes(runes []rune) bool {
	for _, r := range runes {
		if (r < '0' || r > '9') && !strings.ContainsRune(" /-.", r) {
			return false
		}
	}
	return true
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("APOD Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("NASA's Astronomy Picture of the Day"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateNoDate:
		b.WriteString(warningStyle.Render("No valid date selected!"))
		b.WriteString("\n\n")
		b.WriteString(m.renderLogs())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter a date:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	surpriseCheck := "[ ]"
	if m.surprise {
		surpriseCheck = "[×]"
	}
	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[×]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Surprise me (s)\n", surpriseCheck))
	b.WriteString(fmt.Sprintf("  %s Verbose output (v)\n", verboseCheck))
	b.WriteString("\n")

	dir := m.settings.OutputDir
	if dir == "" {
		dir = "current directory"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Save to: %s", dir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Downloading picture..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	if m.result != nil {
		box := boxStyle.Render(fmt.Sprintf(
			"%s\n\n"+
				"Date: %s\n"+
				"Saved: %s\n"+
				"Size: %.2f MB",
			pictureStyle.Render(m.result.Metadata.Title),
			m.result.Date.Display(),
			m.result.Path,
			float64(m.result.Bytes)/1024/1024,
		))
		b.WriteString(box)
		b.WriteString("\n")
	}

	if m.verbose {
		b.WriteString("\n")
		b.WriteString(m.renderLogs())
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: download • s: surprise • v: verbose • esc: quit"
	case StateDownloading:
		return "esc: cancel"
	default:
		return "r: new download • q: quit"
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
