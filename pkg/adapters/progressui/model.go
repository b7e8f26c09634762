package progressui

import (
	"context"
	"fmt"
	"strings"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/asciivideo/pkg/ports"
)

// barWidth is the default bar width in cells.
const barWidth = 40

type eventMsg ports.ProgressEvent

type doneMsg struct {
	err error
}

// Model is the bubbletea model for a single conversion.
type Model struct {
	title   string
	bar     bubblesprogress.Model
	styles  Styles
	cancel  context.CancelFunc
	event   ports.ProgressEvent
	started bool
	done    bool
	err     error
}

// NewModel creates a model. cancel is called when the user presses q or
// ctrl+c and may be nil.
func NewModel(title string, cancel context.CancelFunc) Model {
	return Model{
		title:  title,
		bar:    bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(barWidth)),
		styles: defaultStyles(),
		cancel: cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		w := msg.Width - 30
		if w > barWidth {
			w = barWidth
		}
		if w < 10 {
			w = 10
		}
		m.bar.Width = w
	case eventMsg:
		m.started = true
		m.event = ports.ProgressEvent(msg)
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")

	stage := "waiting"
	if m.started {
		stage = string(m.event.Stage)
	}
	b.WriteString(m.styles.Stage.Render(stage))
	b.WriteString(" ")
	b.WriteString(m.bar.ViewAs(float64(m.event.Percent) / 100.0))
	if m.event.Total > 0 {
		b.WriteString(" ")
		b.WriteString(m.styles.Count.Render(fmt.Sprintf("%d/%d", m.event.Current, m.event.Total)))
	}
	b.WriteString("\n")

	switch {
	case m.done && m.err != nil:
		b.WriteString(m.styles.Error.Render("failed: " + m.err.Error()))
		b.WriteString("\n")
	case m.done:
		b.WriteString(m.styles.Success.Render("done"))
		b.WriteString("\n")
	default:
		b.WriteString(m.styles.Faint.Render("press q to cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

// Percent returns the last reported percentage.
func (m Model) Percent() int {
	return m.event.Percent
}

// Err returns the error the model finished with, if any.
func (m Model) Err() error {
	return m.err
}
