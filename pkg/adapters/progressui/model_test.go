package progressui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/asciivideo/pkg/ports"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return nm, cmd
}

func TestModel_TracksEvents(t *testing.T) {
	m := NewModel("clip.mp4", nil)
	if !strings.Contains(m.View(), "waiting") {
		t.Errorf("expected waiting state, got %q", m.View())
	}

	m, _ = update(t, m, eventMsg(ports.ProgressEvent{Stage: ports.StageExtracting, Current: 5, Total: 20, Percent: 13}))
	if m.Percent() != 13 {
		t.Errorf("expected 13%%, got %d", m.Percent())
	}
	view := m.View()
	if !strings.Contains(view, "extracting") || !strings.Contains(view, "5/20") {
		t.Errorf("view missing stage or count: %q", view)
	}
}

func TestModel_DoneQuits(t *testing.T) {
	m := NewModel("clip.mp4", nil)
	m, cmd := update(t, m, doneMsg{})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "done") {
		t.Errorf("expected done in view, got %q", m.View())
	}
}

func TestModel_DoneWithError(t *testing.T) {
	m := NewModel("clip.mp4", nil)
	m, _ = update(t, m, doneMsg{err: errors.New("encode stage: boom")})
	if !strings.Contains(m.View(), "failed: encode stage: boom") {
		t.Errorf("expected error in view, got %q", m.View())
	}
}

func TestModel_CancelKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewModel("clip.mp4", cancel)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if ctx.Err() == nil {
		t.Error("expected context to be cancelled")
	}
	if !errors.Is(m.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", m.Err())
	}
}

func TestModel_WindowResize(t *testing.T) {
	m := NewModel("clip.mp4", nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 35, Height: 10})
	if m.bar.Width != 10 {
		t.Errorf("expected minimum width 10, got %d", m.bar.Width)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 10})
	if m.bar.Width != barWidth {
		t.Errorf("expected width %d, got %d", barWidth, m.bar.Width)
	}
}
