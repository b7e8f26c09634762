// Package progressui renders pipeline progress as an interactive terminal
// progress bar. UI implements ports.ProgressSink.
package progressui

import (
	"context"
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/asciivideo/pkg/ports"
)

// UI drives a bubbletea program from progress events.
type UI struct {
	prog *tea.Program
	once sync.Once
	done chan struct{}
	err  error
}

// New creates a UI writing to out. cancel is invoked on q or ctrl+c.
func New(ctx context.Context, title string, out io.Writer, cancel context.CancelFunc) *UI {
	m := NewModel(title, cancel)
	return &UI{
		prog: tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(out)),
		done: make(chan struct{}),
	}
}

// Start runs the program in the background.
func (u *UI) Start() {
	go func() {
		defer close(u.done)
		_, err := u.prog.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			u.err = err
		}
	}()
}

// Report implements ports.ProgressSink.
func (u *UI) Report(event ports.ProgressEvent) {
	u.prog.Send(eventMsg(event))
}

// Finish shows the final state and waits for the program to exit.
func (u *UI) Finish(err error) error {
	u.once.Do(func() {
		u.prog.Send(doneMsg{err: err})
	})
	<-u.done
	return u.err
}

var _ ports.ProgressSink = (*UI)(nil)
