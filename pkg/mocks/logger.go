package mocks

import (
	"fmt"
	"sync"

	"github.com/user/asciivideo/pkg/ports"
)

// LogEntry is one recorded log call.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string
}

// Logger records formatted messages. Components share the parent's entries.
type Logger struct {
	mu        *sync.Mutex
	entries   *[]LogEntry
	component string
}

// NewLogger creates a recording logger.
func NewLogger() *Logger {
	return &Logger{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (l *Logger) log(level ports.LogLevel, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, LogEntry{
		Level:     level,
		Component: l.component,
		Message:   fmt.Sprintf(msg, args...),
	})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log(ports.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log(ports.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log(ports.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log(ports.LevelError, msg, args...) }

// WithComponent returns a logger tagging entries with component.
func (l *Logger) WithComponent(component string) ports.Logger {
	return &Logger{mu: l.mu, entries: l.entries, component: component}
}

// Entries returns a copy of the recorded entries.
func (l *Logger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), *l.entries...)
}

// Count returns the number of entries at level.
func (l *Logger) Count(level ports.LogLevel) int {
	n := 0
	for _, e := range l.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

var _ ports.Logger = (*Logger)(nil)
