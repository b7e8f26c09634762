// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/asciivideo/pkg/ports"
)

const (
	ansiReset     = "\033[0m"
	ansiComponent = "\033[36m"
)

var levelColors = map[ports.LogLevel]string{
	ports.LevelDebug: "\033[90m",
	ports.LevelWarn:  "\033[33m",
	ports.LevelError: "\033[31m",
}

// ConsoleLogger writes translated messages to the terminal. Debug and info
// lines go to out; warnings and errors go to errOut so that they stay
// visible when stdout is redirected.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	color     bool
	out       io.Writer
	errOut    io.Writer
	mu        *sync.Mutex
}

// NewConsole logs to stdout and stderr, in colour when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	fd := os.Stdout.Fd()
	l := NewWriter(level, os.Stdout, os.Stderr)
	l.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return l
}

// NewWriter creates an uncolored logger writing to out and errOut.
func NewWriter(level ports.LogLevel, out, errOut io.Writer) *ConsoleLogger {
	return &ConsoleLogger{level: level, out: out, errOut: errOut, mu: &sync.Mutex{}}
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) { l.log(ports.LevelDebug, msg, args) }
func (l *ConsoleLogger) Info(msg string, args ...interface{})  { l.log(ports.LevelInfo, msg, args) }
func (l *ConsoleLogger) Warn(msg string, args ...interface{})  { l.log(ports.LevelWarn, msg, args) }
func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.log(ports.LevelError, msg, args) }

// WithComponent returns a logger that tags lines with component, such as
// "sample" or "encode". It shares the parent's writers and lock.
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	c := *l
	c.component = component
	return &c
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args []interface{}) {
	if level < l.level {
		return
	}

	line := l10n.F(msg, args...)
	if l.component != "" {
		tag := "[" + l.component + "]"
		if l.color {
			tag = ansiComponent + tag + ansiReset
		}
		line = tag + " " + line
	}
	if c, ok := levelColors[level]; ok && l.color {
		line = c + line + ansiReset
	}

	w := l.out
	if level >= ports.LevelWarn {
		w = l.errOut
	}
	l.mu.Lock()
	fmt.Fprintln(w, line)
	l.mu.Unlock()
}

var _ ports.Logger = (*ConsoleLogger)(nil)
