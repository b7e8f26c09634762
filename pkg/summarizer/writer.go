package summarizer

import (
	"fmt"

	"github.com/user/asciivideo/pkg/ports"
)

// Formatter renders a Summary as a document.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc lets a plain function act as a Formatter.
type FormatFunc func(summary *Summary) string

func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// Writer renders summaries and stores them through a ports.FileSystem.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
}

func NewWriter(formatter Formatter, fs ports.FileSystem) *Writer {
	return &Writer{formatter: formatter, fs: fs}
}

// Write renders summary and stores it at path.
func (w *Writer) Write(path string, summary *Summary) error {
	if err := w.fs.WriteFile(path, []byte(w.formatter.Format(summary))); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
