package summarizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/asciivideo/pkg/mocks"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder(t *testing.T) {
	summary := NewBuilder().
		WithRunID("run-1").
		WithSource(SourceInfo{Path: "in.mp4", Width: 640, Height: 360}).
		WithSettings(Settings{FPS: 15, AsciiWidth: 80}).
		WithOutput(OutputInfo{Format: "fallback", FrameCount: 30}).
		WithTimings(TimingInfo{Total: time.Second}).
		Build()

	if summary.RunID != "run-1" {
		t.Errorf("expected run ID 'run-1', got %q", summary.RunID)
	}
	if summary.Source.Path != "in.mp4" || summary.Source.Width != 640 {
		t.Errorf("unexpected source %+v", summary.Source)
	}
	if summary.Settings.FPS != 15 || summary.Settings.AsciiWidth != 80 {
		t.Errorf("unexpected settings %+v", summary.Settings)
	}
	if summary.Output.Format != "fallback" || summary.Output.FrameCount != 30 {
		t.Errorf("unexpected output %+v", summary.Output)
	}
	if summary.Timings.Total != time.Second {
		t.Errorf("unexpected timings %+v", summary.Timings)
	}
}

func TestFormatFunc(t *testing.T) {
	f := FormatFunc(func(s *Summary) string { return s.RunID })
	if got := f.Format(&Summary{RunID: "abc"}); got != "abc" {
		t.Errorf("expected 'abc', got %q", got)
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(NewMarkdownFormatter(), fs)

	if err := w.Write("reports/summary.md", testSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok := fs.GetFile("reports/summary.md")
	if !ok {
		t.Fatal("summary not written")
	}
	if !strings.HasPrefix(string(data), "# Conversion Summary") {
		t.Errorf("unexpected content:\n%s", data)
	}
}

func TestWriter_Write_Error(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error {
		return errors.New("disk full")
	}
	w := NewWriter(NewMarkdownFormatter(), fs)

	err := w.Write("summary.md", testSummary())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected disk full error, got %v", err)
	}
}
