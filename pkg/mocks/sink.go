package mocks

import (
	"image"
	"sync"

	"github.com/user/asciivideo/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	SourceFrames map[int]image.Image
	AsciiFrames  map[int][]byte
	RasterFrames map[int]image.Image
	RunJSON      []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:      enabled,
		SourceFrames: make(map[int]image.Image),
		AsciiFrames:  make(map[int][]byte),
		RasterFrames: make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveSourceFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceFrames[index] = img
	return nil
}

func (m *DebugSink) SaveAsciiFrame(index int, text []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AsciiFrames[index] = text
	return nil
}

func (m *DebugSink) SaveRasterFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RasterFrames[index] = img
	return nil
}

func (m *DebugSink) SaveRunJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunJSON = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)

// ProgressRecorder collects progress events.
type ProgressRecorder struct {
	mu     sync.Mutex
	events []ports.ProgressEvent
}

func (m *ProgressRecorder) Report(event ports.ProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of the recorded events.
func (m *ProgressRecorder) Events() []ports.ProgressEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ProgressEvent(nil), m.events...)
}

var _ ports.ProgressSink = (*ProgressRecorder)(nil)
