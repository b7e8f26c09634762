// Package nullsink provides a debug sink that discards everything.
package nullsink

import (
	"image"

	"github.com/user/asciivideo/pkg/ports"
)

// Sink is a no-op ports.DebugSink.
type Sink struct{}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false; stages skip debug work entirely.
func (s *Sink) Enabled() bool { return false }

func (s *Sink) SaveSourceFrame(index int, img image.Image) error { return nil }
func (s *Sink) SaveAsciiFrame(index int, text []byte) error     { return nil }
func (s *Sink) SaveRasterFrame(index int, img image.Image) error { return nil }
func (s *Sink) SaveRunJSON(data []byte) error                    { return nil }

var _ ports.DebugSink = (*Sink)(nil)
