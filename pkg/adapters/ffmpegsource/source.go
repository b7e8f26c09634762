package ffmpegsource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/user/asciivideo/pkg/adapters/ffmpegcmd"
	"github.com/user/asciivideo/pkg/ports"
)

// Opener implements ports.SourceOpener.
type Opener struct{}

// NewOpener creates an Opener. Executables are located on each Open.
func NewOpener() *Opener {
	return &Opener{}
}

// Open probes path and returns a seekable source.
func (o *Opener) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	ffmpegPath, err := ffmpegcmd.FindFFmpeg()
	if err != nil {
		return nil, err
	}
	ffprobePath, err := ffmpegcmd.FindFFprobe()
	if err != nil {
		return nil, err
	}

	probe, err := ProbeFile(ctx, ffprobePath, path)
	if err != nil {
		return nil, err
	}

	return &Source{
		ffmpegPath: ffmpegPath,
		path:       path,
		probe:      probe,
	}, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source implements ports.VideoSource with one ffmpeg run per seek.
type Source struct {
	ffmpegPath string
	path       string
	probe      Probe

	mu     sync.Mutex
	closed bool
}

// Info returns the probed stream information.
func (s *Source) Info() ports.SourceInfo {
	return s.probe.SourceInfo
}

// Probe returns the full probe result including codec names.
func (s *Source) Probe() Probe {
	return s.probe
}

// FrameAt decodes the frame displayed at t as RGBA.
func (s *Source) FrameAt(ctx context.Context, t time.Duration) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("ffmpegsource: source closed")
	}

	w, h := s.probe.Width, s.probe.Height
	var out bytes.Buffer
	out.Grow(w * h * 4)

	_, err := ffmpegcmd.Run(ctx, ffmpegcmd.Spec{
		Path: s.ffmpegPath,
		Args: []string{
			"-v", "error",
			"-ss", strconv.FormatFloat(t.Seconds(), 'f', 6, 64),
			"-i", s.path,
			"-an", "-sn",
			"-frames:v", "1",
			"-vf", fmt.Sprintf("scale=%d:%d", w, h),
			"-f", "rawvideo",
			"-pix_fmt", "rgba",
			"pipe:1",
		},
		Stdout: &out,
	})
	if err != nil {
		return nil, err
	}

	if out.Len() < w*h*4 {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrNoFrame, out.Len(), w*h*4)
	}

	img := &image.RGBA{
		Pix:    out.Bytes()[:w*h*4],
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	return img, nil
}

// Close marks the source closed. No process outlives a FrameAt call.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ ports.VideoSource = (*Source)(nil)
