package mocks

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/user/asciivideo/pkg/ports"
)

// VideoSource is a mock implementation of ports.VideoSource. By default
// FrameAt returns a uniform frame of Color.
type VideoSource struct {
	SourceInfo  ports.SourceInfo
	Color       color.RGBA
	FrameAtFunc func(ctx context.Context, t time.Duration) (image.Image, error)

	mu     sync.Mutex
	Seeks  []time.Duration
	Closed bool
}

func (m *VideoSource) Info() ports.SourceInfo {
	return m.SourceInfo
}

func (m *VideoSource) FrameAt(ctx context.Context, t time.Duration) (image.Image, error) {
	m.mu.Lock()
	m.Seeks = append(m.Seeks, t)
	m.mu.Unlock()
	if m.FrameAtFunc != nil {
		return m.FrameAtFunc(ctx, t)
	}
	img := image.NewRGBA(image.Rect(0, 0, m.SourceInfo.Width, m.SourceInfo.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = m.Color.R
		img.Pix[i+1] = m.Color.G
		img.Pix[i+2] = m.Color.B
		img.Pix[i+3] = 255
	}
	return img, nil
}

func (m *VideoSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

var _ ports.VideoSource = (*VideoSource)(nil)

// SourceOpener is a mock implementation of ports.SourceOpener.
type SourceOpener struct {
	Source  ports.VideoSource
	OpenErr error

	Paths []string
}

func (m *SourceOpener) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	m.Paths = append(m.Paths, path)
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	if m.Source == nil {
		return nil, fmt.Errorf("mock: no source for %s", path)
	}
	return m.Source, nil
}

var _ ports.SourceOpener = (*SourceOpener)(nil)

// AudioDecoder is a mock implementation of ports.AudioDecoder.
type AudioDecoder struct {
	Audio *ports.PCMAudio
	Err   error

	mu    sync.Mutex
	Calls int
}

func (m *AudioDecoder) DecodeAudio(ctx context.Context, path string) (*ports.PCMAudio, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Audio == nil {
		return nil, ports.ErrNoAudioTrack
	}
	return m.Audio, nil
}

var _ ports.AudioDecoder = (*AudioDecoder)(nil)

// SilentAudio returns a stereo track of zero samples lasting d.
func SilentAudio(sampleRate int, d time.Duration) *ports.PCMAudio {
	n := int(int64(sampleRate) * int64(d) / int64(time.Second))
	return &ports.PCMAudio{
		Channels:   2,
		SampleRate: sampleRate,
		Samples:    [][]float32{make([]float32, n), make([]float32, n)},
	}
}
