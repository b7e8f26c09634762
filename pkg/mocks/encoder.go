package mocks

import (
	"context"
	"image"
	"sync"

	"github.com/user/asciivideo/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder. By default it
// emits one chunk per submitted frame, synchronously.
type VideoEncoder struct {
	ConfigureFunc func(ctx context.Context, cfg ports.VideoEncoderConfig) error
	EncodeFunc    func(img image.Image, timestampUs, durationUs int64, keyFrame bool) error

	mu sync.Mutex
	// Recorded calls for verification
	Config      ports.VideoEncoderConfig
	EncodeCalls []EncodeCall
	Flushed     bool
	Closed      int

	output ports.ChunkHandler
}

// EncodeCall records a call to Encode.
type EncodeCall struct {
	TimestampUs int64
	DurationUs  int64
	Key         bool
}

func (m *VideoEncoder) Configure(ctx context.Context, cfg ports.VideoEncoderConfig, output ports.ChunkHandler) error {
	m.mu.Lock()
	m.Config = cfg
	m.output = output
	m.mu.Unlock()
	if m.ConfigureFunc != nil {
		return m.ConfigureFunc(ctx, cfg)
	}
	return nil
}

func (m *VideoEncoder) Encode(img image.Image, timestampUs, durationUs int64, keyFrame bool) error {
	if m.EncodeFunc != nil {
		if err := m.EncodeFunc(img, timestampUs, durationUs, keyFrame); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.EncodeCalls = append(m.EncodeCalls, EncodeCall{TimestampUs: timestampUs, DurationUs: durationUs, Key: keyFrame})
	out := m.output
	m.mu.Unlock()
	if out != nil {
		out(ports.EncodedChunk{Data: []byte{0, 0, 0, 1, 0x09}, TimestampUs: timestampUs, DurationUs: durationUs, Key: keyFrame})
	}
	return nil
}

func (m *VideoEncoder) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushed = true
	return nil
}

func (m *VideoEncoder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	return nil
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)

// AudioEncoder is a mock implementation of ports.AudioEncoder. It emits one
// chunk per Encode call.
type AudioEncoder struct {
	Supported     bool
	SupportedErr  error
	ConfigureFunc func(ctx context.Context, cfg ports.AudioEncoderConfig) error
	EncodeFunc    func(interleaved []float32, frames int, timestampUs int64) error

	mu sync.Mutex
	// Recorded calls for verification
	ProbeCalls  int
	Config      ports.AudioEncoderConfig
	EncodeCalls []AudioEncodeCall
	Flushed     bool
	Closed      int

	output ports.ChunkHandler
}

// AudioEncodeCall records a call to AudioEncoder.Encode.
type AudioEncodeCall struct {
	Samples     int
	Frames      int
	TimestampUs int64
}

func (m *AudioEncoder) IsConfigSupported(ctx context.Context, cfg ports.AudioEncoderConfig) (bool, error) {
	m.mu.Lock()
	m.ProbeCalls++
	m.mu.Unlock()
	return m.Supported, m.SupportedErr
}

func (m *AudioEncoder) Configure(ctx context.Context, cfg ports.AudioEncoderConfig, output ports.ChunkHandler) error {
	m.mu.Lock()
	m.Config = cfg
	m.output = output
	m.mu.Unlock()
	if m.ConfigureFunc != nil {
		return m.ConfigureFunc(ctx, cfg)
	}
	return nil
}

func (m *AudioEncoder) Encode(interleaved []float32, frames int, timestampUs int64) error {
	if m.EncodeFunc != nil {
		if err := m.EncodeFunc(interleaved, frames, timestampUs); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.EncodeCalls = append(m.EncodeCalls, AudioEncodeCall{Samples: len(interleaved), Frames: frames, TimestampUs: timestampUs})
	out := m.output
	rate := m.Config.SampleRate
	m.mu.Unlock()
	if out != nil {
		var dur int64
		if rate > 0 {
			dur = int64(frames) * 1_000_000 / int64(rate)
		}
		out(ports.EncodedChunk{Data: []byte{0xFF, 0xF1}, TimestampUs: timestampUs, DurationUs: dur, Key: true})
	}
	return nil
}

func (m *AudioEncoder) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushed = true
	return nil
}

func (m *AudioEncoder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	return nil
}

var _ ports.AudioEncoder = (*AudioEncoder)(nil)

// MuxerFactory is a mock implementation of ports.MuxerFactory.
type MuxerFactory struct {
	NewMuxerFunc func(cfg ports.MuxerConfig) (ports.Muxer, error)

	// Recorded calls for verification
	Configs []ports.MuxerConfig
	Muxers  []*Muxer
	// Events is shared with every created Muxer to observe call order.
	Events *EventLog
}

func (m *MuxerFactory) NewMuxer(cfg ports.MuxerConfig) (ports.Muxer, error) {
	m.Configs = append(m.Configs, cfg)
	if m.Events != nil {
		m.Events.Add("muxer.new")
	}
	if m.NewMuxerFunc != nil {
		return m.NewMuxerFunc(cfg)
	}
	mux := &Muxer{Config: cfg}
	m.Muxers = append(m.Muxers, mux)
	return mux, nil
}

var _ ports.MuxerFactory = (*MuxerFactory)(nil)

// Muxer is a mock implementation of ports.Muxer.
type Muxer struct {
	Config ports.MuxerConfig

	mu          sync.Mutex
	VideoChunks []ports.EncodedChunk
	AudioChunks []ports.EncodedChunk
	Finalized   bool
}

func (m *Muxer) AddVideoChunk(chunk ports.EncodedChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VideoChunks = append(m.VideoChunks, chunk)
	return nil
}

func (m *Muxer) AddAudioChunk(chunk ports.EncodedChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AudioChunks = append(m.AudioChunks, chunk)
	return nil
}

func (m *Muxer) Finalize() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Finalized = true
	// Minimal ftyp box header
	return []byte{0, 0, 0, 8, 'f', 't', 'y', 'p'}, nil
}

var _ ports.Muxer = (*Muxer)(nil)

// Recorder is a mock implementation of ports.Recorder. It snapshots the
// surface once at Stop.
type Recorder struct {
	StartFunc func(ctx context.Context, cfg ports.RecorderConfig, surface ports.Surface) error

	mu        sync.Mutex
	Config    ports.RecorderConfig
	Started   bool
	Stopped   bool
	LastFrame image.Image
	surface   ports.Surface
}

func (m *Recorder) Start(ctx context.Context, cfg ports.RecorderConfig, surface ports.Surface) error {
	if m.StartFunc != nil {
		if err := m.StartFunc(ctx, cfg, surface); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Config = cfg
	m.Started = true
	m.surface = surface
	return nil
}

func (m *Recorder) Stop() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stopped = true
	if m.surface != nil {
		m.LastFrame = m.surface.Snapshot()
	}
	// EBML magic
	return []byte{0x1A, 0x45, 0xDF, 0xA3}, nil
}

var _ ports.Recorder = (*Recorder)(nil)

// EventLog records named events in order.
type EventLog struct {
	mu     sync.Mutex
	events []string
}

// Add appends an event.
func (l *EventLog) Add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, name)
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}
