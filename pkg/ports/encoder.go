// Package ports defines the collaborator interfaces consumed by the conversion pipeline.
package ports

import (
	"context"
	"errors"
	"image"
)

// ErrUnsupportedConfig is returned by Configure when the encoder cannot
// handle the requested configuration. It selects the fallback path and is
// never shown to the user as a failure.
var ErrUnsupportedConfig = errors.New("ports: encoder configuration not supported")

// EncoderCapabilities describes what the platform offers. It is resolved once
// at startup and passed to the encode stage as configuration.
type EncoderCapabilities struct {
	// VideoEncoder reports a structured per-frame video encoder.
	VideoEncoder bool
	// AudioEncoder reports a structured per-sample audio encoder.
	AudioEncoder bool
	// Muxer reports a container multiplexer.
	Muxer bool
	// Recorder reports a continuous-capture recorder for the fallback path.
	Recorder bool
	// RecorderMimeTypes lists the recorder formats the platform can produce.
	RecorderMimeTypes []string
}

// PrimaryAvailable reports whether the structured encoder+muxer path can run.
func (c EncoderCapabilities) PrimaryAvailable() bool {
	return c.VideoEncoder && c.Muxer
}

// SupportsMimeType reports whether the recorder can produce mimeType.
func (c EncoderCapabilities) SupportsMimeType(mimeType string) bool {
	for _, m := range c.RecorderMimeTypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

// EncodedChunk is one encoded access unit (video) or frame (audio).
type EncodedChunk struct {
	Data        []byte
	TimestampUs int64
	DurationUs  int64
	Key         bool
}

// ChunkHandler receives encoder output. It may be called from a goroutine
// owned by the encoder.
type ChunkHandler func(chunk EncodedChunk)

// VideoEncoderConfig configures a structured video encoder.
type VideoEncoderConfig struct {
	Codec   string // e.g. "avc1.640028"
	Width   int
	Height  int
	Bitrate int // bits per second
	FPS     float64
}

// VideoEncoder encodes frames one at a time with caller-supplied timestamps.
type VideoEncoder interface {
	// Configure prepares the encoder. It returns ErrUnsupportedConfig when
	// the configuration cannot be served.
	Configure(ctx context.Context, cfg VideoEncoderConfig, output ChunkHandler) error

	// Encode submits one frame.
	Encode(img image.Image, timestampUs, durationUs int64, keyFrame bool) error

	// Flush blocks until every submitted frame has been delivered to output.
	Flush() error

	// Close releases the encoder. It is safe to call more than once.
	Close() error
}

// AudioEncoderConfig configures a structured audio encoder.
type AudioEncoderConfig struct {
	Codec      string // e.g. "mp4a.40.2"
	SampleRate int
	Channels   int
	Bitrate    int // bits per second
}

// AudioEncoder encodes interleaved PCM windows.
type AudioEncoder interface {
	// IsConfigSupported probes cfg without allocating encoder resources.
	IsConfigSupported(ctx context.Context, cfg AudioEncoderConfig) (bool, error)

	Configure(ctx context.Context, cfg AudioEncoderConfig, output ChunkHandler) error

	// Encode submits frames*channels interleaved samples starting at timestampUs.
	Encode(interleaved []float32, frames int, timestampUs int64) error

	Flush() error
	Close() error
}

// MuxerVideoTrack declares the video track of a container.
type MuxerVideoTrack struct {
	Codec  string
	Width  int
	Height int
	FPS    float64
}

// MuxerAudioTrack declares the audio track of a container.
type MuxerAudioTrack struct {
	Codec      string
	SampleRate int
	Channels   int
}

// MuxerConfig is fixed at construction; tracks cannot be added later.
type MuxerConfig struct {
	Video MuxerVideoTrack
	Audio *MuxerAudioTrack
}

// Muxer collects encoded chunks into a container.
type Muxer interface {
	AddVideoChunk(chunk EncodedChunk) error
	AddAudioChunk(chunk EncodedChunk) error

	// Finalize returns the complete container bytes.
	Finalize() ([]byte, error)
}

// MuxerFactory constructs muxers once the track layout is known.
type MuxerFactory interface {
	NewMuxer(cfg MuxerConfig) (Muxer, error)
}

// Surface is a drawing target that a Recorder captures continuously.
type Surface interface {
	// Snapshot returns the current contents, or nil before the first draw.
	Snapshot() image.Image
}

// RecorderConfig configures a fallback recorder.
type RecorderConfig struct {
	Width    int
	Height   int
	FPS      float64
	MimeType string
	Bitrate  int
}

// Recorder captures a Surface in real time into a streamed container.
type Recorder interface {
	Start(ctx context.Context, cfg RecorderConfig, surface Surface) error

	// Stop ends the capture and returns the recorded bytes.
	Stop() ([]byte, error)
}
