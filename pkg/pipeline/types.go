package pipeline

import (
	"image"
	"time"

	"github.com/user/asciivideo/pkg/ascii"
	"github.com/user/asciivideo/pkg/ports"
)

// =============================================================================
// Sample Stage Types
// =============================================================================

// SampleInput contains parameters for frame sampling.
type SampleInput struct {
	Source     ports.VideoSource
	FPS        float64 // Sampling rate (default: 10)
	AsciiWidth int     // Character columns (default: 120)
	CellWidth  int     // Glyph cell width in pixels (default: 10)
	CellHeight int     // Glyph cell height in pixels (default: 18)
	OnProgress ProgressFunc
}

// DefaultSampleInput returns SampleInput with default values.
func DefaultSampleInput() SampleInput {
	return SampleInput{
		FPS:        10,
		AsciiWidth: 120,
		CellWidth:  ascii.DefaultCellWidth,
		CellHeight: ascii.DefaultCellHeight,
	}
}

// SampleResult contains the down-sampled frames in timestamp order.
type SampleResult struct {
	Frames     []SampledFrame
	GridWidth  int
	GridHeight int
	Source     ports.SourceInfo
}

// SampledFrame is one source frame reduced to the character grid.
type SampledFrame struct {
	Index     int
	Timestamp time.Duration
	Grid      ascii.Grid
}

// =============================================================================
// Convert Stage Types
// =============================================================================

// ConvertInput contains parameters for character conversion and rasterization.
type ConvertInput struct {
	Frames     []SampledFrame
	Render     ascii.RenderConfig
	Random     ports.RandomSource // nil disables dithering
	FontSize   float64            // Glyph size in pixels (default: 14)
	FontPath   string             // Optional TTF; empty uses the built-in monospace face
	OnProgress ProgressFunc
}

// DefaultConvertInput returns ConvertInput with default values.
func DefaultConvertInput() ConvertInput {
	return ConvertInput{
		Render:   ascii.DefaultRenderConfig(),
		FontSize: 14,
	}
}

// ConvertResult contains character frames and their raster images, in order.
type ConvertResult struct {
	Ascii  []ascii.Frame
	Frames []RasterFrame
}

// RasterFrame is a rendered character frame, the unit handed to the encoder.
type RasterFrame struct {
	Index     int
	Timestamp time.Duration
	Image     image.Image
}

// =============================================================================
// Audio Stage Types
// =============================================================================

// AudioInput contains parameters for audio extraction.
type AudioInput struct {
	Path    string
	Include bool // When false the decoder is never called
}

// AudioResult carries the decoded track, or nil when the source has none or
// decoding failed.
type AudioResult struct {
	Audio *ports.PCMAudio
	// Reason explains a missing track when Include was set.
	Reason string
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// Format tags of an EncodeResult.
const (
	FormatPrimary  = "primary"
	FormatFallback = "fallback"
)

// EncodeInput contains parameters for video encoding.
type EncodeInput struct {
	Frames  []RasterFrame
	FPS     float64
	Bitrate int             // Video bits per second (default: 5_000_000)
	Audio   *ports.PCMAudio // Optional
	// MaxAudioChunk caps the PCM frames per audio encode call
	// (default: sampleRate/10).
	MaxAudioChunk int
	OnProgress    ProgressFunc
}

// DefaultEncodeInput returns EncodeInput with default values.
func DefaultEncodeInput() EncodeInput {
	return EncodeInput{
		FPS:     10,
		Bitrate: 5_000_000,
	}
}

// EncodeResult contains the encoded container.
type EncodeResult struct {
	Data          []byte
	Frames        []RasterFrame
	Width         int
	Height        int
	FPS           float64
	Format        string // FormatPrimary or FormatFallback
	Codec         string // Video codec string or recorder MIME type
	AudioIncluded bool
	DurationMs    int
	FileSize      int64
}

// Extension returns the file extension matching the container format.
func (r EncodeResult) Extension() string {
	if r.Format == FormatFallback {
		return ".webm"
	}
	return ".mp4"
}
