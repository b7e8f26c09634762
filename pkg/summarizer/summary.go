// Package summarizer provides summary generation for conversion results.
package summarizer

import "time"

// Summary contains all data collected during a conversion run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	// Input video
	Source SourceInfo

	// Conversion settings
	Settings Settings

	// Encoded output
	Output OutputInfo

	// Stage timings
	Timings TimingInfo
}

// SourceInfo describes the input video.
type SourceInfo struct {
	Path       string
	Width      int
	Height     int
	DurationMs int
	HasAudio   bool
}

// Settings contains the conversion configuration.
type Settings struct {
	FPS          float64
	AsciiWidth   int
	Ramp         string
	NoiseLevel   float64 // 0..1
	Threshold    int
	Quality      string // Preset name, empty when the bitrate was given directly
	Bitrate      int    // bits per second
	IncludeAudio bool
}

// OutputInfo contains information about the encoded container.
type OutputInfo struct {
	Path          string
	Format        string // "primary" or "fallback"
	Codec         string
	Width         int
	Height        int
	GridWidth     int
	GridHeight    int
	FrameCount    int
	DurationMs    int
	FileSize      int64
	AudioIncluded bool
	AudioReason   string
}

// TimingInfo contains wall-clock stage durations.
type TimingInfo struct {
	Sample  time.Duration
	Convert time.Duration
	Audio   time.Duration
	Encode  time.Duration
	Total   time.Duration
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRunID sets the run identifier.
func (b *Builder) WithRunID(id string) *Builder {
	b.summary.RunID = id
	return b
}

// WithSource sets input video information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithSettings sets conversion settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutput sets encoded output information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// WithTimings sets stage durations.
func (b *Builder) WithTimings(timings TimingInfo) *Builder {
	b.summary.Timings = timings
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
