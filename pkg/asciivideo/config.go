// Package asciivideo provides a high-level API for converting videos to
// character-art videos.
package asciivideo

import (
	"fmt"
	"strings"

	"github.com/user/asciivideo/pkg/ascii"
	"github.com/user/asciivideo/pkg/orchestrator"
)

// Accepted ranges of the user-facing settings.
const (
	MinFPS   = 1
	MaxFPS   = 30
	MinWidth = 40
	MaxWidth = 240
)

// QualityPreset represents a video quality preset name.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// ParseQualityPreset validates a preset name. The empty string selects medium.
func ParseQualityPreset(name string) (QualityPreset, error) {
	switch p := QualityPreset(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return QualityMedium, nil
	case QualityLow, QualityMedium, QualityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("asciivideo: unknown quality preset %q", name)
	}
}

// Bitrate returns the video bitrate in bits per second for the preset.
func (p QualityPreset) Bitrate() int {
	switch p {
	case QualityLow:
		return 2_000_000
	case QualityHigh:
		return 8_000_000
	default: // medium
		return 5_000_000
	}
}

// RampPreset names a built-in glyph ramp.
type RampPreset string

const (
	RampClassic RampPreset = "classic"
	RampDense   RampPreset = "dense"
	RampBlocks  RampPreset = "blocks"
)

var ramps = map[RampPreset]string{
	RampClassic: ascii.DefaultRamp,
	RampDense:   "@%#*+=-:. ",
	RampBlocks:  "█▓▒░ ",
}

// RampFor returns the glyphs of a preset, darkest first.
func RampFor(preset RampPreset) (string, error) {
	r, ok := ramps[RampPreset(strings.ToLower(string(preset)))]
	if !ok {
		return "", fmt.Errorf("asciivideo: unknown ramp preset %q", preset)
	}
	return r, nil
}

// Config represents the configuration for one conversion.
type Config struct {
	// Sampling
	FPS   float64 // Frames per second (1-30)
	Width int     // Character columns (40-240)

	// Rendering
	Ramp           string  // Glyphs from darkest to background, at least 2
	NoiseLevel     float64 // Dither probability (0-1)
	WhiteThreshold int     // Brightness treated as background (0-255)
	Seed           uint64  // Dither seed, 0 for random
	FontSize       float64
	FontPath       string // Optional TTF, empty for the built-in monospace face

	// Encoding
	Quality       QualityPreset
	Bitrate       int // Overrides Quality when positive
	IncludeAudio  bool
	MaxAudioChunk int

	// Export
	FramesDir string
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with default settings.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: defaults(),
	}
}

func defaults() Config {
	return Config{
		FPS:   10,
		Width: 120,

		Ramp:           ascii.DefaultRamp,
		NoiseLevel:     ascii.DefaultNoiseLevel,
		WhiteThreshold: ascii.DefaultWhiteThreshold,
		FontSize:       14,

		Quality:      QualityMedium,
		IncludeAudio: true,
	}
}

// Build returns the final Config with every value clamped to its range.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	cfg.FPS = clampFloat(cfg.FPS, MinFPS, MaxFPS)
	cfg.Width = clampInt(cfg.Width, MinWidth, MaxWidth)
	cfg.NoiseLevel = clampFloat(cfg.NoiseLevel, 0, 1)
	cfg.WhiteThreshold = clampInt(cfg.WhiteThreshold, 0, 255)
	if len([]rune(cfg.Ramp)) < 2 {
		cfg.Ramp = ascii.DefaultRamp
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = 14
	}
	if cfg.Bitrate <= 0 {
		cfg.Bitrate = cfg.Quality.Bitrate()
	}

	return cfg
}

// WithFPS sets the sampling rate.
func (b *ConfigBuilder) WithFPS(fps float64) *ConfigBuilder {
	b.config.FPS = fps
	return b
}

// WithWidth sets the number of character columns.
func (b *ConfigBuilder) WithWidth(width int) *ConfigBuilder {
	b.config.Width = width
	return b
}

// WithRamp sets the glyph ramp, darkest glyph first.
func (b *ConfigBuilder) WithRamp(ramp string) *ConfigBuilder {
	b.config.Ramp = ramp
	return b
}

// WithRampPreset applies a built-in ramp. Unknown names leave the ramp unchanged.
func (b *ConfigBuilder) WithRampPreset(preset RampPreset) *ConfigBuilder {
	if r, err := RampFor(preset); err == nil {
		b.config.Ramp = r
	}
	return b
}

// WithNoiseLevel sets the dither probability (0-1).
func (b *ConfigBuilder) WithNoiseLevel(level float64) *ConfigBuilder {
	b.config.NoiseLevel = level
	return b
}

// WithNoisePercent sets the dither probability as a percentage (0-100).
func (b *ConfigBuilder) WithNoisePercent(percent float64) *ConfigBuilder {
	b.config.NoiseLevel = percent / 100
	return b
}

// WithWhiteThreshold sets the background brightness threshold.
func (b *ConfigBuilder) WithWhiteThreshold(threshold int) *ConfigBuilder {
	b.config.WhiteThreshold = threshold
	return b
}

// WithSeed fixes the dither sequence.
func (b *ConfigBuilder) WithSeed(seed uint64) *ConfigBuilder {
	b.config.Seed = seed
	return b
}

// WithFont sets the glyph size and an optional TTF path.
func (b *ConfigBuilder) WithFont(size float64, path string) *ConfigBuilder {
	b.config.FontSize = size
	b.config.FontPath = path
	return b
}

// WithQualityPreset applies a quality preset and clears any explicit bitrate.
func (b *ConfigBuilder) WithQualityPreset(preset QualityPreset) *ConfigBuilder {
	b.config.Quality = preset
	b.config.Bitrate = 0
	return b
}

// WithBitrate sets the video bitrate in bits per second.
func (b *ConfigBuilder) WithBitrate(bps int) *ConfigBuilder {
	b.config.Bitrate = bps
	return b
}

// WithAudio enables or disables the audio track.
func (b *ConfigBuilder) WithAudio(include bool) *ConfigBuilder {
	b.config.IncludeAudio = include
	return b
}

// WithMaxAudioChunk caps the PCM frames per audio encode call.
func (b *ConfigBuilder) WithMaxAudioChunk(frames int) *ConfigBuilder {
	b.config.MaxAudioChunk = frames
	return b
}

// WithFramesDir exports every raster frame as PNG into dir.
func (b *ConfigBuilder) WithFramesDir(dir string) *ConfigBuilder {
	b.config.FramesDir = dir
	return b
}

// RenderConfig returns the character conversion settings.
func (c Config) RenderConfig() ascii.RenderConfig {
	rc := ascii.DefaultRenderConfig()
	rc.Ramp = []rune(c.Ramp)
	rc.NoiseLevel = c.NoiseLevel
	rc.WhiteThreshold = c.WhiteThreshold
	return rc
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(inputPath, outputPath string) orchestrator.Config {
	return orchestrator.Config{
		InputPath:  inputPath,
		OutputPath: outputPath,

		FPS:        c.FPS,
		AsciiWidth: c.Width,

		Render:   c.RenderConfig(),
		FontSize: c.FontSize,
		FontPath: c.FontPath,
		Seed:     c.Seed,

		IncludeAudio:  c.IncludeAudio,
		Bitrate:       c.Bitrate,
		MaxAudioChunk: c.MaxAudioChunk,

		FramesDir: c.FramesDir,
	}
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
