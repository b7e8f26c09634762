// Package config provides configuration loading and management.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/asciivideo/pkg/adapters/capabilities"
	"github.com/user/asciivideo/pkg/asciivideo"
	"github.com/user/asciivideo/pkg/orchestrator"
	"github.com/user/asciivideo/pkg/ports"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config represents the full configuration for asciivideo.
type Config struct {
	// Output
	Output    string `yaml:"output"`
	FramesDir string `yaml:"frames_dir"`
	Summary   string `yaml:"summary"`

	// Sampling
	FPS   float64 `yaml:"fps"`
	Width int     `yaml:"width"`

	// Rendering
	Ramp       string  `yaml:"ramp"`
	RampPreset string  `yaml:"ramp_preset"`
	Noise      float64 `yaml:"noise"`
	Threshold  int     `yaml:"threshold"`
	Seed       uint64  `yaml:"seed"`
	FontSize   float64 `yaml:"font_size"`
	FontPath   string  `yaml:"font_path"`
	Workers    int     `yaml:"workers"`

	// Encoding
	Audio         bool   `yaml:"audio"`
	Quality       string `yaml:"quality"`
	Bitrate       int    `yaml:"bitrate"`
	MaxAudioChunk int    `yaml:"max_audio_chunk"`

	// Platform
	FFmpegPath    string `yaml:"ffmpeg_path"`
	ChromePath    string `yaml:"chrome_path"`
	Recorder      string `yaml:"recorder"`
	ForceFallback bool   `yaml:"force_fallback"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
	LogLevel string `yaml:"log_level"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Output: "ascii-video.mp4",

		FPS:   10,
		Width: 120,

		RampPreset: string(asciivideo.RampClassic),
		Noise:      0.15,
		Threshold:  240,
		FontSize:   14,

		Audio:   true,
		Quality: string(asciivideo.QualityMedium),

		Recorder: string(capabilities.RecorderAuto),

		DebugDir: "./debug",
		LogLevel: ports.LevelInfo.String(),
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	return Parse(data)
}

// Parse decodes YAML on top of Defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks every value against its accepted range.
func (c Config) Validate() error {
	if c.FPS < asciivideo.MinFPS || c.FPS > asciivideo.MaxFPS {
		return fmt.Errorf("%w: fps %v not in %d..%d", ErrInvalid, c.FPS, asciivideo.MinFPS, asciivideo.MaxFPS)
	}
	if c.Width < asciivideo.MinWidth || c.Width > asciivideo.MaxWidth {
		return fmt.Errorf("%w: width %d not in %d..%d", ErrInvalid, c.Width, asciivideo.MinWidth, asciivideo.MaxWidth)
	}
	if c.Noise < 0 || c.Noise > 1 {
		return fmt.Errorf("%w: noise %v not in 0..1", ErrInvalid, c.Noise)
	}
	if c.Threshold < 0 || c.Threshold > 255 {
		return fmt.Errorf("%w: threshold %d not in 0..255", ErrInvalid, c.Threshold)
	}
	if _, err := c.ramp(); err != nil {
		return err
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("%w: font size %v", ErrInvalid, c.FontSize)
	}
	if c.Bitrate < 0 {
		return fmt.Errorf("%w: bitrate %d", ErrInvalid, c.Bitrate)
	}
	if _, err := asciivideo.ParseQualityPreset(c.Quality); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch capabilities.RecorderBackend(c.Recorder) {
	case "", capabilities.RecorderAuto, capabilities.RecorderFFmpeg, capabilities.RecorderChrome, capabilities.RecorderNone:
	default:
		return fmt.Errorf("%w: recorder %q", ErrInvalid, c.Recorder)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalid)
	}
	return nil
}

// ramp resolves the explicit ramp or the preset. An explicit ramp wins.
func (c Config) ramp() (string, error) {
	if c.Ramp != "" {
		if len([]rune(c.Ramp)) < 2 {
			return "", fmt.Errorf("%w: ramp %q needs at least 2 glyphs", ErrInvalid, c.Ramp)
		}
		return c.Ramp, nil
	}
	preset := c.RampPreset
	if preset == "" {
		preset = string(asciivideo.RampClassic)
	}
	r, err := asciivideo.RampFor(asciivideo.RampPreset(preset))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return r, nil
}

// Builder returns an asciivideo.ConfigBuilder seeded with these settings.
// Call Validate first; invalid values are clamped by the builder.
func (c Config) Builder() *asciivideo.ConfigBuilder {
	quality, _ := asciivideo.ParseQualityPreset(c.Quality)
	ramp, _ := c.ramp()

	b := asciivideo.NewConfigBuilder().
		WithFPS(c.FPS).
		WithWidth(c.Width).
		WithNoiseLevel(c.Noise).
		WithWhiteThreshold(c.Threshold).
		WithSeed(c.Seed).
		WithFont(c.FontSize, c.FontPath).
		WithQualityPreset(quality).
		WithAudio(c.Audio).
		WithMaxAudioChunk(c.MaxAudioChunk).
		WithFramesDir(c.FramesDir)
	if ramp != "" {
		b.WithRamp(ramp)
	}
	if c.Bitrate > 0 {
		b.WithBitrate(c.Bitrate)
	}
	return b
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(inputPath string) orchestrator.Config {
	return c.Builder().Build().ToOrchestratorConfig(inputPath, c.Output)
}

// CapabilityOptions returns the platform probe options.
func (c Config) CapabilityOptions(logger ports.Logger) capabilities.Options {
	return capabilities.Options{
		FFmpegPath:      c.FFmpegPath,
		ChromePath:      c.ChromePath,
		Recorder:        capabilities.RecorderBackend(c.Recorder),
		ForcePrimaryOff: c.ForceFallback,
		Logger:          logger,
	}
}
