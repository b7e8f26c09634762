// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/user/asciivideo/pkg/ascii"
	"github.com/user/asciivideo/pkg/observe"
	"github.com/user/asciivideo/pkg/pipeline"
	"github.com/user/asciivideo/pkg/ports"
	"github.com/user/asciivideo/pkg/progress"
)

// ErrInvalidConfig is returned by Run before any stage executes.
var ErrInvalidConfig = errors.New("orchestrator: invalid config")

// Config contains all configuration for the orchestrator.
type Config struct {
	// Input
	InputPath  string
	OutputPath string // The extension is replaced to match the container

	// Sampling
	FPS        float64
	AsciiWidth int

	// Rendering
	Render   ascii.RenderConfig
	FontSize float64
	FontPath string
	Seed     uint64 // Dither seed; 0 picks a random one

	// Encoding
	IncludeAudio  bool
	Bitrate       int
	MaxAudioChunk int

	// FramesDir receives every raster frame as PNG when set.
	FramesDir string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		OutputPath: "ascii-video.mp4",

		FPS:        10,
		AsciiWidth: 120,

		Render:   ascii.DefaultRenderConfig(),
		FontSize: 14,

		IncludeAudio: true,
		Bitrate:      5_000_000,
	}
}

// Stages groups the pipeline stages run by the orchestrator.
type Stages struct {
	Sample  pipeline.Stage[pipeline.SampleInput, pipeline.SampleResult]
	Convert pipeline.Stage[pipeline.ConvertInput, pipeline.ConvertResult]
	Audio   pipeline.Stage[pipeline.AudioInput, pipeline.AudioResult]
	Encode  pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProgress sets the sink receiving progress events.
func WithProgress(sink ports.ProgressSink) Option {
	return func(o *Orchestrator) {
		o.progress = sink
	}
}

// WithMetrics sets the metric instruments recorded during a run.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithRandom overrides the dither source. Config.Seed is ignored when set.
func WithRandom(rnd ports.RandomSource) Option {
	return func(o *Orchestrator) {
		o.random = rnd
	}
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	opener   ports.SourceOpener
	stages   Stages
	renderer ports.Renderer
	fs       ports.FileSystem
	sink     ports.DebugSink
	logger   ports.Logger
	progress ports.ProgressSink
	metrics  *observe.Metrics
	random   ports.RandomSource
}

// New creates a new Orchestrator.
func New(
	opener ports.SourceOpener,
	stages Stages,
	renderer ports.Renderer,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		opener:   opener,
		stages:   stages,
		renderer: renderer,
		fs:       fs,
		sink:     sink,
		logger:   logger,
		metrics:  observe.Noop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run converts one video end to end and writes the container.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	if err := validate(config); err != nil {
		return RunResult{}, err
	}

	started := time.Now()
	runID := uuid.NewString()
	reporter := progress.NewReporter(o.progress)
	var timings StageTimings

	o.logger.Info("Starting conversion of %s", config.InputPath)
	reporter.Loading()

	src, err := o.opener.Open(ctx, config.InputPath)
	if err != nil {
		o.logger.Error("Failed to open source: %v", err)
		return RunResult{}, fmt.Errorf("load source: %w", err)
	}
	defer src.Close()

	info := src.Info()
	o.logger.Info("Source: %dx%d, %s", info.Width, info.Height, info.Duration)

	// Audio decoding runs beside the sample -> convert chain.
	var (
		sampled   pipeline.SampleResult
		converted pipeline.ConvertResult
		audio     pipeline.AudioResult
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t0 := time.Now()
		res, err := o.stages.Audio.Execute(gctx, pipeline.AudioInput{
			Path:    config.InputPath,
			Include: config.IncludeAudio,
		})
		timings.Audio = time.Since(t0)
		if err != nil {
			return fmt.Errorf("audio stage: %w", err)
		}
		audio = res
		return nil
	})

	g.Go(func() error {
		t0 := time.Now()
		res, err := o.stages.Sample.Execute(gctx, pipeline.SampleInput{
			Source:     src,
			FPS:        config.FPS,
			AsciiWidth: config.AsciiWidth,
			CellWidth:  config.Render.CellWidth,
			CellHeight: config.Render.CellHeight,
			OnProgress: reporter.Extracting,
		})
		timings.Sample = time.Since(t0)
		if err != nil {
			return fmt.Errorf("sample stage: %w", err)
		}
		sampled = res
		o.logger.Info("Sampled %d frames into a %dx%d grid", len(res.Frames), res.GridWidth, res.GridHeight)

		t0 = time.Now()
		conv, err := o.stages.Convert.Execute(gctx, pipeline.ConvertInput{
			Frames:     res.Frames,
			Render:     config.Render,
			Random:     o.dither(config),
			FontSize:   config.FontSize,
			FontPath:   config.FontPath,
			OnProgress: reporter.Converting,
		})
		timings.Convert = time.Since(t0)
		if err != nil {
			return fmt.Errorf("convert stage: %w", err)
		}
		converted = conv
		o.logger.Info("Converted %d frames", len(conv.Frames))
		return nil
	})

	if err := g.Wait(); err != nil {
		o.logger.Error("Conversion failed: %v", err)
		return RunResult{}, err
	}

	o.metrics.FramesSampled.Add(ctx, int64(len(sampled.Frames)))
	o.metrics.FramesConverted.Add(ctx, int64(len(converted.Frames)))
	o.metrics.RecordStage(ctx, "sample", timings.Sample)
	o.metrics.RecordStage(ctx, "convert", timings.Convert)
	o.metrics.RecordStage(ctx, "audio", timings.Audio)

	o.logger.Info("Encoding %d frames at %.1f fps", len(converted.Frames), config.FPS)
	reporter.Encoding(0, len(converted.Frames))

	t0 := time.Now()
	encoded, err := o.stages.Encode.Execute(ctx, pipeline.EncodeInput{
		Frames:        converted.Frames,
		FPS:           config.FPS,
		Bitrate:       config.Bitrate,
		Audio:         audio.Audio,
		MaxAudioChunk: config.MaxAudioChunk,
		OnProgress:    reporter.Encoding,
	})
	timings.Encode = time.Since(t0)
	if err != nil {
		o.logger.Error("Failed to encode video: %v", err)
		return RunResult{}, fmt.Errorf("encode stage: %w", err)
	}
	o.metrics.RecordStage(ctx, "encode", timings.Encode)
	if encoded.Format == pipeline.FormatFallback {
		o.metrics.EncodeFallback.Add(ctx, 1)
	}
	o.logger.Info("Video encoded as %s (%s): %d bytes", encoded.Format, encoded.Codec, len(encoded.Data))

	var audioReason string
	if config.IncludeAudio && !encoded.AudioIncluded {
		audioReason = audio.Reason
		if audioReason == "" {
			audioReason = "not muxed"
		}
		o.metrics.RecordAudioDropped(ctx, audioReason)
	}

	outputPath := OutputPathFor(config.OutputPath, encoded)
	if err := o.fs.WriteFile(outputPath, encoded.Data); err != nil {
		o.logger.Error("Failed to write output: %v", err)
		return RunResult{}, fmt.Errorf("write output: %w", err)
	}
	o.logger.Info("Output saved to %s", outputPath)

	if config.FramesDir != "" {
		if err := o.exportFrames(config.FramesDir, encoded.Frames); err != nil {
			o.logger.Error("Failed to export frames: %v", err)
			return RunResult{}, fmt.Errorf("export frames: %w", err)
		}
		o.logger.Info("Exported %d frames to %s", len(encoded.Frames), config.FramesDir)
	}

	result := RunResult{
		RunID:         runID,
		InputPath:     config.InputPath,
		OutputPath:    outputPath,
		Source:        info,
		FPS:           config.FPS,
		AsciiWidth:    config.AsciiWidth,
		Ramp:          string(config.Render.Ramp),
		NoiseLevel:    config.Render.NoiseLevel,
		Threshold:     config.Render.WhiteThreshold,
		Bitrate:       config.Bitrate,
		FrameCount:    len(encoded.Frames),
		GridWidth:     sampled.GridWidth,
		GridHeight:    sampled.GridHeight,
		Width:         encoded.Width,
		Height:        encoded.Height,
		Format:        encoded.Format,
		Codec:         encoded.Codec,
		AudioIncluded: encoded.AudioIncluded,
		AudioReason:   audioReason,
		DurationMs:    encoded.DurationMs,
		FileSize:      encoded.FileSize,
		Timings:       timings,
		Elapsed:       time.Since(started),
	}

	if o.sink.Enabled() {
		if data, err := sonic.ConfigStd.MarshalIndent(result, "", "  "); err == nil {
			if err := o.sink.SaveRunJSON(data); err != nil {
				o.logger.Warn("Failed to save run metadata: %v", err)
			}
		}
	}

	reporter.Complete()
	o.logger.Info("Conversion completed in %s", result.Elapsed.Round(time.Millisecond))

	return result, nil
}

// OutputPathFor replaces the extension of path with the one matching the
// container produced by the encode stage.
func OutputPathFor(path string, encoded pipeline.EncodeResult) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + encoded.Extension()
}

func (o *Orchestrator) dither(config Config) ports.RandomSource {
	if o.random != nil {
		return o.random
	}
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (o *Orchestrator) exportFrames(dir string, frames []pipeline.RasterFrame) error {
	if o.renderer == nil {
		return errors.New("no renderer configured")
	}
	if err := o.fs.MkdirAll(dir); err != nil {
		return err
	}
	for _, f := range frames {
		data, err := o.renderer.EncodeImage(f.Image, ports.FormatPNG, 0)
		if err != nil {
			return fmt.Errorf("frame %d: %w", f.Index, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", f.Index))
		if err := o.fs.WriteFile(path, data); err != nil {
			return err
		}
	}
	return nil
}

func validate(config Config) error {
	if config.InputPath == "" {
		return fmt.Errorf("%w: input path is empty", ErrInvalidConfig)
	}
	if config.OutputPath == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidConfig)
	}
	if config.FPS <= 0 {
		return fmt.Errorf("%w: fps %.2f", ErrInvalidConfig, config.FPS)
	}
	if config.AsciiWidth <= 0 {
		return fmt.Errorf("%w: width %d", ErrInvalidConfig, config.AsciiWidth)
	}
	if err := config.Render.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// StageTimings holds the wall-clock duration of each stage.
type StageTimings struct {
	Sample  time.Duration `json:"sample"`
	Convert time.Duration `json:"convert"`
	Audio   time.Duration `json:"audio"`
	Encode  time.Duration `json:"encode"`
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	RunID      string           `json:"runId"`
	InputPath  string           `json:"inputPath"`
	OutputPath string           `json:"outputPath"`
	Source     ports.SourceInfo `json:"source"`

	// Settings
	FPS        float64 `json:"fps"`
	AsciiWidth int     `json:"asciiWidth"`
	Ramp       string  `json:"ramp"`
	NoiseLevel float64 `json:"noiseLevel"`
	Threshold  int     `json:"threshold"`
	Bitrate    int     `json:"bitrate"`

	// Output
	FrameCount    int    `json:"frameCount"`
	GridWidth     int    `json:"gridWidth"`
	GridHeight    int    `json:"gridHeight"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	Codec         string `json:"codec"`
	AudioIncluded bool   `json:"audioIncluded"`
	AudioReason   string `json:"audioReason,omitempty"` // Why requested audio is missing
	DurationMs    int    `json:"durationMs"`
	FileSize      int64  `json:"fileSize"`

	Timings StageTimings  `json:"timings"`
	Elapsed time.Duration `json:"elapsed"`
}
