// Package main provides the CLI entry point for asciivideo.
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"

	"github.com/user/asciivideo/pkg/adapters/aacencoder"
	"github.com/user/asciivideo/pkg/adapters/capabilities"
	"github.com/user/asciivideo/pkg/adapters/chromerecorder"
	"github.com/user/asciivideo/pkg/adapters/codecdetect"
	"github.com/user/asciivideo/pkg/adapters/ffmpegsource"
	"github.com/user/asciivideo/pkg/adapters/filesink"
	"github.com/user/asciivideo/pkg/adapters/ggrenderer"
	"github.com/user/asciivideo/pkg/adapters/h264encoder"
	"github.com/user/asciivideo/pkg/adapters/logger"
	"github.com/user/asciivideo/pkg/adapters/mp4muxer"
	"github.com/user/asciivideo/pkg/adapters/nullsink"
	"github.com/user/asciivideo/pkg/adapters/osfilesystem"
	"github.com/user/asciivideo/pkg/adapters/progressui"
	"github.com/user/asciivideo/pkg/adapters/webmrecorder"
	"github.com/user/asciivideo/pkg/config"
	"github.com/user/asciivideo/pkg/observe"
	"github.com/user/asciivideo/pkg/orchestrator"
	"github.com/user/asciivideo/pkg/ports"
	"github.com/user/asciivideo/pkg/progress"
	"github.com/user/asciivideo/pkg/stages/audio"
	"github.com/user/asciivideo/pkg/stages/convert"
	"github.com/user/asciivideo/pkg/stages/encode"
	"github.com/user/asciivideo/pkg/stages/sample"
	"github.com/user/asciivideo/pkg/summarizer"
)

var version = "dev"

// Flag categories
const (
	catOutput    = "Output"
	catRendering = "Rendering"
	catEncoding  = "Encoding"
	catPlatform  = "Platform"
	catDebug     = "Debug"
	catLogging   = "Logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	d := config.Defaults()

	return &cli.App{
		Name:      "asciivideo",
		Usage:     l10n.T("Convert a video into a character-art video"),
		UsageText: "asciivideo [options] <input>",
		Description: l10n.T("asciivideo samples a video, renders every frame as colored characters " +
			"and encodes the result as MP4, or WebM when no H.264 encoder is available."),
		Version:         version,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},

			// Output
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: d.Output, Category: l10n.T(catOutput),
				Usage: l10n.T("Output file path (extension follows the container)")},
			&cli.StringFlag{Name: "frames-dir", Category: l10n.T(catOutput),
				Usage: l10n.T("Export every rendered frame as PNG into this directory")},
			&cli.StringFlag{Name: "summary", Category: l10n.T(catOutput),
				Usage: l10n.T("Output execution summary to file (Markdown format)")},

			// Rendering
			&cli.Float64Flag{Name: "fps", Aliases: []string{"r"}, Value: d.FPS, Category: l10n.T(catRendering),
				Usage: l10n.T("Frames per second (1-30)")},
			&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Value: d.Width, Category: l10n.T(catRendering),
				Usage: l10n.T("Width in characters (40-240)")},
			&cli.StringFlag{Name: "ramp", Category: l10n.T(catRendering),
				Usage: l10n.T("Glyphs from darkest to background (overrides --ramp-preset)")},
			&cli.StringFlag{Name: "ramp-preset", Value: d.RampPreset, Category: l10n.T(catRendering),
				Usage: l10n.T("Glyph ramp preset (classic, dense, blocks)")},
			&cli.Float64Flag{Name: "noise", Value: math.Round(d.Noise * 100), Category: l10n.T(catRendering),
				Usage: l10n.T("Dither noise in percent (0-100)")},
			&cli.IntFlag{Name: "threshold", Value: d.Threshold, Category: l10n.T(catRendering),
				Usage: l10n.T("Brightness at which pixels become background (0-255)")},
			&cli.Uint64Flag{Name: "seed", Category: l10n.T(catRendering),
				Usage: l10n.T("Dither seed for reproducible output (0 = random)")},
			&cli.Float64Flag{Name: "font-size", Value: d.FontSize, Category: l10n.T(catRendering),
				Usage: l10n.T("Glyph size in pixels")},
			&cli.PathFlag{Name: "font", Category: l10n.T(catRendering),
				Usage: l10n.T("TrueType font file (default: built-in monospace)")},
			&cli.IntFlag{Name: "workers", Category: l10n.T(catRendering),
				Usage: l10n.T("Rasterization workers (default: number of CPUs)")},

			// Encoding
			&cli.BoolFlag{Name: "no-audio", Category: l10n.T(catEncoding),
				Usage: l10n.T("Do not include the audio track")},
			&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Value: d.Quality, Category: l10n.T(catEncoding),
				Usage: l10n.T("Quality preset (low, medium, high)")},
			&cli.IntFlag{Name: "bitrate", Category: l10n.T(catEncoding),
				Usage: l10n.T("Video bitrate in bits per second (overrides quality preset)")},

			// Platform
			&cli.PathFlag{Name: "ffmpeg-path", EnvVars: []string{"FFMPEG_PATH"}, Category: l10n.T(catPlatform),
				Usage: l10n.T("Path to ffmpeg executable")},
			&cli.PathFlag{Name: "chrome-path", EnvVars: []string{"CHROME_PATH"}, Category: l10n.T(catPlatform),
				Usage: l10n.T("Path to Chrome executable")},
			&cli.StringFlag{Name: "recorder", Value: d.Recorder, Category: l10n.T(catPlatform),
				Usage: l10n.T("Fallback recorder (auto, ffmpeg, chrome, none)")},
			&cli.BoolFlag{Name: "force-fallback", Category: l10n.T(catPlatform),
				Usage: l10n.T("Skip the H.264 encoder and record WebM")},

			// Debug
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: l10n.T(catDebug),
				Usage: l10n.T("Enable debug output")},
			&cli.PathFlag{Name: "debug-dir", Value: d.DebugDir, Category: l10n.T(catDebug),
				Usage: l10n.T("Directory for debug output")},

			// Logging
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: d.LogLevel, Category: l10n.T(catLogging),
				Usage: l10n.T("Log level (debug, info, warn, error)")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: l10n.T(catLogging),
				Usage: l10n.T("Suppress all log output")},
			&cli.BoolFlag{Name: "no-tui", Category: l10n.T(catLogging),
				Usage: l10n.T("Log progress lines instead of the interactive progress bar")},
		},
		Action: run,
	}
}

// configFromContext loads the config file and applies flags that were set
// explicitly on top of it.
func configFromContext(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.Path("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("frames-dir") {
		cfg.FramesDir = c.String("frames-dir")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("ramp") {
		cfg.Ramp = c.String("ramp")
	}
	if c.IsSet("ramp-preset") {
		cfg.RampPreset = c.String("ramp-preset")
		if !c.IsSet("ramp") {
			cfg.Ramp = ""
		}
	}
	if c.IsSet("noise") {
		cfg.Noise = c.Float64("noise") / 100
	}
	if c.IsSet("threshold") {
		cfg.Threshold = c.Int("threshold")
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Uint64("seed")
	}
	if c.IsSet("font-size") {
		cfg.FontSize = c.Float64("font-size")
	}
	if c.IsSet("font") {
		cfg.FontPath = c.Path("font")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.Bool("no-audio") {
		cfg.Audio = false
	}
	if c.IsSet("quality") {
		cfg.Quality = c.String("quality")
		if !c.IsSet("bitrate") {
			cfg.Bitrate = 0
		}
	}
	if c.IsSet("bitrate") {
		cfg.Bitrate = c.Int("bitrate")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.Path("ffmpeg-path")
	}
	if c.IsSet("chrome-path") {
		cfg.ChromePath = c.Path("chrome-path")
	}
	if c.IsSet("recorder") {
		cfg.Recorder = c.String("recorder")
	}
	if c.Bool("force-fallback") {
		cfg.ForceFallback = true
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.Path("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New(l10n.T("Exactly one input video is required"))
	}
	input := c.Args().First()

	cfg, err := configFromContext(c)
	if err != nil {
		return err
	}

	quiet := c.Bool("quiet")
	useTUI := !quiet && !c.Bool("no-tui") && isTerminal(os.Stderr)

	level := ports.ParseLogLevel(cfg.LogLevel)
	if useTUI && level < ports.LevelWarn {
		// Info lines would tear the progress bar.
		level = ports.LevelWarn
	}
	var log ports.Logger
	if quiet {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(level)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	caps, info, err := capabilities.Probe(ctx, cfg.CapabilityOptions(log))
	if err != nil {
		return err
	}
	if info.FFmpegPath == "" {
		log.Warn("ffmpeg not found, video decoding will fail")
	}
	log.Debug("Encoders: %v, fallback recorder: %s", info.Encoders, info.Recorder)

	var recorder ports.Recorder
	switch info.Recorder {
	case capabilities.RecorderFFmpeg:
		recorder = webmrecorder.New()
	case capabilities.RecorderChrome:
		recorder = chromerecorder.New(chromerecorder.Options{ChromePath: info.ChromePath, Headless: true})
	}

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	stages := orchestrator.Stages{
		Sample:  sample.NewStage(renderer, sink, log),
		Convert: convert.NewStage(renderer, sink, log, workers),
		Audio:   audio.NewStage(ffmpegsource.NewAudioDecoder(), log),
		Encode: encode.NewStage(caps, encode.Encoders{
			Video:    h264encoder.New(),
			Audio:    aacencoder.New(),
			Muxers:   mp4muxer.NewFactory(),
			Recorder: recorder,
		}, log),
	}

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	var ui *progressui.UI
	var progressSink ports.ProgressSink = progress.NewLogSink(log, 10)
	if useTUI {
		ui = progressui.New(ctx, l10n.F("Converting %s", input), os.Stderr, cancel)
		ui.Start()
		progressSink = ui
	}

	orch := orchestrator.New(
		ffmpegsource.NewOpener(),
		stages,
		renderer,
		fs,
		sink,
		log,
		orchestrator.WithProgress(progressSink),
		orchestrator.WithMetrics(metrics),
	)

	orchConfig := cfg.ToOrchestratorConfig(input)
	result, err := orch.Run(ctx, orchConfig)
	if ui != nil {
		if uiErr := ui.Finish(err); uiErr != nil {
			log.Debug("Progress display failed: %v", uiErr)
		}
	}
	if err != nil {
		return err
	}

	if level == ports.LevelDebug {
		describeOutput(fs, result.OutputPath, log)
	}

	if cfg.Summary != "" {
		s := buildSummary(cfg, result)
		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := w.Write(cfg.Summary, s); err != nil {
			log.Error("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", cfg.Summary)
		}
	}

	if !quiet {
		fmt.Fprintln(os.Stdout, result.OutputPath)
	}
	return nil
}

// describeOutput logs the container and tracks of the written file.
func describeOutput(fs ports.FileSystem, path string, log ports.Logger) {
	data, err := fs.ReadFile(path)
	if err != nil {
		log.Debug("Cannot inspect output: %v", err)
		return
	}
	report, err := codecdetect.Detect(data)
	if err != nil {
		log.Debug("Cannot inspect output: %v", err)
		return
	}
	log.Debug("Output container %s, video %s, audio %s", report.Container, report.Video(), report.Audio())
	for _, t := range report.Tracks {
		log.Debug("Track %d %s %s: %d samples at %d Hz", t.ID, t.Handler, t.Codec, t.Samples, t.Timescale)
	}
}

func buildSummary(cfg config.Config, r orchestrator.RunResult) *summarizer.Summary {
	quality := cfg.Quality
	if cfg.Bitrate > 0 {
		quality = ""
	}

	return summarizer.NewBuilder().
		WithRunID(r.RunID).
		WithSource(summarizer.SourceInfo{
			Path:       r.InputPath,
			Width:      r.Source.Width,
			Height:     r.Source.Height,
			DurationMs: int(r.Source.Duration / time.Millisecond),
			HasAudio:   r.Source.HasAudio,
		}).
		WithSettings(summarizer.Settings{
			FPS:          r.FPS,
			AsciiWidth:   r.AsciiWidth,
			Ramp:         r.Ramp,
			NoiseLevel:   r.NoiseLevel,
			Threshold:    r.Threshold,
			Quality:      quality,
			Bitrate:      r.Bitrate,
			IncludeAudio: cfg.Audio,
		}).
		WithOutput(summarizer.OutputInfo{
			Path:          r.OutputPath,
			Format:        r.Format,
			Codec:         r.Codec,
			Width:         r.Width,
			Height:        r.Height,
			GridWidth:     r.GridWidth,
			GridHeight:    r.GridHeight,
			FrameCount:    r.FrameCount,
			DurationMs:    r.DurationMs,
			FileSize:      r.FileSize,
			AudioIncluded: r.AudioIncluded,
			AudioReason:   r.AudioReason,
		}).
		WithTimings(summarizer.TimingInfo{
			Sample:  r.Timings.Sample,
			Convert: r.Timings.Convert,
			Audio:   r.Timings.Audio,
			Encode:  r.Timings.Encode,
			Total:   r.Elapsed,
		}).
		Build()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
