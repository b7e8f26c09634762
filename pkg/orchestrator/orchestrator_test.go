package orchestrator

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/user/asciivideo/pkg/adapters/logger"
	"github.com/user/asciivideo/pkg/mocks"
	"github.com/user/asciivideo/pkg/pipeline"
	"github.com/user/asciivideo/pkg/ports"
	"github.com/user/asciivideo/pkg/stages/audio"
	"github.com/user/asciivideo/pkg/stages/convert"
	"github.com/user/asciivideo/pkg/stages/encode"
	"github.com/user/asciivideo/pkg/stages/sample"
)

func greySource(d time.Duration) *mocks.VideoSource {
	return &mocks.VideoSource{
		SourceInfo: ports.SourceInfo{Width: 10, Height: 10, Duration: d},
		Color:      color.RGBA{R: 128, G: 128, B: 128, A: 255},
	}
}

// fakeStages returns stages producing n frames without touching any adapter.
func fakeStages(n int) Stages {
	return Stages{
		Sample: pipeline.StageFunc[pipeline.SampleInput, pipeline.SampleResult](
			func(ctx context.Context, in pipeline.SampleInput) (pipeline.SampleResult, error) {
				if err := ctx.Err(); err != nil {
					return pipeline.SampleResult{}, err
				}
				res := pipeline.SampleResult{GridWidth: 4, GridHeight: 2, Source: in.Source.Info()}
				for i := 0; i < n; i++ {
					res.Frames = append(res.Frames, pipeline.SampledFrame{Index: i})
					in.OnProgress(i+1, n)
				}
				return res, nil
			}),
		Convert: pipeline.StageFunc[pipeline.ConvertInput, pipeline.ConvertResult](
			func(ctx context.Context, in pipeline.ConvertInput) (pipeline.ConvertResult, error) {
				res := pipeline.ConvertResult{}
				for i, f := range in.Frames {
					res.Frames = append(res.Frames, pipeline.RasterFrame{
						Index:     f.Index,
						Timestamp: time.Duration(i) * 100 * time.Millisecond,
						Image:     image.NewRGBA(image.Rect(0, 0, 40, 36)),
					})
					in.OnProgress(i+1, len(in.Frames))
				}
				return res, nil
			}),
		Audio: pipeline.StageFunc[pipeline.AudioInput, pipeline.AudioResult](
			func(ctx context.Context, in pipeline.AudioInput) (pipeline.AudioResult, error) {
				return pipeline.AudioResult{Reason: "no audio track"}, nil
			}),
		Encode: pipeline.StageFunc[pipeline.EncodeInput, pipeline.EncodeResult](
			func(ctx context.Context, in pipeline.EncodeInput) (pipeline.EncodeResult, error) {
				for i := range in.Frames {
					in.OnProgress(i+1, len(in.Frames))
				}
				return pipeline.EncodeResult{
					Data:     []byte("container"),
					Frames:   in.Frames,
					Width:    40,
					Height:   36,
					Format:   pipeline.FormatPrimary,
					Codec:    encode.VideoCodec,
					FileSize: 9,
				}, nil
			}),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InputPath = "in.mov"
	cfg.OutputPath = "out/result.mp4"
	cfg.Seed = 42
	return cfg
}

func TestOrchestrator_Run(t *testing.T) {
	src := greySource(2 * time.Second)
	opener := &mocks.SourceOpener{Source: src}
	renderer := &mocks.Renderer{}
	sink := mocks.NewDebugSink(false)
	log := logger.NewNoop()

	stages := Stages{
		Sample:  sample.NewStage(renderer, sink, log),
		Convert: convert.NewStage(renderer, sink, log, 2),
		Audio:   audio.NewStage(&mocks.AudioDecoder{}, log),
		Encode: encode.NewStage(
			ports.EncoderCapabilities{VideoEncoder: true, AudioEncoder: true, Muxer: true},
			encode.Encoders{
				Video:  &mocks.VideoEncoder{},
				Audio:  &mocks.AudioEncoder{Supported: true},
				Muxers: &mocks.MuxerFactory{},
			},
			log,
		),
	}

	fs := mocks.NewFileSystem()
	events := &mocks.ProgressRecorder{}
	orch := New(opener, stages, renderer, fs, sink, log, WithProgress(events))

	result, err := orch.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FrameCount != 20 {
		t.Errorf("expected 20 frames, got %d", result.FrameCount)
	}
	if result.GridWidth != 120 || result.GridHeight != 66 {
		t.Errorf("unexpected grid %dx%d", result.GridWidth, result.GridHeight)
	}
	if result.Format != pipeline.FormatPrimary || result.OutputPath != "out/result.mp4" {
		t.Errorf("unexpected output %s at %s", result.Format, result.OutputPath)
	}
	if result.AudioIncluded || result.AudioReason != "no audio track" {
		t.Errorf("expected video-only output, got included=%v reason=%q", result.AudioIncluded, result.AudioReason)
	}
	if result.RunID == "" {
		t.Error("expected a run ID")
	}

	if _, ok := fs.GetFile("out/result.mp4"); !ok {
		t.Error("output file not written")
	}
	if !src.Closed {
		t.Error("source not closed")
	}

	got := events.Events()
	if len(got) == 0 {
		t.Fatal("no progress events")
	}
	if got[0].Stage != ports.StageLoading || got[0].Percent != 0 {
		t.Errorf("first event = %+v", got[0])
	}
	last := got[len(got)-1]
	if last.Stage != ports.StageComplete || last.Percent != 100 {
		t.Errorf("last event = %+v", last)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Percent < got[i-1].Percent {
			t.Fatalf("percent decreased at %d: %d -> %d", i, got[i-1].Percent, got[i].Percent)
		}
	}
}

func TestOrchestrator_Run_FallbackExtension(t *testing.T) {
	stages := fakeStages(3)
	stages.Encode = pipeline.StageFunc[pipeline.EncodeInput, pipeline.EncodeResult](
		func(ctx context.Context, in pipeline.EncodeInput) (pipeline.EncodeResult, error) {
			return pipeline.EncodeResult{
				Data:   []byte{0x1A, 0x45, 0xDF, 0xA3},
				Frames: in.Frames,
				Format: pipeline.FormatFallback,
				Codec:  "video/webm;codecs=vp9",
			}, nil
		})

	fs := mocks.NewFileSystem()
	orch := New(&mocks.SourceOpener{Source: greySource(time.Second)}, stages, &mocks.Renderer{},
		fs, mocks.NewDebugSink(false), logger.NewNoop())

	result, err := orch.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OutputPath != "out/result.webm" {
		t.Errorf("expected .webm output, got %s", result.OutputPath)
	}
	if _, ok := fs.GetFile("out/result.webm"); !ok {
		t.Error("webm file not written")
	}
	if _, ok := fs.GetFile("out/result.mp4"); ok {
		t.Error("mp4 file should not be written")
	}
}

func TestOrchestrator_Run_StageErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		modify func(s *Stages, o *mocks.SourceOpener)
		prefix string
	}{
		{
			name: "open",
			modify: func(s *Stages, o *mocks.SourceOpener) {
				o.OpenErr = boom
			},
			prefix: "load source:",
		},
		{
			name: "sample",
			modify: func(s *Stages, o *mocks.SourceOpener) {
				s.Sample = pipeline.StageFunc[pipeline.SampleInput, pipeline.SampleResult](
					func(context.Context, pipeline.SampleInput) (pipeline.SampleResult, error) {
						return pipeline.SampleResult{}, boom
					})
			},
			prefix: "sample stage:",
		},
		{
			name: "convert",
			modify: func(s *Stages, o *mocks.SourceOpener) {
				s.Convert = pipeline.StageFunc[pipeline.ConvertInput, pipeline.ConvertResult](
					func(context.Context, pipeline.ConvertInput) (pipeline.ConvertResult, error) {
						return pipeline.ConvertResult{}, boom
					})
			},
			prefix: "convert stage:",
		},
		{
			name: "encode",
			modify: func(s *Stages, o *mocks.SourceOpener) {
				s.Encode = pipeline.StageFunc[pipeline.EncodeInput, pipeline.EncodeResult](
					func(context.Context, pipeline.EncodeInput) (pipeline.EncodeResult, error) {
						return pipeline.EncodeResult{}, boom
					})
			},
			prefix: "encode stage:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages := fakeStages(3)
			opener := &mocks.SourceOpener{Source: greySource(time.Second)}
			tt.modify(&stages, opener)

			fs := mocks.NewFileSystem()
			events := &mocks.ProgressRecorder{}
			orch := New(opener, stages, &mocks.Renderer{}, fs, mocks.NewDebugSink(false),
				logger.NewNoop(), WithProgress(events))

			_, err := orch.Run(context.Background(), testConfig())
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
			if !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, err.Error())
			}
			if paths := fs.Paths(); len(paths) != 0 {
				t.Errorf("no file should be written on failure, got %v", paths)
			}
			for _, e := range events.Events() {
				if e.Stage == ports.StageComplete {
					t.Error("complete must not be reported on failure")
				}
			}
		})
	}
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := New(&mocks.SourceOpener{Source: greySource(time.Second)}, fakeStages(3), &mocks.Renderer{},
		mocks.NewFileSystem(), mocks.NewDebugSink(false), logger.NewNoop())

	_, err := orch.Run(ctx, testConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOrchestrator_Run_FramesDirAndDebug(t *testing.T) {
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			if format != ports.FormatPNG {
				t.Errorf("expected PNG, got %v", format)
			}
			return []byte("png"), nil
		},
	}
	fs := mocks.NewFileSystem()
	sink := mocks.NewDebugSink(true)

	cfg := testConfig()
	cfg.FramesDir = "frames"

	orch := New(&mocks.SourceOpener{Source: greySource(time.Second)}, fakeStages(3), renderer,
		fs, sink, logger.NewNoop())

	result, err := orch.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"frames/frame-0000.png", "frames/frame-0001.png", "frames/frame-0002.png"} {
		if _, ok := fs.GetFile(name); !ok {
			t.Errorf("missing %s", name)
		}
	}
	if !fs.HasDir("frames") {
		t.Error("frames dir not created")
	}

	if len(sink.RunJSON) == 0 {
		t.Fatal("run JSON not saved")
	}
	var decoded map[string]interface{}
	if err := sonic.Unmarshal(sink.RunJSON, &decoded); err != nil {
		t.Fatalf("invalid run JSON: %v", err)
	}
	if decoded["runId"] != result.RunID || decoded["format"] != pipeline.FormatPrimary {
		t.Errorf("unexpected run JSON %s", sink.RunJSON)
	}
}

func TestOrchestrator_Run_AudioSkippedWhenNotRequested(t *testing.T) {
	decoder := &mocks.AudioDecoder{Audio: mocks.SilentAudio(48000, time.Second)}
	stages := fakeStages(2)
	stages.Audio = audio.NewStage(decoder, logger.NewNoop())

	var gotAudio *ports.PCMAudio
	encodeStage := stages.Encode
	stages.Encode = pipeline.StageFunc[pipeline.EncodeInput, pipeline.EncodeResult](
		func(ctx context.Context, in pipeline.EncodeInput) (pipeline.EncodeResult, error) {
			gotAudio = in.Audio
			return encodeStage.Execute(ctx, in)
		})

	cfg := testConfig()
	cfg.IncludeAudio = false

	orch := New(&mocks.SourceOpener{Source: greySource(time.Second)}, stages, &mocks.Renderer{},
		mocks.NewFileSystem(), mocks.NewDebugSink(false), logger.NewNoop())

	result, err := orch.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoder.Calls != 0 {
		t.Errorf("decoder called %d times", decoder.Calls)
	}
	if gotAudio != nil || result.AudioReason != "" {
		t.Errorf("expected no audio, got %v reason=%q", gotAudio, result.AudioReason)
	}
}

func TestOrchestrator_Run_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"no input", func(c *Config) { c.InputPath = "" }},
		{"no output", func(c *Config) { c.OutputPath = "" }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"zero width", func(c *Config) { c.AsciiWidth = 0 }},
		{"short ramp", func(c *Config) { c.Render.Ramp = []rune("#") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := &mocks.SourceOpener{Source: greySource(time.Second)}
			orch := New(opener, fakeStages(1), &mocks.Renderer{}, mocks.NewFileSystem(),
				mocks.NewDebugSink(false), logger.NewNoop())

			cfg := testConfig()
			tt.modify(&cfg)

			_, err := orch.Run(context.Background(), cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if len(opener.Paths) != 0 {
				t.Error("source must not be opened")
			}
		})
	}
}

func TestOutputPathFor(t *testing.T) {
	tests := []struct {
		path   string
		format string
		want   string
	}{
		{"ascii-video.mp4", pipeline.FormatPrimary, "ascii-video.mp4"},
		{"ascii-video.mp4", pipeline.FormatFallback, "ascii-video.webm"},
		{"out/clip", pipeline.FormatPrimary, "out/clip.mp4"},
		{"out/clip.webm", pipeline.FormatPrimary, "out/clip.mp4"},
	}

	for _, tt := range tests {
		got := OutputPathFor(tt.path, pipeline.EncodeResult{Format: tt.format})
		if got != tt.want {
			t.Errorf("OutputPathFor(%q, %s) = %q, want %q", tt.path, tt.format, got, tt.want)
		}
	}
}
