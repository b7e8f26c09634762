package convert

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/user/asciivideo/pkg/adapters/logger"
	"github.com/user/asciivideo/pkg/ascii"
	"github.com/user/asciivideo/pkg/mocks"
	"github.com/user/asciivideo/pkg/pipeline"
)

func gradientFrames(n, w, h int) []pipeline.SampledFrame {
	frames := make([]pipeline.SampledFrame, n)
	for i := range frames {
		g := ascii.NewGrid(w, h)
		for p := range g.Pix {
			v := uint8((p * 255) / len(g.Pix))
			g.Pix[p] = ascii.RGB{R: v, G: v, B: v}
		}
		frames[i] = pipeline.SampledFrame{
			Index:     i,
			Timestamp: time.Duration(i) * 100 * time.Millisecond,
			Grid:      g,
		}
	}
	return frames
}

func TestStage_Execute(t *testing.T) {
	renderer := &mocks.Renderer{}
	stage := NewStage(renderer, mocks.NewDebugSink(false), logger.NewNoop(), 3)

	input := pipeline.DefaultConvertInput()
	input.Frames = gradientFrames(7, 8, 4)

	var calls [][2]int
	input.OnProgress = func(cur, total int) {
		calls = append(calls, [2]int{cur, total})
	}

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Frames) != 7 || len(result.Ascii) != 7 {
		t.Fatalf("expected 7 frames, got %d raster / %d ascii", len(result.Frames), len(result.Ascii))
	}
	for i, f := range result.Frames {
		if f.Index != i {
			t.Errorf("frame %d: out of order, index %d", i, f.Index)
		}
		if f.Timestamp != time.Duration(i)*100*time.Millisecond {
			t.Errorf("frame %d: wrong timestamp %v", i, f.Timestamp)
		}
		if b := f.Image.Bounds(); b.Dx() != 80 || b.Dy() != 72 {
			t.Errorf("frame %d: expected 80x72, got %v", i, b)
		}
	}

	if len(calls) != 7 {
		t.Fatalf("expected 7 progress calls, got %d", len(calls))
	}
	for i, c := range calls {
		if c[0] != i+1 || c[1] != 7 {
			t.Errorf("progress %d: got %v", i, c)
		}
	}
}

func TestStage_ReproducibleWithSeed(t *testing.T) {
	run := func() []ascii.Frame {
		stage := NewStage(&mocks.Renderer{}, mocks.NewDebugSink(false), logger.NewNoop(), 4)
		input := pipeline.DefaultConvertInput()
		input.Frames = gradientFrames(5, 16, 6)
		input.Random = rand.New(rand.NewPCG(42, 7))

		result, err := stage.Execute(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result.Ascii
	}

	a, b := run(), run()
	for i := range a {
		if a[i].String() != b[i].String() {
			t.Fatalf("frame %d differs between seeded runs", i)
		}
	}
}

func TestStage_Execute_EmptyFrames(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, mocks.NewDebugSink(false), logger.NewNoop(), 2)

	result, err := stage.Execute(context.Background(), pipeline.DefaultConvertInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 0 {
		t.Errorf("expected 0 frames, got %d", len(result.Frames))
	}
}

func TestStage_InvalidRenderConfig(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, mocks.NewDebugSink(false), logger.NewNoop(), 2)

	input := pipeline.DefaultConvertInput()
	input.Frames = gradientFrames(1, 2, 2)
	input.Render.Ramp = []rune("#")

	if _, err := stage.Execute(context.Background(), input); !errors.Is(err, ascii.ErrRampTooShort) {
		t.Errorf("expected ErrRampTooShort, got %v", err)
	}
}

func TestStage_Cancelled(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, mocks.NewDebugSink(false), logger.NewNoop(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := pipeline.DefaultConvertInput()
	input.Frames = gradientFrames(4, 4, 4)

	if _, err := stage.Execute(ctx, input); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStage_DebugSink(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	stage := NewStage(&mocks.Renderer{}, sink, logger.NewNoop(), 2)

	input := pipeline.DefaultConvertInput()
	input.Frames = gradientFrames(3, 4, 2)

	if _, err := stage.Execute(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.AsciiFrames) != 3 || len(sink.RasterFrames) != 3 {
		t.Errorf("expected 3 ascii and 3 raster debug frames, got %d and %d", len(sink.AsciiFrames), len(sink.RasterFrames))
	}
	// 4 columns plus newline, 2 rows
	if got := len(sink.AsciiFrames[0]); got != 10 {
		t.Errorf("expected 10 bytes of text, got %d", got)
	}
}
