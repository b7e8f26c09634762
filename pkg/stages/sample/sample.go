// Package sample implements the frame sampling stage.
package sample

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/user/asciivideo/pkg/ascii"
	"github.com/user/asciivideo/pkg/pipeline"
	"github.com/user/asciivideo/pkg/ports"
)

// ErrInvalidInput is returned for a missing source or non-positive rates.
var ErrInvalidInput = errors.New("sample: invalid input")

// Stage seeks through a video source at a fixed rate and reduces every frame
// to the character grid.
type Stage struct {
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
}

// NewStage creates a new sample stage.
func NewStage(renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("sample"),
	}
}

// FrameCount returns floor(duration × fps).
func FrameCount(duration time.Duration, fps float64) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	// Tolerate float error so 0.3s at 10fps yields 3, not 2.
	return int(math.Floor(duration.Seconds()*fps + 1e-9))
}

// Timestamp returns the instant of frame k at fps.
func Timestamp(k int, fps float64) time.Duration {
	return time.Duration(math.Round(float64(k) * float64(time.Second) / fps))
}

// Execute samples the source. Seeks are strictly sequential: frame k+1 is
// requested only after frame k has been reduced to its grid.
func (s *Stage) Execute(ctx context.Context, input pipeline.SampleInput) (pipeline.SampleResult, error) {
	if input.Source == nil {
		return pipeline.SampleResult{}, fmt.Errorf("%w: no source", ErrInvalidInput)
	}
	if input.FPS <= 0 || input.AsciiWidth <= 0 {
		return pipeline.SampleResult{}, fmt.Errorf("%w: fps %.2f, width %d", ErrInvalidInput, input.FPS, input.AsciiWidth)
	}

	info := input.Source.Info()
	cellW, cellH := input.CellWidth, input.CellHeight
	if cellW <= 0 || cellH <= 0 {
		cellW, cellH = ascii.DefaultCellWidth, ascii.DefaultCellHeight
	}
	gridW, gridH := ascii.GridSize(info.Width, info.Height, input.AsciiWidth, cellW, cellH)
	if gridW == 0 {
		return pipeline.SampleResult{}, fmt.Errorf("%w: source is %dx%d", ErrInvalidInput, info.Width, info.Height)
	}

	total := FrameCount(info.Duration, input.FPS)
	s.logger.Debug("Sampling %d frames at %.1f fps into a %dx%d grid", total, input.FPS, gridW, gridH)

	result := pipeline.SampleResult{
		Frames:     make([]pipeline.SampledFrame, 0, total),
		GridWidth:  gridW,
		GridHeight: gridH,
		Source:     info,
	}

	for k := 0; k < total; k++ {
		if err := ctx.Err(); err != nil {
			return pipeline.SampleResult{}, err
		}

		t := Timestamp(k, input.FPS)
		img, err := input.Source.FrameAt(ctx, t)
		if err != nil {
			return pipeline.SampleResult{}, fmt.Errorf("frame %d at %s: %w", k, t, err)
		}

		grid := ascii.GridFromImage(s.renderer.ResizeImage(img, gridW, gridH))
		result.Frames = append(result.Frames, pipeline.SampledFrame{
			Index:     k,
			Timestamp: t,
			Grid:      grid,
		})

		if s.sink.Enabled() {
			if err := s.sink.SaveSourceFrame(k, grid.Image()); err != nil {
				s.logger.Warn("Failed to save debug frame %d: %v", k, err)
			}
		}

		if input.OnProgress != nil {
			input.OnProgress(k+1, total)
		}
	}

	s.logger.Debug("Sampling completed")
	return result, nil
}
