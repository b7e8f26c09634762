// Package convert implements the character conversion stage: contrast
// normalization, glyph classification and rasterization.
package convert

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/user/asciivideo/pkg/ascii"
	"github.com/user/asciivideo/pkg/pipeline"
	"github.com/user/asciivideo/pkg/ports"
	"github.com/user/asciivideo/pkg/raster"
)

// Stage converts sampled grids into character frames and raster images.
type Stage struct {
	renderer   ports.Renderer
	sink       ports.DebugSink
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new convert stage.
func NewStage(renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		renderer:   renderer,
		sink:       sink,
		logger:     logger.WithComponent("convert"),
		numWorkers: numWorkers,
	}
}

// Execute converts all frames. Classification consumes the random source in
// frame order; rasterization runs on the worker pool.
func (s *Stage) Execute(ctx context.Context, input pipeline.ConvertInput) (pipeline.ConvertResult, error) {
	if err := input.Render.Validate(); err != nil {
		return pipeline.ConvertResult{}, err
	}
	if len(input.Frames) == 0 {
		return pipeline.ConvertResult{Ascii: []ascii.Frame{}, Frames: []pipeline.RasterFrame{}}, nil
	}

	s.logger.Debug("Converting %d frames with %d workers", len(input.Frames), s.numWorkers)

	frames := make([]ascii.Frame, len(input.Frames))
	for i, f := range input.Frames {
		if err := ctx.Err(); err != nil {
			return pipeline.ConvertResult{}, err
		}
		frames[i] = ascii.Convert(f.Grid, input.Render, input.Random)

		if s.sink.Enabled() {
			if err := s.sink.SaveAsciiFrame(f.Index, []byte(frames[i].String())); err != nil {
				s.logger.Warn("Failed to save debug frame %d: %v", f.Index, err)
			}
		}
	}

	rasterizer := raster.New(s.renderer, raster.Options{
		CellWidth:  input.Render.CellWidth,
		CellHeight: input.Render.CellHeight,
		FontSize:   input.FontSize,
		FontPath:   input.FontPath,
	})

	rasters, err := s.rasterizeParallel(ctx, input, frames, rasterizer)
	if err != nil {
		return pipeline.ConvertResult{}, err
	}

	s.logger.Debug("Conversion completed")
	return pipeline.ConvertResult{Ascii: frames, Frames: rasters}, nil
}

// indexedFrame holds a frame with its position for sorting.
type indexedFrame struct {
	pos   int
	frame pipeline.RasterFrame
}

// rasterizeParallel renders frames using a worker pool and restores order.
func (s *Stage) rasterizeParallel(
	ctx context.Context,
	input pipeline.ConvertInput,
	frames []ascii.Frame,
	rasterizer *raster.Rasterizer,
) ([]pipeline.RasterFrame, error) {
	numFrames := len(frames)
	jobs := make(chan int, numFrames)
	results := make(chan indexedFrame, numFrames)

	var wg sync.WaitGroup
	for w := 0; w < s.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				src := input.Frames[pos]
				results <- indexedFrame{
					pos: pos,
					frame: pipeline.RasterFrame{
						Index:     src.Index,
						Timestamp: src.Timestamp,
						Image:     rasterizer.Rasterize(frames[pos]),
					},
				}
			}
		}()
	}

	for i := 0; i < numFrames; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]indexedFrame, 0, numFrames)
	for result := range results {
		collected = append(collected, result)

		if s.sink.Enabled() {
			if err := s.sink.SaveRasterFrame(result.frame.Index, result.frame.Image); err != nil {
				s.logger.Warn("Failed to save debug frame %d: %v", result.frame.Index, err)
			}
		}
		if input.OnProgress != nil {
			input.OnProgress(len(collected), numFrames)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(collected) != numFrames {
		return nil, fmt.Errorf("rasterized %d of %d frames", len(collected), numFrames)
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].pos < collected[j].pos
	})

	out := make([]pipeline.RasterFrame, numFrames)
	for i, f := range collected {
		out[i] = f.frame
	}
	return out, nil
}
