// Package pipeline provides the stage abstraction and the data passed between
// the stages of an asciivideo conversion.
package pipeline

import "context"

// Stage turns the output of the previous step into the input of the next:
// a source into grids, grids into frames, frames into a container.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a function to Stage. Tests use it to stub a step.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// ProgressFunc receives per-stage progress as current of total units.
type ProgressFunc func(current, total int)
