package ports

// Stage names a pipeline phase in progress events.
type Stage string

const (
	StageLoading    Stage = "loading"
	StageExtracting Stage = "extracting"
	StageConverting Stage = "converting"
	StageEncoding   Stage = "encoding"
	StageComplete   Stage = "complete"
)

// Order returns the position of the stage in the fixed pipeline order,
// or -1 for an unknown stage.
func (s Stage) Order() int {
	switch s {
	case StageLoading:
		return 0
	case StageExtracting:
		return 1
	case StageConverting:
		return 2
	case StageEncoding:
		return 3
	case StageComplete:
		return 4
	default:
		return -1
	}
}

// ProgressEvent is one progress update. Current and Total are zero when the
// stage has no countable unit.
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	Percent int
}

// ProgressSink consumes progress events. Report is called from the
// pipeline's control flow and should return quickly.
type ProgressSink interface {
	Report(event ProgressEvent)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(event ProgressEvent)

// Report implements ProgressSink.
func (f ProgressFunc) Report(event ProgressEvent) {
	f(event)
}

// RandomSource supplies uniform values in [0, 1). *math/rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}
