// Package progress maps per-stage counters onto one monotonic 0-100 percent
// scale and forwards the resulting events to a ports.ProgressSink.
package progress

import (
	"math"
	"sync"

	"github.com/user/asciivideo/pkg/ports"
)

// Percent bands of the overall scale.
const (
	extractEnd = 50
	convertEnd = 90
	encodeEnd  = 100
)

// Band maps current/total within a stage onto the overall percent scale.
func Band(stage ports.Stage, current, total int) int {
	frac := 0.0
	if total > 0 {
		frac = math.Min(math.Max(float64(current)/float64(total), 0), 1)
	}
	switch stage {
	case ports.StageLoading:
		return 0
	case ports.StageExtracting:
		return int(math.Round(frac * extractEnd))
	case ports.StageConverting:
		return extractEnd + int(math.Round(frac*(convertEnd-extractEnd)))
	case ports.StageEncoding:
		return convertEnd + int(math.Round(frac*(encodeEnd-convertEnd)))
	case ports.StageComplete:
		return 100
	default:
		return 0
	}
}

// Reporter emits progress events with a non-decreasing percent and a stage
// order that never moves backwards. Extracting and converting may alternate.
// It is safe for concurrent use.
type Reporter struct {
	mu    sync.Mutex
	sink  ports.ProgressSink
	stage ports.Stage
	last  int
}

// NewReporter creates a Reporter. A nil sink discards events.
func NewReporter(sink ports.ProgressSink) *Reporter {
	if sink == nil {
		sink = Discard
	}
	return &Reporter{sink: sink, last: -1}
}

// Loading reports that the source is being opened.
func (r *Reporter) Loading() {
	r.emit(ports.StageLoading, 0, 0)
}

// Extracting reports current of total frames captured.
func (r *Reporter) Extracting(current, total int) {
	r.emit(ports.StageExtracting, current, total)
}

// Converting reports current of total frames converted.
func (r *Reporter) Converting(current, total int) {
	r.emit(ports.StageConverting, current, total)
}

// Encoding reports current of total frames encoded.
func (r *Reporter) Encoding(current, total int) {
	r.emit(ports.StageEncoding, current, total)
}

// Complete reports 100 percent.
func (r *Reporter) Complete() {
	r.emit(ports.StageComplete, 0, 0)
}

// Percent returns the last reported percent, or -1 before the first event.
func (r *Reporter) Percent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Reporter) emit(stage ports.Stage, current, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stage != "" && !r.accepts(stage) {
		return
	}

	percent := Band(stage, current, total)
	if percent < r.last {
		percent = r.last
	}
	r.stage = stage
	r.last = percent

	r.sink.Report(ports.ProgressEvent{
		Stage:   stage,
		Current: current,
		Total:   total,
		Percent: percent,
	})
}

func (r *Reporter) accepts(stage ports.Stage) bool {
	if r.stage == ports.StageComplete {
		return false
	}
	if stage.Order() >= r.stage.Order() {
		return true
	}
	return stage == ports.StageExtracting && r.stage == ports.StageConverting
}
