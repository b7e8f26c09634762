package progress

import (
	"context"

	"github.com/user/asciivideo/pkg/ports"
)

// Discard is a sink that drops every event.
var Discard ports.ProgressSink = ports.ProgressFunc(func(ports.ProgressEvent) {})

// ChannelSink forwards events to a channel. Report blocks until the event is
// received or ctx is done, so no event is silently lost.
type ChannelSink struct {
	ctx context.Context
	ch  chan<- ports.ProgressEvent
}

// NewChannelSink creates a ChannelSink.
func NewChannelSink(ctx context.Context, ch chan<- ports.ProgressEvent) *ChannelSink {
	return &ChannelSink{ctx: ctx, ch: ch}
}

// Report implements ports.ProgressSink.
func (s *ChannelSink) Report(event ports.ProgressEvent) {
	select {
	case s.ch <- event:
	case <-s.ctx.Done():
	}
}

// LogSink logs events at info level, at most once per step percent within a
// stage and always on stage changes.
type LogSink struct {
	logger ports.Logger
	step   int

	stage   ports.Stage
	lastPct int
}

// NewLogSink creates a LogSink. A step below 1 logs every event.
func NewLogSink(logger ports.Logger, step int) *LogSink {
	if step < 1 {
		step = 1
	}
	return &LogSink{logger: logger, step: step, lastPct: -1}
}

// Report implements ports.ProgressSink.
func (s *LogSink) Report(event ports.ProgressEvent) {
	if event.Stage == s.stage && event.Percent-s.lastPct < s.step && event.Percent != 100 {
		return
	}
	s.stage = event.Stage
	s.lastPct = event.Percent

	if event.Total > 0 {
		s.logger.Info("[%3d%%] %s %d/%d", event.Percent, string(event.Stage), event.Current, event.Total)
		return
	}
	s.logger.Info("[%3d%%] %s", event.Percent, string(event.Stage))
}

// Multi fans events out to several sinks in order.
func Multi(sinks ...ports.ProgressSink) ports.ProgressSink {
	return ports.ProgressFunc(func(event ports.ProgressEvent) {
		for _, s := range sinks {
			s.Report(event)
		}
	})
}

var (
	_ ports.ProgressSink = (*ChannelSink)(nil)
	_ ports.ProgressSink = (*LogSink)(nil)
)
