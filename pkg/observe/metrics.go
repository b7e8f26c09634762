// Package observe provides the OpenTelemetry metric instruments recorded by a
// conversion run. Build them with NewMetrics from any metric.MeterProvider;
// the CLI passes otel.GetMeterProvider(), tests pass an SDK provider with a
// ManualReader.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/user/asciivideo"

// Metrics holds the instruments of a conversion run. All fields are safe for
// concurrent use.
type Metrics struct {
	// FramesSampled counts frames extracted from the source.
	FramesSampled metric.Int64Counter

	// FramesConverted counts frames rasterized to character art.
	FramesConverted metric.Int64Counter

	// StageDuration tracks stage latency. Use with attribute
	// attribute.String("stage", ...).
	StageDuration metric.Float64Histogram

	// EncodeFallback counts runs that used the fallback recorder.
	EncodeFallback metric.Int64Counter

	// AudioDropped counts runs where audio was requested but not muxed. Use
	// with attribute attribute.String("reason", ...).
	AudioDropped metric.Int64Counter
}

// stageBuckets are histogram boundaries in seconds.
var stageBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesSampled, err = m.Int64Counter("asciivideo.frames.sampled",
		metric.WithDescription("Frames extracted from the source video."),
	); err != nil {
		return nil, err
	}
	if met.FramesConverted, err = m.Int64Counter("asciivideo.frames.converted",
		metric.WithDescription("Frames rendered as character art."),
	); err != nil {
		return nil, err
	}
	if met.StageDuration, err = m.Float64Histogram("asciivideo.stage.duration",
		metric.WithDescription("Latency of each pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EncodeFallback, err = m.Int64Counter("asciivideo.encode.fallback",
		metric.WithDescription("Runs encoded with the fallback recorder."),
	); err != nil {
		return nil, err
	}
	if met.AudioDropped, err = m.Int64Counter("asciivideo.audio.dropped",
		metric.WithDescription("Runs where requested audio was left out of the output."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Noop returns instruments that record nothing.
func Noop() *Metrics {
	met, _ := NewMetrics(noop.NewMeterProvider())
	return met
}

// RecordStage records the latency of one stage.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.StageDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordAudioDropped increments the dropped-audio counter.
func (m *Metrics) RecordAudioDropped(ctx context.Context, reason string) {
	m.AudioDropped.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}
