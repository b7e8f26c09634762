// Package encode implements the container encoding stage.
//
// The primary path feeds frames and optional PCM audio to structured encoders
// and multiplexes the chunks into MP4. When the platform lacks those encoders,
// or the video encoder rejects the configuration, frames are replayed in real
// time onto a Surface captured by a Recorder instead.
package encode

import (
	"context"
	"errors"

	"github.com/user/asciivideo/pkg/pipeline"
	"github.com/user/asciivideo/pkg/ports"
)

// Codec and rate constants of the primary path.
const (
	VideoCodec       = "avc1.640028"
	AudioCodec       = "mp4a.40.2"
	DefaultBitrate   = 5_000_000
	AudioBitrate     = 128_000
	KeyFrameInterval = 30
)

var (
	// ErrNoFrames is returned before any encoder is touched.
	ErrNoFrames = errors.New("encode: no frames to encode")
	// ErrNoEncoder is returned when neither path is available.
	ErrNoEncoder = errors.New("encode: no encoder available")
)

// Encoders groups the collaborators of both paths. Any field may be nil when
// the matching capability is false.
type Encoders struct {
	Video    ports.VideoEncoder
	Audio    ports.AudioEncoder
	Muxers   ports.MuxerFactory
	Recorder ports.Recorder
}

// Stage encodes raster frames into a container.
type Stage struct {
	caps   ports.EncoderCapabilities
	enc    Encoders
	logger ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(caps ports.EncoderCapabilities, enc Encoders, logger ports.Logger) *Stage {
	return &Stage{
		caps:   caps,
		enc:    enc,
		logger: logger.WithComponent("encode"),
	}
}

// Execute encodes all frames into a video.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	if len(input.Frames) == 0 {
		return pipeline.EncodeResult{}, ErrNoFrames
	}
	if input.FPS <= 0 {
		input.FPS = pipeline.DefaultEncodeInput().FPS
	}
	if input.Bitrate <= 0 {
		input.Bitrate = DefaultBitrate
	}

	if s.caps.PrimaryAvailable() && s.enc.Video != nil && s.enc.Muxers != nil {
		result, err := s.encodePrimary(ctx, input)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ports.ErrUnsupportedConfig) {
			return pipeline.EncodeResult{}, err
		}
		s.logger.Warn("Video encoder rejected the configuration, switching to the fallback recorder")
	}

	if s.caps.Recorder && s.enc.Recorder != nil {
		return s.encodeFallback(ctx, input)
	}

	return pipeline.EncodeResult{}, ErrNoEncoder
}

func (s *Stage) baseResult(input pipeline.EncodeInput) pipeline.EncodeResult {
	bounds := input.Frames[0].Image.Bounds()
	return pipeline.EncodeResult{
		Frames:     input.Frames,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		FPS:        input.FPS,
		DurationMs: int(float64(len(input.Frames)) * 1000 / input.FPS),
	}
}

func report(fn pipeline.ProgressFunc, current, total int) {
	if fn != nil {
		fn(current, total)
	}
}

// finish fills the size fields once the container bytes are known.
func finish(result pipeline.EncodeResult, data []byte) pipeline.EncodeResult {
	result.Data = data
	result.FileSize = int64(len(data))
	return result
}
