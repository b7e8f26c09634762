// Package audio implements the best-effort audio extraction stage.
package audio

import (
	"context"
	"errors"

	"github.com/user/asciivideo/pkg/pipeline"
	"github.com/user/asciivideo/pkg/ports"
)

// Stage decodes the source audio track. Decode failures degrade to a
// video-only result; only cancellation is returned as an error.
type Stage struct {
	decoder ports.AudioDecoder
	logger  ports.Logger
}

// NewStage creates a new audio stage.
func NewStage(decoder ports.AudioDecoder, logger ports.Logger) *Stage {
	return &Stage{
		decoder: decoder,
		logger:  logger.WithComponent("audio"),
	}
}

// Execute decodes the audio track of input.Path when input.Include is set.
func (s *Stage) Execute(ctx context.Context, input pipeline.AudioInput) (pipeline.AudioResult, error) {
	if !input.Include {
		return pipeline.AudioResult{Reason: "not requested"}, nil
	}
	if s.decoder == nil {
		return pipeline.AudioResult{Reason: "no decoder"}, nil
	}

	pcm, err := s.decoder.DecodeAudio(ctx, input.Path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pipeline.AudioResult{}, ctxErr
		}
		if errors.Is(err, ports.ErrNoAudioTrack) {
			s.logger.Warn("Source has no audio track, output will be video-only")
			return pipeline.AudioResult{Reason: "no audio track"}, nil
		}
		s.logger.Warn("Audio decoding failed, output will be video-only: %v", err)
		return pipeline.AudioResult{Reason: err.Error()}, nil
	}

	if pcm == nil || pcm.Frames() == 0 || pcm.Channels <= 0 || pcm.SampleRate <= 0 {
		s.logger.Warn("Source has no audio track, output will be video-only")
		return pipeline.AudioResult{Reason: "empty audio track"}, nil
	}

	s.logger.Debug("Decoded %d channels at %d Hz, %s", pcm.Channels, pcm.SampleRate, pcm.Duration())
	return pipeline.AudioResult{Audio: pcm}, nil
}
