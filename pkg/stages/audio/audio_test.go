package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/asciivideo/pkg/adapters/logger"
	"github.com/user/asciivideo/pkg/mocks"
	"github.com/user/asciivideo/pkg/pipeline"
	"github.com/user/asciivideo/pkg/ports"
)

func TestStage_DecodesAudio(t *testing.T) {
	dec := &mocks.AudioDecoder{Audio: mocks.SilentAudio(48000, 2*time.Second)}
	stage := NewStage(dec, logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.AudioInput{Path: "in.mp4", Include: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Audio == nil || result.Audio.Frames() != 96000 {
		t.Fatalf("expected 96000 frames of audio, got %+v", result.Audio)
	}
}

func TestStage_NotRequested(t *testing.T) {
	dec := &mocks.AudioDecoder{Audio: mocks.SilentAudio(48000, time.Second)}
	stage := NewStage(dec, logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.AudioInput{Path: "in.mp4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Audio != nil {
		t.Error("expected no audio")
	}
	if dec.Calls != 0 {
		t.Errorf("decoder should not be called, got %d calls", dec.Calls)
	}
}

func TestStage_FailuresDegrade(t *testing.T) {
	tests := []struct {
		name string
		dec  *mocks.AudioDecoder
	}{
		{"no track", &mocks.AudioDecoder{Err: ports.ErrNoAudioTrack}},
		{"decode error", &mocks.AudioDecoder{Err: errors.New("ffmpeg exited 1")}},
		{"empty track", &mocks.AudioDecoder{Audio: &ports.PCMAudio{Channels: 2, SampleRate: 44100, Samples: [][]float32{{}, {}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := NewStage(tt.dec, logger.NewNoop())

			result, err := stage.Execute(context.Background(), pipeline.AudioInput{Path: "in.mp4", Include: true})
			if err != nil {
				t.Fatalf("expected degradation, got error %v", err)
			}
			if result.Audio != nil {
				t.Error("expected no audio")
			}
			if result.Reason == "" {
				t.Error("expected a reason")
			}
		})
	}
}

func TestStage_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := NewStage(&mocks.AudioDecoder{Err: errors.New("killed")}, logger.NewNoop())

	_, err := stage.Execute(ctx, pipeline.AudioInput{Path: "in.mp4", Include: true})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
