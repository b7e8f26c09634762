package ports

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrNoAudioTrack is returned by an AudioDecoder when the source has no
// decodable audio stream.
var ErrNoAudioTrack = errors.New("ports: source has no audio track")

// SourceInfo describes a probed video source.
type SourceInfo struct {
	Width    int
	Height   int
	Duration time.Duration

	// HasAudio reports whether the container declares an audio stream.
	HasAudio        bool
	AudioChannels   int
	AudioSampleRate int
}

// VideoSource is a random-seek capable decoded video.
type VideoSource interface {
	// Info returns the probed dimensions and duration.
	Info() SourceInfo

	// FrameAt seeks to t and returns the frame displayed at that instant.
	// Callers must not issue concurrent calls.
	FrameAt(ctx context.Context, t time.Duration) (image.Image, error)

	// Close releases decoder resources.
	Close() error
}

// SourceOpener opens and probes a video file.
type SourceOpener interface {
	Open(ctx context.Context, path string) (VideoSource, error)
}

// PCMAudio is a decoded audio track with planar float samples in [-1, 1].
type PCMAudio struct {
	Channels   int
	SampleRate int
	// Samples holds one slice per channel, all of equal length.
	Samples [][]float32
}

// Frames returns the number of samples per channel.
func (a *PCMAudio) Frames() int {
	if a == nil || len(a.Samples) == 0 {
		return 0
	}
	return len(a.Samples[0])
}

// Duration returns the playback length of the track.
func (a *PCMAudio) Duration() time.Duration {
	if a == nil || a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(a.Frames()) * int64(time.Second) / int64(a.SampleRate))
}

// AudioDecoder decodes the audio track of a media file into PCM.
type AudioDecoder interface {
	// DecodeAudio returns ErrNoAudioTrack when the file carries no audio.
	DecodeAudio(ctx context.Context, path string) (*PCMAudio, error)
}
