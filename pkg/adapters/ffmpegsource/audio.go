package ffmpegsource

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/user/asciivideo/pkg/adapters/ffmpegcmd"
	"github.com/user/asciivideo/pkg/ports"
)

// MaxChannels is the channel count sources with more channels are downmixed to.
const MaxChannels = 2

// AudioDecoder implements ports.AudioDecoder.
type AudioDecoder struct{}

// NewAudioDecoder creates an AudioDecoder.
func NewAudioDecoder() *AudioDecoder {
	return &AudioDecoder{}
}

// DecodeAudio decodes the first audio stream of path to planar float32 at
// its native sample rate.
func (d *AudioDecoder) DecodeAudio(ctx context.Context, path string) (*ports.PCMAudio, error) {
	ffmpegPath, err := ffmpegcmd.FindFFmpeg()
	if err != nil {
		return nil, err
	}
	ffprobePath, err := ffmpegcmd.FindFFprobe()
	if err != nil {
		return nil, err
	}

	probe, err := ProbeFile(ctx, ffprobePath, path)
	if err != nil {
		return nil, err
	}
	if !probe.HasAudio || probe.AudioSampleRate <= 0 {
		return nil, ports.ErrNoAudioTrack
	}

	channels := probe.AudioChannels
	if channels <= 0 || channels > MaxChannels {
		channels = MaxChannels
	}

	var out bytes.Buffer
	_, err = ffmpegcmd.Run(ctx, ffmpegcmd.Spec{
		Path: ffmpegPath,
		Args: []string{
			"-v", "error",
			"-i", path,
			"-vn", "-sn",
			"-f", "f32le",
			"-ac", strconv.Itoa(channels),
			"-ar", strconv.Itoa(probe.AudioSampleRate),
			"pipe:1",
		},
		Stdout: &out,
	})
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}

	samples := deinterleaveF32LE(out.Bytes(), channels)
	if len(samples[0]) == 0 {
		return nil, ports.ErrNoAudioTrack
	}

	return &ports.PCMAudio{
		Channels:   channels,
		SampleRate: probe.AudioSampleRate,
		Samples:    samples,
	}, nil
}

// deinterleaveF32LE splits little-endian interleaved float32 samples into one
// slice per channel. A trailing partial frame is dropped.
func deinterleaveF32LE(data []byte, channels int) [][]float32 {
	frameBytes := 4 * channels
	frames := len(data) / frameBytes

	planes := make([][]float32, channels)
	for ch := range planes {
		planes[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		base := i * frameBytes
		for ch := 0; ch < channels; ch++ {
			bits := binary.LittleEndian.Uint32(data[base+ch*4:])
			planes[ch][i] = math.Float32frombits(bits)
		}
	}
	return planes
}

var _ ports.AudioDecoder = (*AudioDecoder)(nil)
