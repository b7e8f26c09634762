// Package ffmpegsource decodes video frames and audio through the ffmpeg and
// ffprobe executables.
package ffmpegsource

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/user/asciivideo/pkg/adapters/ffmpegcmd"
	"github.com/user/asciivideo/pkg/ports"
)

var (
	// ErrNoVideoStream is returned when the input has no decodable video.
	ErrNoVideoStream = errors.New("ffmpegsource: no video stream")
	// ErrNoFrame is returned when a seek produces no frame.
	ErrNoFrame = errors.New("ffmpegsource: no frame at timestamp")
)

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// Probe describes a media file as reported by ffprobe.
type Probe struct {
	ports.SourceInfo
	VideoCodec string
	AudioCodec string
	Container  string
}

// ProbeFile runs ffprobe on path.
func ProbeFile(ctx context.Context, ffprobePath, path string) (Probe, error) {
	res, err := ffmpegcmd.Run(ctx, ffmpegcmd.Spec{
		Path: ffprobePath,
		Args: []string{"-v", "error", "-print_format", "json", "-show_format", "-show_streams", path},
	})
	if err != nil {
		return Probe{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseProbe(res.Stdout)
}

// parseProbe maps ffprobe JSON onto a Probe. The first video and audio
// streams win.
func parseProbe(data []byte) (Probe, error) {
	var out probeOutput
	if err := sonic.Unmarshal(data, &out); err != nil {
		return Probe{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	p := Probe{Container: out.Format.FormatName}
	var videoDur time.Duration
	haveVideo := false
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if haveVideo || s.Width <= 0 || s.Height <= 0 {
				continue
			}
			haveVideo = true
			p.Width = s.Width
			p.Height = s.Height
			p.VideoCodec = s.CodecName
			videoDur = parseSeconds(s.Duration)
		case "audio":
			if p.HasAudio {
				continue
			}
			p.HasAudio = true
			p.AudioCodec = s.CodecName
			p.AudioChannels = s.Channels
			p.AudioSampleRate, _ = strconv.Atoi(s.SampleRate)
		}
	}
	if !haveVideo {
		return Probe{}, ErrNoVideoStream
	}

	p.Duration = videoDur
	if p.Duration <= 0 {
		p.Duration = parseSeconds(out.Format.Duration)
	}
	return p, nil
}

func parseSeconds(s string) time.Duration {
	if s == "" || s == "N/A" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
