package ffmpegsource

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/asciivideo/pkg/adapters/ffmpegcmd"
	"github.com/user/asciivideo/pkg/ports"
)

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 640, "height": 360, "duration": "2.000000"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "44100", "channels": 2, "duration": "2.020000"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "2.020000"}
}`

func TestParseProbe(t *testing.T) {
	p, err := parseProbe([]byte(probeJSON))
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}

	if p.Width != 640 || p.Height != 360 {
		t.Errorf("expected 640x360, got %dx%d", p.Width, p.Height)
	}
	if p.Duration != 2*time.Second {
		t.Errorf("expected video stream duration 2s, got %v", p.Duration)
	}
	if !p.HasAudio || p.AudioChannels != 2 || p.AudioSampleRate != 44100 {
		t.Errorf("unexpected audio info %+v", p.SourceInfo)
	}
	if p.VideoCodec != "h264" || p.AudioCodec != "aac" {
		t.Errorf("unexpected codecs %s/%s", p.VideoCodec, p.AudioCodec)
	}
}

func TestParseProbe_FormatDurationFallback(t *testing.T) {
	data := `{"streams":[{"codec_type":"video","width":320,"height":240,"duration":"N/A"}],"format":{"duration":"1.5"}}`

	p, err := parseProbe([]byte(data))
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if p.Duration != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", p.Duration)
	}
	if p.HasAudio {
		t.Error("expected no audio")
	}
}

func TestParseProbe_NoVideo(t *testing.T) {
	data := `{"streams":[{"codec_type":"audio","sample_rate":"48000","channels":1}],"format":{}}`

	if _, err := parseProbe([]byte(data)); !errors.Is(err, ErrNoVideoStream) {
		t.Errorf("expected ErrNoVideoStream, got %v", err)
	}
}

func TestParseProbe_InvalidJSON(t *testing.T) {
	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Error("expected error")
	}
}

func TestDeinterleaveF32LE(t *testing.T) {
	values := []float32{0.5, -0.5, 0.25, -0.25, 1}
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}

	planes := deinterleaveF32LE(data, 2)

	if len(planes) != 2 || len(planes[0]) != 2 || len(planes[1]) != 2 {
		t.Fatalf("expected 2 channels of 2 frames, got %v", planes)
	}
	if planes[0][0] != 0.5 || planes[1][0] != -0.5 || planes[0][1] != 0.25 || planes[1][1] != -0.25 {
		t.Errorf("unexpected planes %v", planes)
	}
}

// makeTestVideo renders a 1s 160x90 clip with ffmpeg's built-in encoders.
func makeTestVideo(t *testing.T, withAudio bool) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping ffmpeg test in short mode")
	}
	ffmpegPath, err := ffmpegcmd.FindFFmpeg()
	if err != nil {
		t.Skip("ffmpeg not available")
	}
	if _, err := ffmpegcmd.FindFFprobe(); err != nil {
		t.Skip("ffprobe not available")
	}

	out := filepath.Join(t.TempDir(), "clip.mp4")
	args := []string{"-v", "error", "-y", "-f", "lavfi", "-i", "testsrc=size=160x90:rate=10:duration=1"}
	if withAudio {
		args = append(args, "-f", "lavfi", "-i", "sine=frequency=440:sample_rate=22050:duration=1", "-c:a", "aac")
	}
	args = append(args, "-c:v", "mpeg4", "-pix_fmt", "yuv420p", "-shortest", out)

	if _, err := ffmpegcmd.Run(context.Background(), ffmpegcmd.Spec{Path: ffmpegPath, Args: args}); err != nil {
		t.Fatalf("generate test video: %v", err)
	}
	return out
}

func TestSource_FrameAt(t *testing.T) {
	path := makeTestVideo(t, false)

	src, err := NewOpener().Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	info := src.Info()
	if info.Width != 160 || info.Height != 90 {
		t.Errorf("expected 160x90, got %dx%d", info.Width, info.Height)
	}
	if info.Duration < 900*time.Millisecond || info.Duration > 1100*time.Millisecond {
		t.Errorf("expected ~1s, got %v", info.Duration)
	}

	img, err := src.FrameAt(context.Background(), 500*time.Millisecond)
	if err != nil {
		t.Fatalf("FrameAt failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 90 {
		t.Errorf("unexpected frame size %v", b)
	}
}

func TestOpener_MissingFile(t *testing.T) {
	if _, err := NewOpener().Open(context.Background(), "/nonexistent/video.mp4"); err == nil {
		t.Error("expected error")
	}
}

func TestAudioDecoder(t *testing.T) {
	path := makeTestVideo(t, true)

	pcm, err := NewAudioDecoder().DecodeAudio(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeAudio failed: %v", err)
	}
	if pcm.SampleRate != 22050 || pcm.Channels != 1 {
		t.Errorf("expected mono 22050 Hz, got %d ch %d Hz", pcm.Channels, pcm.SampleRate)
	}
	if d := pcm.Duration(); d < 800*time.Millisecond || d > 1200*time.Millisecond {
		t.Errorf("expected ~1s of audio, got %v", d)
	}
}

func TestAudioDecoder_NoAudioTrack(t *testing.T) {
	path := makeTestVideo(t, false)

	if _, err := NewAudioDecoder().DecodeAudio(context.Background(), path); !errors.Is(err, ports.ErrNoAudioTrack) {
		t.Errorf("expected ErrNoAudioTrack, got %v", err)
	}
}
