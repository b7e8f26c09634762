package ffmpegcmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 V....D libvpx-vp9           libvpx VP9 (codec vp9)
 V....D libvpx               libvpx VP8 (codec vp8)
 A....D aac                  AAC (Advanced Audio Coding)
 S..... ass                  ASS (Advanced SubStation Alpha) subtitle
`

func TestParseEncoders(t *testing.T) {
	got := ParseEncoders(encodersOutput)

	for _, name := range []string{"libx264", "libvpx-vp9", "libvpx", "aac", "ass"} {
		if !got[name] {
			t.Errorf("expected %s to be listed", name)
		}
	}
	if got["="] || got["Video"] {
		t.Error("legend lines must not be parsed as encoders")
	}
	if len(got) != 5 {
		t.Errorf("expected 5 encoders, got %d: %v", len(got), got)
	}
}

func TestFindFFmpeg_CustomPath(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	SetFFmpegPath(fake)
	defer SetFFmpegPath("")

	got, err := FindFFmpeg()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != fake {
		t.Errorf("expected %s, got %s", fake, got)
	}
}

func TestFindFFmpeg_MissingCustomPath(t *testing.T) {
	SetFFmpegPath("/nonexistent/ffmpeg")
	defer SetFFmpegPath("")

	if _, err := FindFFmpeg(); !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestFindFFprobe_EnvPath(t *testing.T) {
	t.Setenv("FFPROBE_PATH", "/nonexistent/ffprobe")

	if _, err := FindFFprobe(); !errors.Is(err, ErrFFprobeNotFound) {
		t.Errorf("expected ErrFFprobeNotFound, got %v", err)
	}
}

func TestTailBuffer(t *testing.T) {
	tb := &tailBuffer{max: 10}
	tb.WriteLine("first line")
	tb.WriteLine("abc")

	got := tb.String()
	if len(got) > 10 || !strings.HasSuffix(got, "abc\n") {
		t.Errorf("unexpected tail %q", got)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	if _, err := Run(context.Background(), Spec{Path: "/nonexistent/ffmpeg"}); err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestRun_FFmpegFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ffmpeg test in short mode")
	}
	path, err := FindFFmpeg()
	if err != nil {
		t.Skip("ffmpeg not available")
	}

	var lines int
	_, err = Run(context.Background(), Spec{
		Path:       path,
		Args:       []string{"-hide_banner", "-i", "/nonexistent/input.mp4"},
		StderrLine: func(string) { lines++ },
	})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
	if lines == 0 {
		t.Error("expected stderr lines")
	}
}

func TestListEncoders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ffmpeg test in short mode")
	}
	path, err := FindFFmpeg()
	if err != nil {
		t.Skip("ffmpeg not available")
	}

	encoders, err := ListEncoders(context.Background(), path)
	if err != nil {
		t.Fatalf("ListEncoders failed: %v", err)
	}
	if !encoders["rawvideo"] {
		t.Error("expected the rawvideo encoder in every ffmpeg build")
	}
}
