package chromerecorder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/user/asciivideo/pkg/ports"
)

func TestFindChrome_Explicit(t *testing.T) {
	if got := FindChrome("/custom/chrome"); got != "/custom/chrome" {
		t.Errorf("expected explicit path, got %s", got)
	}
}

func TestFindChrome_Env(t *testing.T) {
	t.Setenv(ChromePathEnv, "/env/chrome")

	if got := FindChrome(""); got != "/env/chrome" {
		t.Errorf("expected CHROME_PATH, got %s", got)
	}
	if got := FindChrome("/explicit/chrome"); got != "/explicit/chrome" {
		t.Errorf("expected explicit path to take precedence, got %s", got)
	}
}

func TestLookExecutable(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "chrome")
	if err := os.WriteFile(file, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	if got := lookExecutable(file); got != file {
		t.Errorf("expected %s, got %s", file, got)
	}
	if got := lookExecutable(filepath.Join(dir, "missing")); got != "" {
		t.Errorf("expected empty for missing file, got %s", got)
	}
	if got := lookExecutable("definitely-not-a-browser-binary"); got != "" {
		t.Errorf("expected empty for unknown command, got %s", got)
	}
}

func TestStop_NotStarted(t *testing.T) {
	if _, err := New(DefaultOptions()).Stop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestStart_ChromeMissing(t *testing.T) {
	t.Setenv(ChromePathEnv, "")
	rec := New(Options{ChromePath: "", Headless: true})
	if FindChrome("") != "" {
		t.Skip("a system browser is installed")
	}
	err := rec.Start(context.Background(), ports.RecorderConfig{Width: 10, Height: 10, FPS: 10, MimeType: "video/webm"}, nil)
	if !errors.Is(err, ErrChromeNotFound) {
		t.Errorf("expected ErrChromeNotFound, got %v", err)
	}
}

type testSurface struct {
	mu  sync.Mutex
	img image.Image
}

func (s *testSurface) Snapshot() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img
}

func TestRecorder_RecordsWebM(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if FindChrome("") == "" {
		t.Skip("chrome not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	supported, err := SupportedMimeTypes(ctx, DefaultOptions(), []string{"video/webm;codecs=vp8", "video/mp4;codecs=bogus"})
	if err != nil {
		t.Fatalf("SupportedMimeTypes failed: %v", err)
	}
	if len(supported) == 0 {
		t.Skip("media recorder has no webm support")
	}

	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for p := 0; p < len(img.Pix); p += 4 {
		img.Pix[p+3] = 255
	}
	img.Set(10, 10, color.White)

	rec := New(DefaultOptions())
	cfg := ports.RecorderConfig{Width: 64, Height: 36, FPS: 10, MimeType: supported[0]}
	if err := rec.Start(ctx, cfg, &testSurface{img: img}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	data, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		t.Errorf("expected EBML header, got %d bytes", len(data))
	}
	if rec.Frames() < 2 {
		t.Errorf("expected several snapshots, got %d", rec.Frames())
	}
}
