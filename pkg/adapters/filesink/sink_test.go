package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/asciivideo/pkg/mocks"
	"github.com/user/asciivideo/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func pngRenderer() *mocks.Renderer {
	return &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			if format != ports.FormatPNG {
				return nil, errors.New("expected png")
			}
			return []byte("png"), nil
		},
	}
}

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.Renderer{})
	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveFrames(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, pngRenderer())
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	if err := sink.SaveSourceFrame(3, img); err != nil {
		t.Fatalf("SaveSourceFrame failed: %v", err)
	}
	if err := sink.SaveRasterFrame(12, img); err != nil {
		t.Fatalf("SaveRasterFrame failed: %v", err)
	}
	if err := sink.SaveAsciiFrame(7, []byte("@@..\n")); err != nil {
		t.Fatalf("SaveAsciiFrame failed: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(testBaseDir, "frames", "source", "frame-0003.png"), "png"},
		{filepath.Join(testBaseDir, "frames", "raster", "frame-0012.png"), "png"},
		{filepath.Join(testBaseDir, "frames", "ascii", "frame-0007.txt"), "@@..\n"},
	}
	for _, tt := range tests {
		got, ok := fs.GetFile(tt.path)
		if !ok {
			t.Errorf("expected file at %s", tt.path)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.want, got)
		}
	}
}

func TestSink_SaveRunJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte(`{"runId":"x"}`)
	if err := sink.SaveRunJSON(data); err != nil {
		t.Fatalf("SaveRunJSON failed: %v", err)
	}
	got, ok := fs.GetFile(filepath.Join(testBaseDir, "run.json"))
	if !ok || string(got) != string(data) {
		t.Errorf("expected %q, got %q (found=%t)", data, got, ok)
	}
}

func TestSink_EncodeError(t *testing.T) {
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(image.Image, ports.ImageFormat, int) ([]byte, error) {
			return nil, errors.New("boom")
		},
	}
	sink := New(testBaseDir, mocks.NewFileSystem(), renderer)
	if err := sink.SaveRasterFrame(0, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected encode error")
	}
}
