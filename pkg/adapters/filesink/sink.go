// Package filesink writes debug artifacts under a directory:
//
//	run.json
//	frames/source/frame-0000.png
//	frames/ascii/frame-0000.txt
//	frames/raster/frame-0000.png
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/asciivideo/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new Sink rooted at baseDir.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSourceFrame saves a down-sampled source grid as PNG.
func (s *Sink) SaveSourceFrame(index int, img image.Image) error {
	return s.savePNG("source", index, img)
}

// SaveAsciiFrame saves the text rendition of a frame.
func (s *Sink) SaveAsciiFrame(index int, text []byte) error {
	path, err := s.framePath("ascii", index, "txt")
	if err != nil {
		return err
	}
	return s.fs.WriteFile(path, text)
}

// SaveRasterFrame saves a rasterized frame as PNG.
func (s *Sink) SaveRasterFrame(index int, img image.Image) error {
	return s.savePNG("raster", index, img)
}

// SaveRunJSON saves the run metadata.
func (s *Sink) SaveRunJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "run.json"), data)
}

func (s *Sink) savePNG(kind string, index int, img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s frame %d: %w", kind, index, err)
	}
	path, err := s.framePath(kind, index, "png")
	if err != nil {
		return err
	}
	return s.fs.WriteFile(path, data)
}

func (s *Sink) framePath(kind string, index int, ext string) (string, error) {
	dir := filepath.Join(s.baseDir, "frames", kind)
	if err := s.fs.MkdirAll(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("frame-%04d.%s", index, ext)), nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
