// Package raster paints character frames onto images.
package raster

import (
	"image"
	"image/color"

	"github.com/user/asciivideo/pkg/ascii"
	"github.com/user/asciivideo/pkg/ports"
)

// DefaultFontSize is the glyph size in pixels for the default 10x18 cell.
const DefaultFontSize = 14

// Options controls rasterization.
type Options struct {
	CellWidth  int
	CellHeight int
	FontSize   float64
	FontPath   string // empty selects the renderer's monospace face
	Background color.Color
}

// DefaultOptions returns a 10x18 cell, 14px glyphs on white.
func DefaultOptions() Options {
	return Options{
		CellWidth:  ascii.DefaultCellWidth,
		CellHeight: ascii.DefaultCellHeight,
		FontSize:   DefaultFontSize,
		Background: color.White,
	}
}

// Rasterizer renders ascii.Frame values through a ports.Renderer.
type Rasterizer struct {
	renderer ports.Renderer
	opts     Options
}

// New creates a Rasterizer. Zero option fields take their defaults.
func New(renderer ports.Renderer, opts Options) *Rasterizer {
	def := DefaultOptions()
	if opts.CellWidth <= 0 {
		opts.CellWidth = def.CellWidth
	}
	if opts.CellHeight <= 0 {
		opts.CellHeight = def.CellHeight
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	return &Rasterizer{renderer: renderer, opts: opts}
}

// Size returns the pixel dimensions of a rasterized frame.
func (r *Rasterizer) Size(frame ascii.Frame) (width, height int) {
	return frame.Width * r.opts.CellWidth, frame.Height * r.opts.CellHeight
}

// Rasterize paints frame. Each non-background cell gets its glyph in the
// cell's colour, top-left aligned; background cells stay blank.
func (r *Rasterizer) Rasterize(frame ascii.Frame) image.Image {
	w, h := r.Size(frame)
	canvas := r.renderer.CreateCanvas(w, h, r.opts.Background)

	style := ports.TextStyle{
		FontSize: r.opts.FontSize,
		FontPath: r.opts.FontPath,
		Align:    ports.AlignLeft,
		Baseline: ports.BaselineTop,
	}

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			cell := frame.At(x, y)
			if cell.IsBackground() {
				continue
			}
			style.Color = cell.Color.RGBA()
			canvas.DrawText(string(cell.Glyph), x*r.opts.CellWidth, y*r.opts.CellHeight, style)
		}
	}

	return canvas.ToImage()
}
