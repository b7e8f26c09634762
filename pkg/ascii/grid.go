// Package ascii implements the frame transform: luminance mapping, contrast
// normalization and glyph classification of down-sampled video frames.
package ascii

import (
	"image"
	"image/color"
	"strings"
)

// RGB is an opaque 8-bit colour.
type RGB struct {
	R, G, B uint8
}

// RGBA converts the colour to an opaque color.RGBA.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Grid is a row-major pixel buffer with its origin at the top-left corner.
type Grid struct {
	Width  int
	Height int
	Pix    []RGB
}

// NewGrid allocates a black grid.
func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height, Pix: make([]RGB, width*height)}
}

// GridFromImage copies the pixels of img into a new grid.
// Alpha is ignored; sampled video frames are opaque.
func GridFromImage(img image.Image) Grid {
	b := img.Bounds()
	g := NewGrid(b.Dx(), b.Dy())

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < g.Height; y++ {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < g.Width; x++ {
				g.Pix[y*g.Width+x] = RGB{R: row[x*4], G: row[x*4+1], B: row[x*4+2]}
			}
		}
		return g
	}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			g.Pix[y*g.Width+x] = RGB{R: c.R, G: c.G, B: c.B}
		}
	}
	return g
}

// At returns the pixel at (x, y).
func (g Grid) At(x, y int) RGB {
	return g.Pix[y*g.Width+x]
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	pix := make([]RGB, len(g.Pix))
	copy(pix, g.Pix)
	return Grid{Width: g.Width, Height: g.Height, Pix: pix}
}

// Image renders the grid as an RGBA image.
func (g Grid) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for i, p := range g.Pix {
		img.Pix[i*4] = p.R
		img.Pix[i*4+1] = p.G
		img.Pix[i*4+2] = p.B
		img.Pix[i*4+3] = 255
	}
	return img
}

// Background is the glyph value of a cell whose glyph is suppressed.
const Background rune = 0

// Cell is one position of the character grid.
type Cell struct {
	Glyph rune
	Color RGB
}

// IsBackground reports whether the cell draws nothing.
func (c Cell) IsBackground() bool {
	return c.Glyph == Background
}

// Frame is a character frame of Width x Height cells in row-major order.
type Frame struct {
	Width  int
	Height int
	Cells  []Cell
}

// At returns the cell at (x, y).
func (f Frame) At(x, y int) Cell {
	return f.Cells[y*f.Width+x]
}

// String renders the frame as text, one line per row, with background
// cells shown as spaces.
func (f Frame) String() string {
	var sb strings.Builder
	sb.Grow((f.Width + 1) * f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			if c.IsBackground() {
				sb.WriteByte(' ')
				continue
			}
			sb.WriteRune(c.Glyph)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
