package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts the 2D drawing and image primitives.
type Renderer interface {
	// CreateCanvas creates a canvas filled with bg.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage scales an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas provides the drawing operations used for raster frames and the
// fallback recording surface.
type Canvas interface {
	// DrawImage draws an image at the specified position.
	DrawImage(img image.Image, x, y int)

	// DrawRect draws a filled rectangle.
	DrawRect(x, y, w, h int, c color.Color)

	// DrawText draws text anchored at (x, y) according to style.
	DrawText(text string, x, y int, style TextStyle)

	// MeasureText returns the width and height of the text.
	MeasureText(text string, style TextStyle) (width, height float64)

	// ToImage returns the canvas as an image.Image.
	ToImage() image.Image
}

// TextStyle defines text rendering properties.
// A zero FontSize and empty FontPath select the renderer's default face.
type TextStyle struct {
	FontSize float64
	FontPath string
	Color    color.Color
	Align    TextAlign
	Baseline TextBaseline
}

// TextAlign specifies horizontal text alignment.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// TextBaseline specifies which part of the text sits on the y coordinate.
type TextBaseline int

const (
	BaselineMiddle TextBaseline = iota
	BaselineTop
	BaselineAlphabetic
)

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)
