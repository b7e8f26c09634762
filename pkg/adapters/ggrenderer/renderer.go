// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"

	"github.com/user/asciivideo/pkg/ports"
)

// DefaultFontSize is used when a TextStyle leaves FontSize at zero.
const DefaultFontSize = 14

// Renderer implements ports.Renderer using the gg library.
// Text is drawn with the embedded Go Mono face unless a style names a font file.
type Renderer struct {
	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	path string
	size float64
}

var (
	monoOnce sync.Once
	monoFont *opentype.Font
	monoErr  error
)

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{faces: make(map[faceKey]font.Face)}
}

// CreateCanvas creates a new drawing canvas.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc, r: r}
}

// DecodeImage decodes image data into an image.Image.
func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	reader := bytes.NewReader(data)

	switch format {
	case ports.FormatJPEG:
		return jpeg.Decode(reader)
	case ports.FormatPNG:
		return png.Decode(reader)
	default:
		img, _, err := image.Decode(reader)
		return img, err
	}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage resizes an image to the specified dimensions.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// face returns a cached face for the style. Faces are not safe for
// concurrent use, so each canvas holds the renderer lock while drawing.
func (r *Renderer) face(style ports.TextStyle) (font.Face, error) {
	size := style.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	key := faceKey{path: style.FontPath, size: size}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}

	var (
		f   font.Face
		err error
	)
	if style.FontPath != "" {
		f, err = gg.LoadFontFace(style.FontPath, size)
	} else {
		f, err = monoFace(size)
	}
	if err != nil {
		return nil, err
	}
	r.faces[key] = f
	return f, nil
}

func monoFace(size float64) (font.Face, error) {
	monoOnce.Do(func() {
		monoFont, monoErr = opentype.Parse(gomono.TTF)
	})
	if monoErr != nil {
		return nil, fmt.Errorf("parse Go Mono: %w", monoErr)
	}
	return opentype.NewFace(monoFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
	r  *Renderer
}

// DrawImage draws an image at the specified position.
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	c.dc.DrawImage(img, x, y)
}

// DrawRect draws a filled rectangle.
func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

// DrawText draws text at the specified position.
// If the font cannot be loaded the canvas keeps its current face.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()

	var ascent float64
	if f, err := c.r.face(style); err == nil {
		c.dc.SetFontFace(f)
		ascent = float64(f.Metrics().Ascent) / 64
	}
	if style.Color != nil {
		c.dc.SetColor(style.Color)
	} else {
		c.dc.SetColor(color.Black)
	}

	ax := 0.0
	switch style.Align {
	case ports.AlignCenter:
		ax = 0.5
	case ports.AlignRight:
		ax = 1.0
	}

	switch style.Baseline {
	case ports.BaselineTop:
		c.dc.DrawStringAnchored(text, float64(x), float64(y)+ascent, ax, 0)
	case ports.BaselineAlphabetic:
		c.dc.DrawStringAnchored(text, float64(x), float64(y), ax, 0)
	default:
		c.dc.DrawStringAnchored(text, float64(x), float64(y), ax, 0.5)
	}
}

// MeasureText returns the rendered width and height of text.
func (c *Canvas) MeasureText(text string, style ports.TextStyle) (float64, float64) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()

	if f, err := c.r.face(style); err == nil {
		c.dc.SetFontFace(f)
	}
	return c.dc.MeasureString(text)
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
