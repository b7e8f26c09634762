package mocks

import (
	"image"
	"image/color"
	"sync"

	"github.com/user/asciivideo/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image

	mu       sync.Mutex
	Canvases []*Canvas
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := &Canvas{Width: width, Height: height, Background: bg}
	m.mu.Lock()
	m.Canvases = append(m.Canvases, c)
	m.mu.Unlock()
	return c
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// TextCall records a call to Canvas.DrawText.
type TextCall struct {
	Text  string
	X, Y  int
	Style ports.TextStyle
}

// Canvas is a mock implementation of ports.Canvas that records text draws.
type Canvas struct {
	Width      int
	Height     int
	Background color.Color

	TextCalls []TextCall
	RectCalls int
	img       *image.RGBA
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {
	m.RectCalls++
}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.TextCalls = append(m.TextCalls, TextCall{Text: text, X: x, Y: y, Style: style})
}

func (m *Canvas) MeasureText(text string, style ports.TextStyle) (float64, float64) {
	return float64(len([]rune(text))) * style.FontSize * 0.6, style.FontSize
}

func (m *Canvas) ToImage() image.Image {
	if m.img != nil {
		return m.img
	}
	return image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
}

var _ ports.Canvas = (*Canvas)(nil)
