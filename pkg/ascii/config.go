package ascii

import (
	"errors"
	"fmt"
)

// Default render parameters.
const (
	DefaultRamp           = "F$V* "
	DefaultNoiseLevel     = 0.15
	DefaultWhiteThreshold = 240
	DefaultCellWidth      = 10
	DefaultCellHeight     = 18
)

var (
	// ErrRampTooShort is returned when the ramp has fewer than two glyphs.
	ErrRampTooShort = errors.New("ascii: glyph ramp needs at least 2 glyphs")
	// ErrInvalidConfig is wrapped by every other validation failure.
	ErrInvalidConfig = errors.New("ascii: invalid render config")
)

// RenderConfig controls glyph classification. Ramp index 0 is used for the
// darkest non-background pixels; the last entry is never selected.
type RenderConfig struct {
	Ramp           []rune
	NoiseLevel     float64 // probability of a ±1 dither step, in [0, 1]
	WhiteThreshold int     // brightness at or above which a pixel is background
	CellWidth      int
	CellHeight     int
}

// DefaultRenderConfig returns the default ramp, noise, threshold and cell size.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Ramp:           []rune(DefaultRamp),
		NoiseLevel:     DefaultNoiseLevel,
		WhiteThreshold: DefaultWhiteThreshold,
		CellWidth:      DefaultCellWidth,
		CellHeight:     DefaultCellHeight,
	}
}

// Validate checks the config ranges.
func (c RenderConfig) Validate() error {
	if len(c.Ramp) < 2 {
		return ErrRampTooShort
	}
	for _, r := range c.Ramp {
		if r == Background {
			return fmt.Errorf("%w: ramp contains NUL", ErrInvalidConfig)
		}
	}
	if c.NoiseLevel < 0 || c.NoiseLevel > 1 {
		return fmt.Errorf("%w: noise level %.2f outside [0,1]", ErrInvalidConfig, c.NoiseLevel)
	}
	if c.WhiteThreshold < 0 || c.WhiteThreshold > 255 {
		return fmt.Errorf("%w: white threshold %d outside [0,255]", ErrInvalidConfig, c.WhiteThreshold)
	}
	if c.CellWidth <= 0 || c.CellHeight <= 0 {
		return fmt.Errorf("%w: cell size %dx%d", ErrInvalidConfig, c.CellWidth, c.CellHeight)
	}
	return nil
}

// GridSize returns the character grid dimensions for a source of
// srcWidth x srcHeight rendered asciiWidth cells wide. The height compensates
// for the cell aspect ratio and is at least 1.
func GridSize(srcWidth, srcHeight, asciiWidth, cellWidth, cellHeight int) (width, height int) {
	if srcWidth <= 0 || srcHeight <= 0 || asciiWidth <= 0 || cellWidth <= 0 || cellHeight <= 0 {
		return 0, 0
	}
	aspect := float64(srcHeight) / float64(srcWidth)
	cellAspect := float64(cellHeight) / float64(cellWidth)
	height = int(float64(asciiWidth) * aspect / cellAspect)
	if height < 1 {
		height = 1
	}
	return asciiWidth, height
}
