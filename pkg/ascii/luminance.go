package ascii

import (
	"math"

	"github.com/user/asciivideo/pkg/ports"
)

// BT.601 luma weights, applied to gamma-encoded values.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Brightness returns the BT.601 luma of c in [0, 255].
func Brightness(c RGB) float64 {
	return lumaR*float64(c.R) + lumaG*float64(c.G) + lumaB*float64(c.B)
}

// GlyphIndex maps a brightness below the white threshold to a ramp index in
// [0, len(Ramp)-2]. With a non-zero noise level and a ramp longer than two
// glyphs, the index moves one step up or down with probability NoiseLevel.
// A nil rnd disables dithering.
func GlyphIndex(brightness float64, cfg RenderConfig, rnd ports.RandomSource) int {
	n := len(cfg.Ramp)
	maxIndex := n - 2

	index := 0
	if cfg.WhiteThreshold > 0 {
		index = int(math.Floor(brightness / float64(cfg.WhiteThreshold) * float64(n-1)))
	}
	index = clampIndex(index, maxIndex)

	if rnd != nil && cfg.NoiseLevel > 0 && n > 2 {
		if rnd.Float64() < cfg.NoiseLevel {
			if rnd.Float64() < 0.5 {
				index--
			} else {
				index++
			}
			index = clampIndex(index, maxIndex)
		}
	}
	return index
}

// Classify maps one pixel to a cell. Pixels at or above the white threshold
// become background. The cell keeps the input colour in both cases.
func Classify(c RGB, cfg RenderConfig, rnd ports.RandomSource) Cell {
	b := Brightness(c)
	if b >= float64(cfg.WhiteThreshold) {
		return Cell{Glyph: Background, Color: c}
	}
	return Cell{Glyph: cfg.Ramp[GlyphIndex(b, cfg, rnd)], Color: c}
}

func clampIndex(index, maxIndex int) int {
	if index < 0 {
		return 0
	}
	if index > maxIndex {
		return maxIndex
	}
	return index
}
