package ascii

import "github.com/user/asciivideo/pkg/ports"

// Convert turns a down-sampled source grid into a character frame.
//
// Background detection and cell colour use the sampled pixel; the glyph is
// chosen from the contrast-normalized brightness. Cells are classified in
// row-major order, so a deterministic rnd yields a deterministic frame.
func Convert(src Grid, cfg RenderConfig, rnd ports.RandomSource) Frame {
	norm := Normalize(src)
	threshold := float64(cfg.WhiteThreshold)

	cells := make([]Cell, len(src.Pix))
	for i, p := range src.Pix {
		if Brightness(p) >= threshold {
			cells[i] = Cell{Glyph: Background, Color: p}
			continue
		}
		index := GlyphIndex(Brightness(norm.Pix[i]), cfg, rnd)
		cells[i] = Cell{Glyph: cfg.Ramp[index], Color: p}
	}
	return Frame{Width: src.Width, Height: src.Height, Cells: cells}
}
