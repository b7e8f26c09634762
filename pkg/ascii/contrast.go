package ascii

import "math"

// Normalize stretches the brightness range of g to [0, 255]. Each pixel is
// scaled by newL/L so channel ratios are kept; channels are clamped to
// [0, 255]. A flat grid (all pixels with equal brightness) is returned
// unchanged. The input is never modified.
func Normalize(g Grid) Grid {
	out := g.Clone()
	if len(out.Pix) == 0 {
		return out
	}

	minL, maxL := math.Inf(1), math.Inf(-1)
	for _, p := range out.Pix {
		l := Brightness(p)
		minL = math.Min(minL, l)
		maxL = math.Max(maxL, l)
	}
	if maxL == minL {
		return out
	}

	span := math.Max(maxL-minL, 1)
	for i, p := range out.Pix {
		l := Brightness(p)
		factor := 1.0
		if l > 0 {
			factor = (l - minL) / span * 255 / l
		}
		out.Pix[i] = RGB{
			R: scaleChannel(p.R, factor),
			G: scaleChannel(p.G, factor),
			B: scaleChannel(p.B, factor),
		}
	}
	return out
}

func scaleChannel(v uint8, factor float64) uint8 {
	x := math.Round(float64(v) * factor)
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}
