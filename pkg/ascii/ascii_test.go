package ascii

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// fixedRand returns the same value on every call.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

// seqRand replays a scripted sequence and then repeats its last value.
type seqRand struct {
	vals []float64
	i    int
}

func (s *seqRand) Float64() float64 {
	v := s.vals[s.i]
	if s.i < len(s.vals)-1 {
		s.i++
	}
	return v
}

func uniformGrid(w, h int, c RGB) Grid {
	g := NewGrid(w, h)
	for i := range g.Pix {
		g.Pix[i] = c
	}
	return g
}

func TestBrightness(t *testing.T) {
	tests := []struct {
		name string
		c    RGB
		want float64
	}{
		{"black", RGB{0, 0, 0}, 0},
		{"white", RGB{255, 255, 255}, 255},
		{"red", RGB{255, 0, 0}, 0.299 * 255},
		{"green", RGB{0, 255, 0}, 0.587 * 255},
		{"blue", RGB{0, 0, 255}, 0.114 * 255},
		{"mixed", RGB{10, 20, 30}, 0.299*10 + 0.587*20 + 0.114*30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Brightness(tt.c)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Brightness(%v) = %f, want %f", tt.c, got, tt.want)
			}
			if again := Brightness(tt.c); again != got {
				t.Errorf("Brightness is not stable: %f then %f", got, again)
			}
		})
	}
}

func TestGlyphIndex_NeverSelectsLastGlyph(t *testing.T) {
	ramps := []string{"AB", "ABC", "ABCD", "ABCDE", "ABCDEF", "ABCDEFG", "ABCDEFGH"}
	sources := map[string]func() *seqRand{
		"no dither":    func() *seqRand { return &seqRand{vals: []float64{0.99}} },
		"dither down":  func() *seqRand { return &seqRand{vals: []float64{0.0, 0.1}} },
		"dither up":    func() *seqRand { return &seqRand{vals: []float64{0.0, 0.9}} },
		"always first": func() *seqRand { return &seqRand{vals: []float64{0}} },
	}

	for _, ramp := range ramps {
		for name, newRand := range sources {
			t.Run(ramp+"/"+name, func(t *testing.T) {
				cfg := DefaultRenderConfig()
				cfg.Ramp = []rune(ramp)
				cfg.NoiseLevel = 0.5
				maxIndex := len(cfg.Ramp) - 2

				for b := 0.0; b < float64(cfg.WhiteThreshold); b += 0.5 {
					idx := GlyphIndex(b, cfg, newRand())
					if idx < 0 || idx > maxIndex {
						t.Fatalf("brightness %.1f: index %d outside [0,%d]", b, idx, maxIndex)
					}
				}
			})
		}
	}
}

func TestGlyphIndex_Dithering(t *testing.T) {
	cfg := DefaultRenderConfig()
	cfg.Ramp = []rune("ABCDEF")
	cfg.NoiseLevel = 0.5
	cfg.WhiteThreshold = 240

	// floor(120/240*5) = 2
	base := GlyphIndex(120, cfg, nil)
	if base != 2 {
		t.Fatalf("expected base index 2, got %d", base)
	}

	if got := GlyphIndex(120, cfg, &seqRand{vals: []float64{0.7}}); got != 2 {
		t.Errorf("draw above noise level should not dither, got %d", got)
	}
	if got := GlyphIndex(120, cfg, &seqRand{vals: []float64{0.2, 0.3}}); got != 1 {
		t.Errorf("expected dither down to 1, got %d", got)
	}
	if got := GlyphIndex(120, cfg, &seqRand{vals: []float64{0.2, 0.8}}); got != 3 {
		t.Errorf("expected dither up to 3, got %d", got)
	}
}

func TestGlyphIndex_NoDitherOnTwoGlyphRamp(t *testing.T) {
	cfg := DefaultRenderConfig()
	cfg.Ramp = []rune("AB")
	cfg.NoiseLevel = 1

	r := &seqRand{vals: []float64{0, 0}}
	if got := GlyphIndex(100, cfg, r); got != 0 {
		t.Errorf("expected index 0, got %d", got)
	}
	if r.i != 0 {
		t.Error("random source should not be consulted for a 2-glyph ramp")
	}
}

func TestClassify(t *testing.T) {
	cfg := DefaultRenderConfig()
	cfg.NoiseLevel = 0

	white := Classify(RGB{250, 250, 250}, cfg, nil)
	if !white.IsBackground() {
		t.Errorf("expected background, got %q", white.Glyph)
	}
	if white.Color != (RGB{250, 250, 250}) {
		t.Errorf("background cell should keep its colour, got %v", white.Color)
	}

	dark := Classify(RGB{10, 40, 200}, cfg, nil)
	if dark.IsBackground() {
		t.Fatal("expected a glyph for a dark pixel")
	}
	if dark.Glyph != 'F' {
		t.Errorf("expected darkest glyph 'F', got %q", dark.Glyph)
	}
	if dark.Color != (RGB{10, 40, 200}) {
		t.Errorf("expected original colour, got %v", dark.Color)
	}
}

func TestNormalize_StretchesToFullRange(t *testing.T) {
	g := NewGrid(3, 1)
	g.Pix[0] = RGB{40, 40, 40}
	g.Pix[1] = RGB{100, 100, 100}
	g.Pix[2] = RGB{180, 180, 180}

	out := Normalize(g)

	minL, maxL := 255.0, 0.0
	for _, p := range out.Pix {
		l := Brightness(p)
		minL = math.Min(minL, l)
		maxL = math.Max(maxL, l)
	}
	if minL > 1 {
		t.Errorf("expected min brightness 0, got %f", minL)
	}
	if maxL < 254 {
		t.Errorf("expected max brightness 255, got %f", maxL)
	}

	if g.Pix[0] != (RGB{40, 40, 40}) {
		t.Error("Normalize must not modify its input")
	}
}

func TestNormalize_PreservesChannelRatios(t *testing.T) {
	g := NewGrid(2, 1)
	g.Pix[0] = RGB{0, 0, 0}
	g.Pix[1] = RGB{100, 50, 20}

	out := Normalize(g)
	p := out.Pix[1]
	if p.R <= p.G || p.G <= p.B {
		t.Errorf("channel order not preserved: %v", p)
	}
}

func TestNormalize_FlatFrameUnchanged(t *testing.T) {
	g := uniformGrid(4, 4, RGB{128, 128, 128})

	out := Normalize(g)
	for i, p := range out.Pix {
		if p != (RGB{128, 128, 128}) {
			t.Fatalf("pixel %d changed to %v", i, p)
		}
	}
}

func TestConvert_AllWhiteIsBackground(t *testing.T) {
	cfg := DefaultRenderConfig()

	g := NewGrid(4, 2)
	for i := range g.Pix {
		v := uint8(240 + i)
		g.Pix[i] = RGB{v, v, v}
	}

	f := Convert(g, cfg, fixedRand(0))
	for i, c := range f.Cells {
		if !c.IsBackground() {
			t.Errorf("cell %d: expected background, got %q", i, c.Glyph)
		}
	}
}

func TestConvert_UniformGrayScenario(t *testing.T) {
	cfg := RenderConfig{
		Ramp:           []rune("AB "),
		NoiseLevel:     0,
		WhiteThreshold: 240,
		CellWidth:      10,
		CellHeight:     18,
	}

	w, h := GridSize(10, 10, 10, cfg.CellWidth, cfg.CellHeight)
	if w != 10 || h != 5 {
		t.Fatalf("expected 10x5 grid, got %dx%d", w, h)
	}

	gray := RGB{128, 128, 128}
	for frame := 0; frame < 20; frame++ {
		f := Convert(uniformGrid(w, h, gray), cfg, nil)
		if len(f.Cells) != w*h {
			t.Fatalf("frame %d: expected %d cells, got %d", frame, w*h, len(f.Cells))
		}
		for i, c := range f.Cells {
			if c.Glyph != 'B' || c.Color != gray {
				t.Fatalf("frame %d cell %d: got {%q %v}, want {'B' %v}", frame, i, c.Glyph, c.Color, gray)
			}
		}
	}
}

func TestConvert_Deterministic(t *testing.T) {
	cfg := DefaultRenderConfig()
	cfg.NoiseLevel = 0.5

	g := NewGrid(8, 1)
	for i := range g.Pix {
		v := uint8(i * 28)
		g.Pix[i] = RGB{v, v, v}
	}

	a := Convert(g, cfg, &seqRand{vals: []float64{0.1, 0.9, 0.3, 0.2, 0.8}})
	b := Convert(g, cfg, &seqRand{vals: []float64{0.1, 0.9, 0.3, 0.2, 0.8}})
	if a.String() != b.String() {
		t.Errorf("same random sequence gave different frames:\n%q\n%q", a.String(), b.String())
	}
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		srcW, srcH, asciiW int
		wantW, wantH       int
	}{
		{1920, 1080, 120, 120, 37},
		{640, 480, 80, 80, 33},
		{10, 10, 10, 10, 5},
		{1000, 10, 40, 40, 1},
		{0, 10, 40, 0, 0},
	}

	for _, tt := range tests {
		w, h := GridSize(tt.srcW, tt.srcH, tt.asciiW, 10, 18)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("GridSize(%d,%d,%d) = %dx%d, want %dx%d", tt.srcW, tt.srcH, tt.asciiW, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestGridFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	g := GridFromImage(img)
	if g.Width != 3 || g.Height != 2 {
		t.Fatalf("expected 3x2, got %dx%d", g.Width, g.Height)
	}
	if g.At(2, 1) != (RGB{1, 2, 3}) {
		t.Errorf("unexpected pixel %v", g.At(2, 1))
	}

	sub := img.SubImage(image.Rect(1, 1, 3, 2))
	sg := GridFromImage(sub)
	if sg.Width != 2 || sg.At(1, 0) != (RGB{1, 2, 3}) {
		t.Errorf("sub-image not honoured: %dx%d %v", sg.Width, sg.Height, sg.At(1, 0))
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Set(0, 0, color.Gray{Y: 77})
	if got := GridFromImage(gray).At(0, 0); got != (RGB{77, 77, 77}) {
		t.Errorf("generic path: got %v", got)
	}
}

func TestFrameString(t *testing.T) {
	f := Frame{Width: 2, Height: 2, Cells: []Cell{
		{Glyph: 'A'}, {Glyph: Background},
		{Glyph: Background}, {Glyph: '$'},
	}}
	if got, want := f.String(), "A \n $\n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRenderConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RenderConfig)
		wantErr bool
	}{
		{"default", func(c *RenderConfig) {}, false},
		{"short ramp", func(c *RenderConfig) { c.Ramp = []rune("A") }, true},
		{"negative noise", func(c *RenderConfig) { c.NoiseLevel = -0.1 }, true},
		{"noise above one", func(c *RenderConfig) { c.NoiseLevel = 1.5 }, true},
		{"threshold too high", func(c *RenderConfig) { c.WhiteThreshold = 256 }, true},
		{"zero cell", func(c *RenderConfig) { c.CellWidth = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRenderConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
