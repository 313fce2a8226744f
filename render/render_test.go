package render

import (
	"errors"
	"image"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/compose"
	"github.com/BeatGlow/oled/pixel"
)

// testDisplay composes into a framebuffer the way the driver does.
type testDisplay struct {
	fb    *pixel.VerticalLSB
	calls int
	err   error
}

func newTestDisplay(t *testing.T) *testDisplay {
	t.Helper()
	fb, err := pixel.NewVerticalLSB(128, 64)
	if err != nil {
		t.Fatal(err)
	}
	return &testDisplay{fb: fb}
}

func (d *testDisplay) Geometry() oled.Geometry {
	return oled.Geometry{Width: 128, Height: 64}
}

func (d *testDisplay) Display(img image.Image) error {
	d.calls++
	if d.err != nil {
		return d.err
	}
	return compose.Default.Compose(pixel.BitmapFromImage(img), d.fb)
}

func float(v float64) *float64 {
	return &v
}

func TestLines(t *testing.T) {
	r := NewRenderer(nil)
	tests := []struct {
		name   string
		sample WeatherSample
		want   [3]string
	}{
		{
			"complete",
			WeatherSample{Temperature: float(31.5), Pressure: float(1008), Condition: "clear sky"},
			[3]string{"Temp: 31.5C", "Pres: 1008hPa", "Cond: Clear sky"},
		},
		{
			"empty",
			WeatherSample{},
			[3]string{"Temp: N/A", "Pres: N/A", "Cond: N/A"},
		},
		{
			"rounding",
			WeatherSample{Temperature: float(-3.26), Pressure: float(1012.6), Condition: "LIGHT RAIN"},
			[3]string{"Temp: -3.3C", "Pres: 1013hPa", "Cond: Light rain"},
		},
		{
			"zero readings",
			WeatherSample{Temperature: float(0), Pressure: float(0), Condition: "éclaircies"},
			[3]string{"Temp: 0.0C", "Pres: 0hPa", "Cond: Éclaircies"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(it *testing.T) {
			if got := r.Lines(test.sample, 128); got != test.want {
				it.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}

func TestLinesTruncate(t *testing.T) {
	r := NewRenderer(nil)
	lines := r.Lines(WeatherSample{Condition: "thunderstorm with heavy drizzle and hail"}, 128)
	cond := lines[2]
	if !strings.HasSuffix(cond, "...") {
		t.Errorf("expected ellipsis, got %q", cond)
	}
	if !strings.HasPrefix(cond, "Cond: Thunder") {
		t.Errorf("expected condition prefix kept, got %q", cond)
	}
	if w := font.MeasureString(basicfont.Face7x13, cond).Ceil(); w > 128-DefaultPadding {
		t.Errorf("truncated line is %dpx wide, exceeds %dpx", w, 128-DefaultPadding)
	}
}

func TestPipelineRender(t *testing.T) {
	d := newTestDisplay(t)
	p := &Pipeline{Out: d, Renderer: NewRenderer(nil)}

	sample := WeatherSample{Temperature: float(31.5), Pressure: float(1008), Condition: "clear sky"}
	if err := p.Render(sample); err != nil {
		t.Fatal(err)
	}

	// basicfont.Face7x13 lines are 13 pixels apart starting at row 2.
	lit := func(page, fromX, toX int) bool {
		for x := fromX; x < toX; x++ {
			if d.fb.Pix[x+page*128] != 0 {
				return true
			}
		}
		return false
	}
	for line, pages := range [][]int{{0, 1}, {2, 3}, {4, 5}} {
		if !lit(pages[0], 0, 128) && !lit(pages[1], 0, 128) {
			t.Errorf("line %d: expected glyph pixels in pages %v", line, pages)
		}
	}
	for page := 6; page < 8; page++ {
		if lit(page, 0, 128) {
			t.Errorf("expected page %d below the text to be dark", page)
		}
	}
	// "Temp: 31.5C" is 77 pixels wide, page 0 only holds the first line.
	if lit(0, 90, 128) {
		t.Error("expected page 0 right of the temperature to be dark")
	}

	// Rendering is stateless: a new sample replaces everything.
	first := append([]byte(nil), d.fb.Pix...)
	if err := p.Render(WeatherSample{}); err != nil {
		t.Fatal(err)
	}
	if string(first) == string(d.fb.Pix) {
		t.Error("expected a different frame for a different sample")
	}
	if !lit(0, 0, 128) || lit(6, 0, 128) {
		t.Error("expected the N/A frame to draw only the text area")
	}
}

func TestPipelineRenderError(t *testing.T) {
	d := newTestDisplay(t)
	d.err = oled.ErrClosed
	p := &Pipeline{Out: d}
	if err := p.Render(WeatherSample{}); !errors.Is(err, oled.ErrClosed) {
		t.Fatalf("expected display error, got %v", err)
	}
}

func TestCanvasTrueType(t *testing.T) {
	face, err := ParseFace(goregular.TTF, 12)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRenderer(face)
	canvas := r.Canvas(WeatherSample{Temperature: float(20)}, oled.Geometry{Width: 128, Height: 64})
	if v := canvas.Bounds().Size(); v != image.Pt(128, 64) {
		t.Fatalf("expected 128x64 canvas, got %s", v)
	}
	var lit int
	for _, v := range canvas.Pix {
		if v > compose.DefaultThreshold {
			lit++
		}
	}
	if lit == 0 {
		t.Error("expected TrueType text to light pixels")
	}
}

func TestParseFaceInvalid(t *testing.T) {
	if _, err := ParseFace([]byte("not a font"), 12); err == nil {
		t.Error("expected an error for invalid font data")
	}
	if _, err := LoadFace("testdata/missing.ttf", 12); err == nil {
		t.Error("expected an error for a missing font file")
	}
}
