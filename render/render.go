// Package render composes weather readings into a panel sized bitmap.
package render

import (
	"fmt"
	"image"
	"image/color"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/pixel"
)

// DefaultPadding is the left and top margin in pixels.
const DefaultPadding = 2

const (
	notAvailable = "N/A"
	ellipsis     = "..."
)

// WeatherSample is one weather update. Absent readings are nil or empty.
type WeatherSample struct {
	// Temperature in °C.
	Temperature *float64

	// Pressure in hPa.
	Pressure *float64

	// Condition is a short description, such as "clear sky".
	Condition string
}

// Renderer draws three left aligned text lines: temperature, pressure and condition.
type Renderer struct {
	// Face is the font, defaults to basicfont.Face7x13.
	Face font.Face

	// Padding is the left and top margin.
	Padding int

	// LineHeight is the distance between line tops, defaults to the face height.
	LineHeight int
}

// NewRenderer returns a renderer using face, or the default face when nil.
func NewRenderer(face font.Face) *Renderer {
	if face == nil {
		face = basicfont.Face7x13
	}
	return &Renderer{
		Face:    face,
		Padding: DefaultPadding,
	}
}

func (r *Renderer) face() font.Face {
	if r.Face == nil {
		return basicfont.Face7x13
	}
	return r.Face
}

func (r *Renderer) lineHeight() int {
	if r.LineHeight > 0 {
		return r.LineHeight
	}
	return r.face().Metrics().Height.Ceil()
}

// Lines formats the sample for a panel width pixels wide. The condition line
// is truncated with an ellipsis when it would overflow.
func (r *Renderer) Lines(s WeatherSample, width int) [3]string {
	lines := [3]string{
		"Temp: " + notAvailable,
		"Pres: " + notAvailable,
		"Cond: " + notAvailable,
	}
	if s.Temperature != nil {
		lines[0] = fmt.Sprintf("Temp: %.1fC", *s.Temperature)
	}
	if s.Pressure != nil {
		lines[1] = fmt.Sprintf("Pres: %.0fhPa", *s.Pressure)
	}
	if s.Condition != "" {
		lines[2] = r.fit("Cond: "+capitalize(s.Condition), width-r.Padding)
	}
	return lines
}

// fit shortens s until it is at most limit pixels wide.
func (r *Renderer) fit(s string, limit int) string {
	face := r.face()
	if font.MeasureString(face, s).Ceil() <= limit {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		t := string(runes[:n]) + ellipsis
		if font.MeasureString(face, t).Ceil() <= limit {
			return t
		}
	}
	return ellipsis
}

// Canvas draws the sample on a blank bitmap of the panel size.
func (r *Renderer) Canvas(s WeatherSample, g oled.Geometry) *pixel.Bitmap {
	if g.Width <= 0 || g.Height <= 0 {
		return pixel.NewBitmap(0, 0)
	}

	var (
		face   = r.face()
		ascent = face.Metrics().Ascent.Ceil()
		height = r.lineHeight()
		dc     = gg.NewContext(g.Width, g.Height)
	)
	dc.SetColor(color.Black)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetColor(color.White)
	for i, line := range r.Lines(s, g.Width) {
		top := r.Padding + i*height
		dc.DrawString(line, float64(r.Padding), float64(top+ascent))
	}
	return pixel.BitmapFromImage(dc.Image())
}

// capitalize upper cases the first letter and lower cases the rest.
func capitalize(s string) string {
	_, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return cases.Upper(language.Und).String(s[:n]) + cases.Lower(language.Und).String(s[n:])
}

// Displayer shows images on a panel.
type Displayer interface {
	Display(image.Image) error
	Geometry() oled.Geometry
}

// Pipeline renders samples and hands them to a display. It keeps no state
// between calls, every call replaces the whole panel.
type Pipeline struct {
	Out      Displayer
	Renderer *Renderer
}

// Render draws s and shows it on the display.
func (p *Pipeline) Render(s WeatherSample) error {
	r := p.Renderer
	if r == nil {
		r = NewRenderer(nil)
	}
	if err := p.Out.Display(r.Canvas(s, p.Out.Geometry())); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

var _ Displayer = (*oled.Dev)(nil)
