// Package preview shows panel frames on a terminal using ANSI color codes.
//
// Useful on a workstation without the panel attached: the frame goes through
// the same compositor as the hardware, so what you see is what the panel shows.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/compose"
	"github.com/BeatGlow/oled/pixel"
)

// Opts represents the options available for the preview.
type Opts struct {
	// Width and Height of the emulated panel, defaults to 128x64.
	Width, Height int

	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette

	// On is the color of a lit pixel, defaults to white.
	On color.Color

	// Compositor defaults to a copy of compose.Default.
	Compositor *compose.Compositor
}

// Dev is a monochrome panel emulator writing to a terminal.
type Dev struct {
	w       io.Writer
	geom    oled.Geometry
	fb      *pixel.VerticalLSB
	comp    *compose.Compositor
	palette ansi256.Palette
	on, off string

	buf bytes.Buffer
}

// New returns a Dev writing to w, or to the colorable stdout when w is nil.
func New(w io.Writer, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = new(Opts)
	}
	if w == nil {
		w = colorable.NewColorableStdout()
	}

	geom := oled.Geometry{Width: opts.Width, Height: opts.Height}
	if geom.Width == 0 && geom.Height == 0 {
		geom = oled.Geometry{Width: 128, Height: 64}
	}
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	fb, err := pixel.NewVerticalLSB(geom.Width, geom.Height)
	if err != nil {
		return nil, err
	}

	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	on := opts.On
	if on == nil {
		on = color.White
	}
	comp := opts.Compositor
	if comp == nil {
		def := compose.Default
		comp = &def
	}

	d := &Dev{
		w:       w,
		geom:    geom,
		fb:      fb,
		comp:    comp,
		palette: *p,
	}
	d.on = d.palette.Block(nrgba(on))
	d.off = d.palette.Block(nrgba(color.Black))
	return d, nil
}

func nrgba(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func (d *Dev) String() string {
	return fmt.Sprintf("Preview %s", d.geom)
}

// Geometry of the emulated panel.
func (d *Dev) Geometry() oled.Geometry {
	return d.geom
}

// Framebuffer returns the last composed frame.
func (d *Dev) Framebuffer() *pixel.VerticalLSB {
	return d.fb
}

// Display composes img and writes the frame.
func (d *Dev) Display(img image.Image) error {
	if err := d.comp.Compose(pixel.BitmapFromImage(img), d.fb); err != nil {
		return err
	}
	return d.Flush()
}

// Flush writes the framebuffer, one terminal line per pixel row.
func (d *Dev) Flush() error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\033[H\033[0m")
	for y := 0; y < d.geom.Height; y++ {
		var (
			row  = (y / 8) * d.geom.Width
			mask = byte(1) << (y & 7)
		)
		for x := 0; x < d.geom.Width; x++ {
			if d.fb.Pix[row+x]&mask != 0 {
				_, _ = d.buf.WriteString(d.on)
			} else {
				_, _ = d.buf.WriteString(d.off)
			}
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

// Close resets the terminal colors.
func (d *Dev) Close() error {
	_, err := io.WriteString(d.w, "\033[0m\n")
	return err
}
