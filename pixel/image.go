package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// ErrGeometry is returned for zero or degenerate image dimensions.
var ErrGeometry = errors.New("pixel: invalid geometry")

// Image is a drawable image that can be cleared or filled.
type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values and is a container that is used by the image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels (or pages).
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0x00
	}
}

func makeBuffer(w, h, stride, size int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, size),
		Stride: stride,
	}
}

// VerticalLSB is a 1-bit per pixel monochrome image in the SSD1xxx page layout.
//
// Each byte holds 8 vertically stacked pixels of one column, the least significant
// bit being the top row of the page. Byte x + page*width encodes column x of page.
type VerticalLSB struct {
	Buffer
}

// NewVerticalLSB returns a dark w×h image. The height must be a positive multiple of 8.
func NewVerticalLSB(w, h int) (*VerticalLSB, error) {
	if w <= 0 || h <= 0 || h%8 != 0 {
		return nil, fmt.Errorf("%w: %dx%d is not page aligned", ErrGeometry, w, h)
	}
	return &VerticalLSB{
		Buffer: makeBuffer(w, h, w, w*(h/8)),
	}, nil
}

// Pages is the number of 8 pixel high bands.
func (p *VerticalLSB) Pages() int {
	return p.Rect.Dy() / 8
}

func (p *VerticalLSB) ColorModel() color.Model {
	return MonoModel
}

func (p *VerticalLSB) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	var (
		pos = y/8*p.Stride + x
		bit = byte(1) << uint(y&7)
	)
	return Mono{
		On: p.Pix[pos]&bit != 0,
	}
}

func (p *VerticalLSB) Set(x, y int, c color.Color) {
	p.SetBit(x, y, monoModel(c).(Mono).On)
}

// SetBit lights or darkens the pixel at (x, y). Out of bounds writes are ignored.
func (p *VerticalLSB) SetBit(x, y int, on bool) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	var (
		pos = y/8*p.Stride + x
		bit = byte(1) << uint(y&7)
	)
	if on {
		p.Pix[pos] |= bit
	} else {
		p.Pix[pos] &^= bit
	}
}

func (p *VerticalLSB) Fill(c color.Color) {
	var value byte
	if monoModel(c).(Mono).On {
		value = 0xff
	}
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

// Bitmap is an 8-bit intensity image, 0 being dark and 255 fully lit.
type Bitmap struct {
	Buffer

	// Binary is set for bitmaps converted from a 1-bit color model. Any
	// non-zero intensity of a binary bitmap is lit.
	Binary bool
}

// NewBitmap returns a dark w×h bitmap.
func NewBitmap(w, h int) *Bitmap {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Bitmap{
		Buffer: makeBuffer(w, h, w, w*h),
	}
}

// BitmapFromImage converts any image to a Bitmap using its luminance.
//
// The result always starts at the origin.
func BitmapFromImage(src image.Image) *Bitmap {
	if b, ok := src.(*Bitmap); ok {
		return b
	}

	r := src.Bounds()
	dst := NewBitmap(r.Dx(), r.Dy())
	switch src := src.(type) {
	case *image.Gray:
		for y := 0; y < r.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[src.PixOffset(r.Min.X, r.Min.Y+y):])
		}
	default:
		for y := 0; y < r.Dy(); y++ {
			for x := 0; x < r.Dx(); x++ {
				dst.Pix[y*dst.Stride+x] = luma(src.At(r.Min.X+x, r.Min.Y+y))
			}
		}
	}
	dst.Binary = src.ColorModel() == MonoModel
	return dst
}

func (p *Bitmap) ColorModel() color.Model {
	return color.GrayModel
}

func (p *Bitmap) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return color.Gray{Y: p.Pix[p.PixOffset(x, y)]}
}

func (p *Bitmap) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = luma(c)
}

// PixOffset returns the index of the pixel at (x, y) in Pix.
func (p *Bitmap) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}

// Intensity returns the raw intensity at (x, y), 0 outside the bounds.
func (p *Bitmap) Intensity(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return 0
	}
	return p.Pix[p.PixOffset(x, y)]
}

func (p *Bitmap) Fill(c color.Color) {
	value := luma(c)
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

// Interface checks.
var (
	_ Image = (*VerticalLSB)(nil)
	_ Image = (*Bitmap)(nil)
)
