// Package compose converts bitmaps into the controller's 1-bit page layout.
package compose

import (
	"fmt"

	xdraw "golang.org/x/image/draw"

	"github.com/BeatGlow/oled/pixel"
)

// DefaultThreshold is the mid-gray cutoff for grayscale sources.
const DefaultThreshold = 127

// Default compositor: mid-gray threshold and nearest-neighbor resampling.
var Default = Compositor{
	Threshold: DefaultThreshold,
	Scaler:    xdraw.NearestNeighbor,
}

// Compositor rescales and thresholds bitmaps into a framebuffer.
type Compositor struct {
	// Threshold is the fixed cutoff for grayscale sources, intensities above it
	// are lit. Binary sources light every non-zero pixel.
	Threshold uint8

	// Scaler resamples sources whose size differs from the framebuffer. A nil
	// Scaler uses nearest-neighbor.
	Scaler xdraw.Scaler
}

// Compose overwrites dst with src, resampled to the size of dst.
func (c *Compositor) Compose(src *pixel.Bitmap, dst *pixel.VerticalLSB) error {
	if src == nil || src.Rect.Empty() {
		return fmt.Errorf("%w: empty source image", pixel.ErrGeometry)
	}
	if dst == nil || dst.Rect.Empty() || dst.Rect.Dy()%8 != 0 {
		return fmt.Errorf("%w: framebuffer is not page aligned", pixel.ErrGeometry)
	}

	size := dst.Rect.Size()
	if src.Rect.Size() != size {
		src = c.resample(src, size.X, size.Y)
	}

	var (
		width  = size.X
		pages  = size.Y / 8
		origin = src.Rect.Min
	)
	for page := 0; page < pages; page++ {
		for x := 0; x < width; x++ {
			var value byte
			for bit := 0; bit < 8; bit++ {
				if c.lit(src, src.Intensity(origin.X+x, origin.Y+page*8+bit)) {
					value |= 1 << uint(bit)
				}
			}
			dst.Pix[x+page*dst.Stride] = value
		}
	}
	return nil
}

func (c *Compositor) lit(src *pixel.Bitmap, v uint8) bool {
	if src.Binary {
		return v > 0
	}
	return v > c.Threshold
}

func (c *Compositor) resample(src *pixel.Bitmap, w, h int) *pixel.Bitmap {
	scaler := c.Scaler
	if scaler == nil {
		scaler = xdraw.NearestNeighbor
	}
	dst := pixel.NewBitmap(w, h)
	dst.Binary = src.Binary
	scaler.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)
	return dst
}
