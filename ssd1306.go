package oled

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/oled/compose"
	"github.com/BeatGlow/oled/conn"
	"github.com/BeatGlow/oled/pixel"
)

// Reset pulse timings, datasheet minimums.
const (
	resetLowTime  = 10 * time.Millisecond
	resetHighTime = 100 * time.Millisecond
)

var sleep = time.Sleep

// Dev is an SSD1306 display. It is not safe for concurrent use, callers must
// serialize access.
type Dev struct {
	c     Conn
	geom  Geometry
	fb    *pixel.VerticalLSB
	comp  *compose.Compositor
	state State
	log   *slog.Logger
}

// Open opens the SPI transport described by config and initializes the display on it.
func Open(config *conn.SPIConfig, opts *Opts) (*Dev, error) {
	c, err := conn.OpenSPI(config)
	if err != nil {
		return nil, err
	}
	return New(c, opts)
}

// New resets and initializes the controller on c, then blanks the panel.
//
// New takes ownership of c; it is closed when New fails.
func New(c Conn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = new(Opts)
		*opts = DefaultOpts
	}

	d := &Dev{
		c:    c,
		geom: Geometry{Width: opts.Width, Height: opts.Height},
		comp: opts.Compositor,
		log:  opts.Logger,
	}
	if d.geom.Width == 0 && d.geom.Height == 0 {
		d.geom = Geometry{Width: DefaultOpts.Width, Height: DefaultOpts.Height}
	}
	if d.comp == nil {
		comp := compose.Default
		d.comp = &comp
	}
	if d.log == nil {
		d.log = slog.Default()
	}

	if err := d.geom.Validate(); err != nil {
		d.abort()
		return nil, err
	}
	d.fb, _ = pixel.NewVerticalLSB(d.geom.Width, d.geom.Height)

	if err := d.init(); err != nil {
		d.abort()
		return nil, fmt.Errorf("%w: %w", ErrSetup, err)
	}

	d.state = Ready
	d.log.Info("display initialized", "display", d.String(), "conn", c.String())
	return d, nil
}

// abort releases the transport after a failed construction.
func (d *Dev) abort() {
	if err := d.c.Close(); err != nil {
		d.log.Warn("release after failed setup", "err", err)
	}
}

func (d *Dev) init() (err error) {
	if err = d.reset(); err != nil {
		return
	}

	comPins := byte(ssd1306ComPinsSeq)
	if d.geom.Height == 64 {
		comPins = ssd1306ComPinsAlt
	}

	// The controller only accepts this order.
	if err = d.commands(
		[]byte{ssd1xxxSetDisplayOff},
		[]byte{ssd1xxxSetDisplayClockDiv, ssd1306ClockDiv},
		[]byte{ssd1xxxSetMultiplexRatio, byte(d.geom.Height - 1)},
		[]byte{ssd1xxxSetDisplayOffset, 0x00},
		[]byte{ssd1xxxSetStartLine},
		[]byte{ssd1xxxSetChargePump, ssd1306ChargePumpOn},
		[]byte{ssd1xxxSetMemoryMode, ssd1306HorizontalMode},
		[]byte{ssd1xxxSetSegmentRemap},
		[]byte{ssd1xxxSetComScanDec},
		[]byte{ssd1xxxSetComPins, comPins},
		[]byte{ssd1xxxSetContrast, ssd1306DefaultContrast},
		[]byte{ssd1xxxSetPrecharge, ssd1306PrechargePeriod},
		[]byte{ssd1xxxSetVCOMDeselect, ssd1306VCOMDeselect},
		[]byte{ssd1xxxSetDisplayAllOnResume},
		[]byte{ssd1xxxSetNormalDisplay},
		[]byte{ssd1xxxSetDisplayOn},
	); err != nil {
		return
	}

	d.fb.Clear()
	return d.flush()
}

func (d *Dev) reset() (err error) {
	if err = d.c.Reset(gpio.Low); err != nil {
		return fmt.Errorf("reset low: %w", err)
	}
	sleep(resetLowTime)
	if err = d.c.Reset(gpio.High); err != nil {
		return fmt.Errorf("reset high: %w", err)
	}
	sleep(resetHighTime)
	return
}

func (d *Dev) commands(commands ...[]byte) (err error) {
	for _, command := range commands {
		if err = d.c.Command(command...); err != nil {
			return fmt.Errorf("command %#02x: %w", command[0], err)
		}
	}
	return
}

func (d *Dev) String() string {
	return fmt.Sprintf("SSD1306 OLED %s", d.geom)
}

// State returns the connection state.
func (d *Dev) State() State {
	return d.state
}

// Bounds is the display bounding box (dimensions).
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.geom.Width, d.geom.Height)
}

// Geometry is the panel size.
func (d *Dev) Geometry() Geometry {
	return d.geom
}

// Framebuffer gives access to the in-memory display RAM mirror. Changes are
// shown on the next Flush.
func (d *Dev) Framebuffer() *pixel.VerticalLSB {
	return d.fb
}

// Clear the framebuffer. The panel is unchanged until the next Flush.
func (d *Dev) Clear() error {
	if d.state != Ready {
		return ErrClosed
	}
	d.fb.Clear()
	return nil
}

// Flush transfers the complete framebuffer to the controller.
//
// A failed flush leaves the device ready, so it can be retried.
func (d *Dev) Flush() error {
	if d.state != Ready {
		return ErrClosed
	}
	return d.flush()
}

func (d *Dev) flush() error {
	if err := d.commands(
		[]byte{ssd1xxxSetColumnAddr, 0x00, byte(d.geom.Width - 1)},
		[]byte{ssd1xxxSetPageAddr, 0x00, byte(d.geom.Pages() - 1)},
	); err != nil {
		return err
	}
	return d.c.Data(d.fb.Pix...)
}

// Display composes img into the framebuffer, replacing its content, and flushes it.
func (d *Dev) Display(img image.Image) error {
	if d.state != Ready {
		return ErrClosed
	}
	if err := d.comp.Compose(pixel.BitmapFromImage(img), d.fb); err != nil {
		return err
	}
	return d.flush()
}

// SetContrast adjusts the contrast level.
func (d *Dev) SetContrast(level uint8) error {
	if d.state != Ready {
		return ErrClosed
	}
	return d.c.Command(ssd1xxxSetContrast, level)
}

// Invert toggles inverse video.
func (d *Dev) Invert(invert bool) error {
	if d.state != Ready {
		return ErrClosed
	}
	if invert {
		return d.c.Command(ssd1xxxSetInvertDisplay)
	}
	return d.c.Command(ssd1xxxSetNormalDisplay)
}

// Close blanks the panel, switches it off and releases the transport.
//
// Blanking failures are logged, the transport is always released. Closing a
// closed device is a no-op.
func (d *Dev) Close() error {
	if d.state == Closed {
		return nil
	}

	d.fb.Clear()
	if err := d.flush(); err != nil {
		d.log.Warn("blank display on close", "display", d.String(), "err", err)
	}
	if err := d.c.Command(ssd1xxxSetDisplayOff); err != nil {
		d.log.Warn("display off on close", "display", d.String(), "err", err)
	}
	d.state = Closed

	if err := d.c.Close(); err != nil {
		return fmt.Errorf("oled: release %s: %w", d.c, err)
	}
	d.log.Info("display closed", "display", d.String())
	return nil
}
