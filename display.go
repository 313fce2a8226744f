// Package oled drives SSD1306 monochrome OLED controllers over a 4-wire SPI bus.
//
// A [Dev] owns its transport: constructing one resets and initializes the
// controller, every [Dev.Flush] transfers the complete framebuffer, and
// [Dev.Close] blanks the panel, powers it off and releases the bus.
package oled

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/oled/compose"
	"github.com/BeatGlow/oled/pixel"
)

// Errors
var (
	ErrSetup  = errors.New("oled: setup sequence failed")
	ErrClosed = errors.New("oled: operation on closed device")
)

// Conn is the connection interface for communicating with hardware.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Reset sets the reset pin to the provided level.
	Reset(gpio.Level) error

	// Command sends command bytes, arguments included.
	Command(...byte) error

	// Data sends display RAM bytes.
	Data(...byte) error
}

// Geometry is the panel size in pixels.
type Geometry struct {
	Width  int
	Height int
}

// Pages is the number of 8 pixel high memory pages.
func (g Geometry) Pages() int {
	return g.Height / 8
}

// Validate checks the geometry fits the controller's page addressed RAM.
func (g Geometry) Validate() error {
	switch {
	case g.Width <= 0 || g.Height <= 0:
		return fmt.Errorf("oled: %w: %dx%d", pixel.ErrGeometry, g.Width, g.Height)
	case g.Height%8 != 0:
		return fmt.Errorf("oled: %w: height %d is not a multiple of 8", pixel.ErrGeometry, g.Height)
	case g.Height < ssd1306MinHeight:
		return fmt.Errorf("oled: %w: height %d is below the %d row multiplex minimum", pixel.ErrGeometry, g.Height, ssd1306MinHeight)
	case g.Width > ssd1306MaxWidth || g.Height > ssd1306MaxHeight:
		return fmt.Errorf("oled: %w: %dx%d exceeds %dx%d", pixel.ErrGeometry, g.Width, g.Height, ssd1306MaxWidth, ssd1306MaxHeight)
	}
	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// State of the controller connection.
type State uint8

// Connection states.
const (
	Uninitialized State = iota
	Ready
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Opts is the display configuration.
type Opts struct {
	// Width of the display in pixels.
	Width int

	// Height of the display in pixels, a multiple of 8.
	Height int

	// Compositor converts images passed to Display, defaults to a copy of compose.Default.
	Compositor *compose.Compositor

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOpts describes the common 128×64 panel.
var DefaultOpts = Opts{
	Width:  ssd1306MaxWidth,
	Height: ssd1306MaxHeight,
}
