// Package conn implements the 4-wire SPI bus transport of SSD1306 style controllers.
//
// A transport owns one SPI channel and two discrete output lines: reset, and the
// data/command (D/C) select line whose level tells the controller how to interpret
// the bytes that follow.
package conn

import (
	"errors"
	"fmt"
)

// Transport errors.
var (
	ErrBusOpen = errors.New("conn: SPI bus unavailable")
	ErrClosed  = errors.New("conn: transport is closed")

	// ErrLineClaim is matched by both line claim failure kinds.
	ErrLineClaim = errors.New("conn: GPIO line claim failed")

	// ErrLineController means the GPIO pin controller could not be opened.
	ErrLineController = fmt.Errorf("%w: pin controller unavailable", ErrLineClaim)

	// ErrLineUnavailable means the pin does not exist or is already claimed.
	ErrLineUnavailable = fmt.Errorf("%w: pin unavailable", ErrLineClaim)
)
