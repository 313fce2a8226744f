// Package led switches an indicator LED when the temperature crosses a limit.
package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/oled/conn"
)

// DefaultLimit is the temperature in °C above which the LED is lit.
const DefaultLimit = 30.0

// Indicator drives one LED line. It is not safe for concurrent use.
type Indicator struct {
	line  conn.Line
	limit float64
	lit   bool
}

// New turns the LED off and returns an indicator owning line.
func New(line conn.Line, limit float64) (*Indicator, error) {
	if err := line.Out(gpio.Low); err != nil {
		_ = line.Close()
		return nil, fmt.Errorf("led: %s: %w", line, err)
	}
	return &Indicator{line: line, limit: limit}, nil
}

// Update lights the LED when temp exceeds the limit; a missing reading turns it off.
func (i *Indicator) Update(temp *float64) error {
	return i.set(temp != nil && *temp > i.limit)
}

// Lit reports whether the LED is on.
func (i *Indicator) Lit() bool {
	return i.lit
}

func (i *Indicator) set(on bool) error {
	if i.line == nil {
		return conn.ErrClosed
	}
	if on == i.lit {
		return nil
	}
	if err := i.line.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("led: %s: %w", i.line, err)
	}
	i.lit = on
	return nil
}

// Close turns the LED off and releases its line. Closing twice is a no-op.
func (i *Indicator) Close() error {
	if i.line == nil {
		return nil
	}
	err := i.line.Out(gpio.Low)
	i.lit = false
	if cerr := i.line.Close(); err == nil {
		err = cerr
	}
	i.line = nil
	return err
}
