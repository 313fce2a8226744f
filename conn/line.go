package conn

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Line is an exclusively claimed output line.
type Line interface {
	String() string

	// Out drives the line to the provided level.
	Out(gpio.Level) error

	// Close releases the claim. Closing a released line is a no-op.
	Close() error
}

// LineProvider claims output lines from a pin controller.
type LineProvider interface {
	// Claim a pin for output, driven low.
	Claim(pin int) (Line, error)

	// Close the pin controller.
	Close() error
}

// PeriphLines claims pins from the periph.io GPIO registry.
//
// The registry is populated by host.Init; an empty registry means no pin
// controller driver could be loaded.
type PeriphLines struct {
	mu      sync.Mutex
	claimed map[int]bool
}

func (p *PeriphLines) Claim(pin int) (Line, error) {
	if len(gpioreg.All()) == 0 {
		return nil, fmt.Errorf("%w: no GPIO driver registered", ErrLineController)
	}

	out := lookupPin(pin)
	if out == nil {
		return nil, fmt.Errorf("%w: GPIO%d not found", ErrLineUnavailable, pin)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.claimed[pin] {
		return nil, fmt.Errorf("%w: GPIO%d already claimed", ErrLineUnavailable, pin)
	}
	if err := out.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%w: GPIO%d: %v", ErrLineUnavailable, pin, err)
	}
	if p.claimed == nil {
		p.claimed = make(map[int]bool)
	}
	p.claimed[pin] = true

	return &periphLine{owner: p, pin: pin, out: out}, nil
}

// lookupPin finds pin by its "GPIO<n>" name, the form host drivers such as
// sysfs register, then by the bare number as an alias.
func lookupPin(pin int) gpio.PinIO {
	for _, name := range []string{"GPIO" + strconv.Itoa(pin), strconv.Itoa(pin)} {
		if out := gpioreg.ByName(name); out != nil && out != gpio.INVALID {
			return out
		}
	}
	return nil
}

func (p *PeriphLines) release(pin int) {
	p.mu.Lock()
	delete(p.claimed, pin)
	p.mu.Unlock()
}

// Close does nothing, periph pins are owned by the host drivers.
func (p *PeriphLines) Close() error {
	return nil
}

type periphLine struct {
	owner    *PeriphLines
	pin      int
	out      gpio.PinOut
	released bool
}

func (l *periphLine) String() string {
	return l.out.String()
}

func (l *periphLine) Out(level gpio.Level) error {
	if l.released {
		return ErrClosed
	}
	return l.out.Out(level)
}

func (l *periphLine) Close() error {
	if !l.released {
		l.released = true
		l.owner.release(l.pin)
	}
	return nil
}

var _ LineProvider = (*PeriphLines)(nil)
