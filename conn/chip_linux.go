package conn

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
)

// ChipLines claims lines from a Linux GPIO character device (/dev/gpiochipN).
type ChipLines struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO chip, such as "gpiochip0".
func OpenChip(name string) (*ChipLines, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLineController, name, err)
	}
	return &ChipLines{chip: chip}, nil
}

func (c *ChipLines) Claim(pin int) (Line, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %s line %d: %v", ErrLineUnavailable, c.chip.Name, pin, err)
	}
	return &chipLine{name: fmt.Sprintf("%s:%d", c.chip.Name, pin), line: line}, nil
}

func (c *ChipLines) Close() error {
	return c.chip.Close()
}

type chipLine struct {
	name string
	line *gpiocdev.Line
}

func (l *chipLine) String() string {
	return l.name
}

func (l *chipLine) Out(level gpio.Level) error {
	if l.line == nil {
		return ErrClosed
	}
	var v int
	if level == gpio.High {
		v = 1
	}
	return l.line.SetValue(v)
}

func (l *chipLine) Close() error {
	if l.line == nil {
		return nil
	}
	err := l.line.Close()
	l.line = nil
	return err
}

var _ LineProvider = (*ChipLines)(nil)
