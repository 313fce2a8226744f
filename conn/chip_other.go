//go:build !linux

package conn

import "fmt"

// ChipLines is only available on Linux.
type ChipLines struct{}

// OpenChip always fails, GPIO character devices are a Linux feature.
func OpenChip(name string) (*ChipLines, error) {
	return nil, fmt.Errorf("%w: %s: not supported on this platform", ErrLineController, name)
}

func (c *ChipLines) Claim(pin int) (Line, error) {
	return nil, ErrLineController
}

func (c *ChipLines) Close() error {
	return nil
}

var _ LineProvider = (*ChipLines)(nil)
