//go:build linux

package gpiocs

import (
	"fmt"

	"github.com/mbalug7/go-adt7316/pkg/hal"
	"github.com/warthog618/gpiod"
)

// Open requests offset on gpioChip (e.g. "gpiochip0") as an output held high and wraps conn with it.
func Open(gpioChip string, offset int, conn hal.FrameConn) (*ChipSelect, error) {
	c, err := gpiod.NewChip(gpioChip, gpiod.WithConsumer("adt7316-cs"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GPIO chip: %w", err)
	}
	l, err := c.RequestLine(offset, gpiod.AsOutput(1))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to request chip select GPIO line: %w", err)
	}
	cs := New(conn, l)
	cs.chip = c
	return cs, nil
}
