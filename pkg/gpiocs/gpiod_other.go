//go:build !linux

package gpiocs

import (
	"fmt"

	"github.com/mbalug7/go-adt7316/pkg/hal"
)

// Open is only implemented on Linux.
func Open(gpioChip string, offset int, conn hal.FrameConn) (*ChipSelect, error) {
	return nil, fmt.Errorf("failed to create GPIO chip %s: gpiod is only available on linux", gpioChip)
}
