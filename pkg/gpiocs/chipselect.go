// Package gpiocs drives SPI chip select from a GPIO line, for spidev nodes opened
// with spidev.NoCS or buses with more chips than hardware chip selects.
package gpiocs

import (
	"fmt"
	"io"
	"sync"

	"github.com/mbalug7/go-adt7316/pkg/hal"
)

// Line is an output GPIO line. *gpiod.Line satisfies it.
type Line interface {
	SetValue(value int) error
	Close() error
}

// ChipSelect asserts an active low chip select around every exchange of the wrapped conn.
type ChipSelect struct {
	conn hal.FrameConn
	cs   Line
	chip io.Closer  // owned GPIO chip, nil when the line was handed in
	mu   sync.Mutex // fallback lock when conn has none
}

// New wraps conn with cs. The line must already be an output driven high.
func New(conn hal.FrameConn, cs Line) *ChipSelect {
	return &ChipSelect{conn: conn, cs: cs}
}

func (obj *ChipSelect) Tx(w, r []byte) (err error) {
	if err := obj.cs.SetValue(0); err != nil {
		return fmt.Errorf("failed to assert chip select: %w", err)
	}
	defer func() {
		if csErr := obj.cs.SetValue(1); csErr != nil && err == nil {
			err = fmt.Errorf("failed to release chip select: %w", csErr)
		}
	}()
	return obj.conn.Tx(w, r)
}

// Lock takes the lock of the wrapped conn so that every user of the bus is serialised.
func (obj *ChipSelect) Lock() {
	if l, ok := obj.conn.(sync.Locker); ok {
		l.Lock()
		return
	}
	obj.mu.Lock()
}

func (obj *ChipSelect) Unlock() {
	if l, ok := obj.conn.(sync.Locker); ok {
		l.Unlock()
		return
	}
	obj.mu.Unlock()
}

// MaxSpeedHz forwards to the wrapped conn.
func (obj *ChipSelect) MaxSpeedHz() (uint32, error) {
	if r, ok := obj.conn.(hal.SpeedReporter); ok {
		return r.MaxSpeedHz()
	}
	return 0, fmt.Errorf("wrapped SPI conn does not report its clock")
}

// Close releases the GPIO line, and the chip when Open requested it. The wrapped conn stays open.
func (obj *ChipSelect) Close() error {
	if err := obj.cs.Close(); err != nil {
		return fmt.Errorf("failed to close chip select line: %w", err)
	}
	if obj.chip != nil {
		if err := obj.chip.Close(); err != nil {
			return fmt.Errorf("failed to close GPIO chip: %w", err)
		}
	}
	return nil
}
