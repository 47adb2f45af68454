// Package spidev drives SPI devices through the Linux spidev character device.
package spidev

import (
	"fmt"
	"sync"
)

// Mode is the SPI mode, CPOL is the high order bit and CPHA the low order bit.
type Mode uint8

const (
	Mode0 Mode = 0
	Mode1 Mode = 1
	Mode2 Mode = 2
	Mode3 Mode = 3

	// NoCS leaves chip select to the caller, e.g. a GPIO line.
	NoCS Mode = 0x40
)

// Options are applied to the device when it is opened.
type Options struct {
	Mode        Mode
	BitsPerWord uint8  // 0 means 8
	MaxSpeedHz  uint32 // 0 keeps the driver default
}

// Device is an open /dev/spidevB.C node. It implements sync.Locker, the lock is the
// exclusion boundary for everything sharing the device and is not taken by Tx.
type Device struct {
	sync.Mutex
	path string
	dev  devfs
}

// devfs is the platform part of a device.
type devfs interface {
	transfer(xfers []transfer) error
	maxSpeedHz() (uint32, error)
	close() error
}

// transfer is one segment of a full duplex message.
type transfer struct {
	tx []byte
	rx []byte
}

// Tx writes w and reads len(r) bytes as one message, chip select stays asserted in between.
func (obj *Device) Tx(w, r []byte) error {
	xfers := segments(w, r)
	if len(xfers) == 0 {
		return nil
	}
	if err := obj.dev.transfer(xfers); err != nil {
		return fmt.Errorf("failed to transfer on %s: %w", obj.path, err)
	}
	return nil
}

// MaxSpeedHz reads back the clock the driver will use.
func (obj *Device) MaxSpeedHz() (uint32, error) {
	speed, err := obj.dev.maxSpeedHz()
	if err != nil {
		return 0, fmt.Errorf("failed to read max speed of %s: %w", obj.path, err)
	}
	return speed, nil
}

// Close releases the device node.
func (obj *Device) Close() error {
	return obj.dev.close()
}

// segments splits a write-then-read exchange into spidev transfers.
// The write half only sends, the read half shifts out zeros.
func segments(w, r []byte) []transfer {
	var xfers []transfer
	if len(w) > 0 {
		xfers = append(xfers, transfer{tx: w})
	}
	if len(r) > 0 {
		xfers = append(xfers, transfer{tx: make([]byte, len(r)), rx: r})
	}
	return xfers
}
