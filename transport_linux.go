//go:build linux

package main

import (
	"fmt"

	"github.com/go-daq/smbus"
	"github.com/mbalug7/go-adt7316/pkg/adt7316"
	"github.com/mbalug7/go-adt7316/pkg/gpiocs"
	"github.com/mbalug7/go-adt7316/pkg/hal"
	"github.com/mbalug7/go-adt7316/pkg/spidev"
)

func openI2C(cfg config, opts []adt7316.Option) (*adt7316.Session, closeFunc, error) {
	conn, err := smbus.Open(cfg.I2C.Bus, cfg.I2C.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open i2c bus %d: %w", cfg.I2C.Bus, err)
	}
	dc := adt7316.DefaultDirectConfig()
	dc.Addr = cfg.I2C.Addr
	s, err := adt7316.OpenDirect(conn, dc, opts...)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return s, conn.Close, nil
}

func openSPI(cfg config, opts []adt7316.Option) (*adt7316.Session, closeFunc, error) {
	mode := spidev.Mode(cfg.SPI.Mode)
	if cfg.SPI.CSChip != "" {
		mode |= spidev.NoCS
	}
	dev, err := spidev.Open(cfg.SPI.Device, spidev.Options{Mode: mode, MaxSpeedHz: cfg.SPI.SpeedHz})
	if err != nil {
		return nil, nil, err
	}
	var conn hal.FrameConn = dev
	closeAll := dev.Close
	if cfg.SPI.CSChip != "" {
		cs, err := gpiocs.Open(cfg.SPI.CSChip, cfg.SPI.CSLine, dev)
		if err != nil {
			dev.Close()
			return nil, nil, err
		}
		conn = cs
		closeAll = func() error {
			if err := cs.Close(); err != nil {
				dev.Close()
				return err
			}
			return dev.Close()
		}
	}

	// the ceiling is checked against the clock the driver reports, not the requested one
	s, err := adt7316.OpenFramed(conn, adt7316.DefaultFramedConfig(), opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return s, closeAll, nil
}
