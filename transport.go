package main

import (
	"fmt"

	"github.com/mbalug7/go-adt7316/pkg/adt7316"
	"github.com/mbalug7/go-adt7316/pkg/buspirate"
	"github.com/mbalug7/go-adt7316/pkg/sim"
	"github.com/rs/zerolog"
)

type closeFunc func() error

func noClose() error { return nil }

// openSession attaches the configured transport and brings the chip up on it.
// The returned func releases the transport handle.
func openSession(cfg config, logger zerolog.Logger) (*adt7316.Session, closeFunc, error) {
	opts := []adt7316.Option{
		adt7316.WithLogger(logger),
		adt7316.WithName(cfg.Model),
		adt7316.WithIRQ(cfg.IRQ),
	}

	switch cfg.Transport {
	case transportSim:
		dev := sim.New(cfg.I2C.Addr, cfg.SimHz)
		s, err := adt7316.OpenFramed(dev, adt7316.DefaultFramedConfig(), opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, noClose, nil

	case transportBusPirate:
		bp, err := buspirate.Open(cfg.BusPirate.Port, cfg.BusPirate.Speed)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open Bus Pirate on %s: %w", cfg.BusPirate.Port, err)
		}
		s, err := adt7316.OpenFramed(bp, adt7316.DefaultFramedConfig(), opts...)
		if err != nil {
			bp.Close()
			return nil, nil, err
		}
		return s, bp.Close, nil

	case transportI2C:
		return openI2C(cfg, opts)

	case transportSPI:
		return openSPI(cfg, opts)
	}
	return nil, nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
}
