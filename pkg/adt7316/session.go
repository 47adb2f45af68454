package adt7316

import (
	"fmt"

	"github.com/mazen160/go-random"
	"github.com/mbalug7/go-adt7316/pkg/hal"
)

// Session is one attached chip. It exposes only the register contract, every call is a
// live transaction on the bound backend.
type Session struct {
	backend hal.RegisterTransport
	id      string // log correlation only
	name    string
	irq     int
}

var _ hal.RegisterTransport = (*Session)(nil)

func newSessionID() (string, error) {
	id, err := random.String(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return id, nil
}

// OpenDirect brings up a chip attached over SMBus/I2C.
func OpenDirect(conn hal.ByteConn, cfg DirectConfig, opts ...Option) (*Session, error) {
	o := resolveOptions(opts)
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	log := o.logger.With().Str("session", id).Str("transport", "i2c").Logger()

	backend, err := newDirectBackend(conn, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize i2c backend")
		return nil, err
	}
	log.Info().Str("name", o.name).Uint8("addr", cfg.Addr).Msg("chip attached")
	return &Session{backend: backend, id: id, name: o.name, irq: o.irq}, nil
}

// OpenFramed brings up a chip attached over SPI. The clock is checked against MaxSPISpeedHz
// before any transaction, then the chip is switched to SPI protocol. No session is
// returned unless every step succeeded.
func OpenFramed(conn hal.FrameConn, cfg FramedConfig, opts ...Option) (*Session, error) {
	o := resolveOptions(opts)
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	log := o.logger.With().Str("session", id).Str("transport", "spi").Logger()

	speed, err := clockSpeed(conn, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to check SPI clock")
		return nil, err
	}
	backend, err := newFramedBackend(conn, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize spi backend")
		return nil, err
	}
	if err := SwitchProtocol(backend); err != nil {
		log.Error().Err(err).Msg("protocol switch failed")
		return nil, err
	}
	log.Info().Str("name", o.name).Uint32("speed_hz", speed).Msg("chip attached")
	return &Session{backend: backend, id: id, name: o.name, irq: o.irq}, nil
}

func clockSpeed(conn hal.FrameConn, cfg FramedConfig) (uint32, error) {
	speed := cfg.SpeedHz
	if speed == 0 {
		reporter, ok := conn.(hal.SpeedReporter)
		if !ok {
			return 0, hal.ConfigurationError("SPI clock frequency unknown")
		}
		var err error
		speed, err = reporter.MaxSpeedHz()
		if err != nil {
			return 0, hal.ConfigurationError("failed to read SPI clock: %w", err)
		}
	}
	// don't exceed the max specified SPI clock
	if speed > MaxSPISpeedHz {
		return 0, hal.ConfigurationError("SPI clock %d Hz exceeds %d Hz", speed, MaxSPISpeedHz)
	}
	if speed == 0 {
		return 0, hal.ConfigurationError("SPI clock frequency unknown")
	}
	return speed, nil
}

func (obj *Session) ReadRegister(addr hal.RegAddress) (hal.RegValue, error) {
	return obj.backend.ReadRegister(addr)
}

func (obj *Session) WriteRegister(addr hal.RegAddress, value hal.RegValue) error {
	return obj.backend.WriteRegister(addr, value)
}

// ID returns the random identifier tagged on every log line of the session.
func (obj *Session) ID() string {
	return obj.id
}

// Name returns the identifying name given at bring-up.
func (obj *Session) Name() string {
	return obj.name
}

// IRQ returns the interrupt number given at bring-up, negative when not wired.
func (obj *Session) IRQ() int {
	return obj.irq
}
