package adt7316

import (
	"sync"

	"github.com/mbalug7/go-adt7316/pkg/hal"
	"github.com/rs/zerolog"
)

const (
	// DefaultWriteCmd prefixes register writes and register selects.
	DefaultWriteCmd byte = 0x90
	// DefaultReadCmd prefixes the fetch of the selected register.
	DefaultReadCmd byte = 0x91

	// MaxSPISpeedHz is the highest SPI clock the chip is specified for.
	MaxSPISpeedHz uint32 = 5000000
)

// FramedConfig describes the command framing and clock of an SPI attachment.
type FramedConfig struct {
	WriteCmd byte
	ReadCmd  byte
	// SpeedHz is the configured SPI clock. Zero asks the conn through hal.SpeedReporter.
	SpeedHz uint32
}

// DefaultFramedConfig returns the chip command bytes with the clock left to the transport.
func DefaultFramedConfig() FramedConfig {
	return FramedConfig{
		WriteCmd: DefaultWriteCmd,
		ReadCmd:  DefaultReadCmd,
	}
}

func (obj FramedConfig) validate() error {
	if obj.WriteCmd == obj.ReadCmd {
		return hal.ConfigurationError("read and write command bytes are both 0x%02X", obj.ReadCmd)
	}
	return nil
}

// FramedBackend speaks to the chip through a raw SPI transport.
// Every operation is framed by a command byte, reads take a select and a fetch exchange.
type FramedBackend struct {
	conn     hal.FrameConn
	writeCmd byte
	readCmd  byte
	mu       sync.Locker // held across both phases of a read
	log      zerolog.Logger
}

// NewFramedBackend binds a backend to conn without running the protocol switch.
// Use OpenFramed to get a usable session.
func NewFramedBackend(conn hal.FrameConn, cfg FramedConfig, opts ...Option) (*FramedBackend, error) {
	return newFramedBackend(conn, cfg, resolveOptions(opts).logger)
}

func newFramedBackend(conn hal.FrameConn, cfg FramedConfig, log zerolog.Logger) (*FramedBackend, error) {
	if conn == nil {
		return nil, hal.ConfigurationError("no SPI connection")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &FramedBackend{
		conn:     conn,
		writeCmd: cfg.WriteCmd,
		readCmd:  cfg.ReadCmd,
		mu:       transportLock(conn),
		log:      log,
	}, nil
}

func (obj *FramedBackend) WriteRegister(addr hal.RegAddress, value hal.RegValue) error {
	if err := hal.CheckAddress("write", addr); err != nil {
		return err
	}
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.write(addr, value)
}

// write issues one framed write, the caller holds obj.mu.
func (obj *FramedBackend) write(addr hal.RegAddress, value hal.RegValue) error {
	if err := obj.conn.Tx([]byte{obj.writeCmd, addr.ToByte(), byte(value)}, nil); err != nil {
		return hal.BusFailure("write", addr, hal.PhaseNone, err)
	}
	obj.log.Trace().Stringer("reg", addr).Uint8("value", uint8(value)).Msg("register write")
	return nil
}

// ReadRegister selects addr and fetches its value. A failed fetch is never retried on its own,
// the selected register can not be trusted once the lock is released.
func (obj *FramedBackend) ReadRegister(addr hal.RegAddress) (hal.RegValue, error) {
	if err := hal.CheckAddress("read", addr); err != nil {
		return 0, err
	}
	obj.mu.Lock()
	defer obj.mu.Unlock()

	// the select exchange uses the write command
	if err := obj.conn.Tx([]byte{obj.writeCmd, addr.ToByte()}, nil); err != nil {
		return 0, hal.BusFailure("read", addr, hal.PhaseSelect, err)
	}
	var buf [1]byte
	if err := obj.conn.Tx([]byte{obj.readCmd}, buf[:]); err != nil {
		return 0, hal.BusFailure("read", addr, hal.PhaseFetch, err)
	}
	obj.log.Trace().Stringer("reg", addr).Uint8("value", buf[0]).Msg("register read")
	return hal.RegValue(buf[0]), nil
}
