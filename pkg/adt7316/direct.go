package adt7316

import (
	"sync"

	"github.com/mbalug7/go-adt7316/pkg/hal"
	"github.com/rs/zerolog"
)

// DefaultBusAddr is the 7-bit SMBus address used when none is configured.
const DefaultBusAddr uint8 = 0x48

// DirectConfig binds a direct backend to one device on an SMBus/I2C bus.
type DirectConfig struct {
	Addr    uint8 // 7-bit bus address
	RegBits int   // register address width, 0 means 8
	ValBits int   // register value width, 0 means 8
}

// DefaultDirectConfig returns the configuration for a chip at DefaultBusAddr.
func DefaultDirectConfig() DirectConfig {
	return DirectConfig{
		Addr:    DefaultBusAddr,
		RegBits: 8,
		ValBits: 8,
	}
}

func (obj DirectConfig) validate() error {
	if obj.Addr > 0x7F {
		return hal.ConfigurationError("bus address 0x%02X is not a 7-bit address", obj.Addr)
	}
	if obj.RegBits != 0 && obj.RegBits != 8 {
		return hal.ConfigurationError("register address width must be 8 bits, got %d", obj.RegBits)
	}
	if obj.ValBits != 0 && obj.ValBits != 8 {
		return hal.ConfigurationError("register value width must be 8 bits, got %d", obj.ValBits)
	}
	return nil
}

// DirectBackend speaks to the chip through a bus with native addressed byte transfers.
type DirectBackend struct {
	conn hal.ByteConn
	addr uint8
	mu   sync.Locker // per transport exclusion
	log  zerolog.Logger
}

// NewDirectBackend binds a backend to conn. The conn is borrowed and never closed.
func NewDirectBackend(conn hal.ByteConn, cfg DirectConfig, opts ...Option) (*DirectBackend, error) {
	return newDirectBackend(conn, cfg, resolveOptions(opts).logger)
}

func newDirectBackend(conn hal.ByteConn, cfg DirectConfig, log zerolog.Logger) (*DirectBackend, error) {
	if conn == nil {
		return nil, hal.ConfigurationError("no bus connection")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &DirectBackend{
		conn: conn,
		addr: cfg.Addr,
		mu:   transportLock(conn),
		log:  log,
	}, nil
}

func (obj *DirectBackend) ReadRegister(addr hal.RegAddress) (hal.RegValue, error) {
	if err := hal.CheckAddress("read", addr); err != nil {
		return 0, err
	}
	obj.mu.Lock()
	defer obj.mu.Unlock()

	v, err := obj.conn.ReadReg(obj.addr, addr.ToByte())
	if err != nil {
		return 0, hal.BusFailure("read", addr, hal.PhaseNone, err)
	}
	obj.log.Trace().Stringer("reg", addr).Uint8("value", v).Msg("register read")
	return hal.RegValue(v), nil
}

func (obj *DirectBackend) WriteRegister(addr hal.RegAddress, value hal.RegValue) error {
	if err := hal.CheckAddress("write", addr); err != nil {
		return err
	}
	obj.mu.Lock()
	defer obj.mu.Unlock()

	if err := obj.conn.WriteReg(obj.addr, addr.ToByte(), uint8(value)); err != nil {
		return hal.BusFailure("write", addr, hal.PhaseNone, err)
	}
	obj.log.Trace().Stringer("reg", addr).Uint8("value", uint8(value)).Msg("register write")
	return nil
}
