// Package buspirate drives a Bus Pirate in binary SPI mode as a raw SPI transport.
package buspirate

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
)

const (
	cmdReset       byte = 0x00 // back to raw bitbang, answers BBIO1
	cmdEnterSPI    byte = 0x01 // answers SPI1
	cmdCSLow       byte = 0x02
	cmdCSHigh      byte = 0x03
	cmdExit        byte = 0x0F // from bitbang back to the user terminal
	cmdBulk        byte = 0x10 // low nibble is byte count - 1
	cmdPeripherals byte = 0x40
	cmdSpeed       byte = 0x60
	cmdConfig      byte = 0x80

	perPower  byte = 0x08
	perCSHigh byte = 0x01
	cfgOut3V3 byte = 0x08
	cfgIdleHi byte = 0x04 // CPOL=1, output changes idle to active

	rspOK          byte = 0x01
	maxBulk             = 16
	bitbangRetries      = 20
	serialBaud          = 115200
)

// Speed is one of the fixed SPI clocks of the Bus Pirate.
type Speed uint8

const (
	Speed30kHz Speed = iota
	Speed125kHz
	Speed250kHz
	Speed1MHz
	Speed2MHz
	Speed2600kHz
	Speed4MHz
	Speed8MHz
)

var speeds = []struct {
	name string
	hz   uint32
}{
	{"30kHz", 30000},
	{"125kHz", 125000},
	{"250kHz", 250000},
	{"1MHz", 1000000},
	{"2MHz", 2000000},
	{"2.6MHz", 2600000},
	{"4MHz", 4000000},
	{"8MHz", 8000000},
}

// Hz returns the clock frequency of the speed setting.
func (obj Speed) Hz() uint32 {
	if int(obj) >= len(speeds) {
		return 0
	}
	return speeds[obj].hz
}

func (obj Speed) String() string {
	if int(obj) >= len(speeds) {
		return fmt.Sprintf("speed(%d)", uint8(obj))
	}
	return speeds[obj].name
}

// ParseSpeed accepts the names printed by Speed.String, case insensitive.
func ParseSpeed(s string) (Speed, error) {
	for i, sp := range speeds {
		if strings.EqualFold(strings.TrimSpace(s), sp.name) {
			return Speed(i), nil
		}
	}
	return 0, fmt.Errorf("unsupported Bus Pirate SPI speed %q", s)
}

// Bridge is a Bus Pirate in SPI mode. It implements sync.Locker, the lock is the exclusion
// boundary for every user of the bridge and is not taken by Tx.
type Bridge struct {
	sync.Mutex
	port   io.ReadWriter
	closer io.Closer
	speed  Speed
}

// Open opens the serial port of a Bus Pirate and puts it in SPI mode 3 at speed.
func Open(name string, speed Speed) (*Bridge, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        serialBaud,
		Size:        8,
		ReadTimeout: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port, err: %w", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush serial port: %w", err)
	}
	b, err := New(port, speed)
	if err != nil {
		port.Close()
		return nil, err
	}
	b.closer = port
	return b, nil
}

// New runs the binary mode handshake on an already open port.
func New(port io.ReadWriter, speed Speed) (*Bridge, error) {
	if speed.Hz() == 0 {
		return nil, fmt.Errorf("unsupported Bus Pirate SPI speed %d", uint8(speed))
	}
	b := &Bridge{port: port, speed: speed}
	if err := b.enterBitbang(); err != nil {
		return nil, err
	}
	if err := b.expect(cmdEnterSPI, "SPI1"); err != nil {
		return nil, fmt.Errorf("failed to enter SPI mode: %w", err)
	}
	if err := b.command(cmdSpeed | byte(speed)); err != nil {
		return nil, fmt.Errorf("failed to set speed %s: %w", speed, err)
	}
	// mode 3, 3.3V push-pull outputs, sample in the middle
	if err := b.command(cmdConfig | cfgOut3V3 | cfgIdleHi); err != nil {
		return nil, fmt.Errorf("failed to configure SPI: %w", err)
	}
	if err := b.command(cmdPeripherals | perPower | perCSHigh); err != nil {
		return nil, fmt.Errorf("failed to power peripherals: %w", err)
	}
	return b, nil
}

func (obj *Bridge) enterBitbang() error {
	buf := make([]byte, 5)
	for i := 0; i < bitbangRetries; i++ {
		if _, err := obj.port.Write([]byte{cmdReset}); err != nil {
			return fmt.Errorf("failed to send data, err: %w", err)
		}
		if _, err := io.ReadFull(obj.port, buf); err != nil {
			continue
		}
		if string(buf) == "BBIO1" {
			return nil
		}
	}
	return fmt.Errorf("failed to enter binary bitbang mode after %d attempts", bitbangRetries)
}

func (obj *Bridge) expect(cmd byte, rsp string) error {
	if _, err := obj.port.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("failed to send data, err: %w", err)
	}
	buf := make([]byte, len(rsp))
	if _, err := io.ReadFull(obj.port, buf); err != nil {
		return fmt.Errorf("failed to receive data: %w", err)
	}
	if string(buf) != rsp {
		return fmt.Errorf("unexpected response %q, want %q", buf, rsp)
	}
	return nil
}

// command sends a single byte command acknowledged with 0x01.
func (obj *Bridge) command(cmd byte) error {
	if _, err := obj.port.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("failed to send data, err: %w", err)
	}
	var rsp [1]byte
	if _, err := io.ReadFull(obj.port, rsp[:]); err != nil {
		return fmt.Errorf("failed to receive data: %w", err)
	}
	if rsp[0] != rspOK {
		return fmt.Errorf("command 0x%02X rejected with 0x%02X", cmd, rsp[0])
	}
	return nil
}

// Tx writes w and then reads len(r) bytes with chip select asserted for the whole exchange.
func (obj *Bridge) Tx(w, r []byte) (err error) {
	if err := obj.command(cmdCSLow); err != nil {
		return fmt.Errorf("failed to assert chip select: %w", err)
	}
	defer func() {
		if csErr := obj.command(cmdCSHigh); csErr != nil && err == nil {
			err = fmt.Errorf("failed to release chip select: %w", csErr)
		}
	}()

	if err := obj.bulk(w, make([]byte, len(w))); err != nil {
		return err
	}
	return obj.bulk(make([]byte, len(r)), r)
}

// bulk clocks out w and stores the bytes clocked in to r, len(r) == len(w).
func (obj *Bridge) bulk(w, r []byte) error {
	for len(w) > 0 {
		n := len(w)
		if n > maxBulk {
			n = maxBulk
		}
		if err := obj.command(cmdBulk | byte(n-1)); err != nil {
			return fmt.Errorf("failed to start bulk transfer: %w", err)
		}
		if _, err := obj.port.Write(w[:n]); err != nil {
			return fmt.Errorf("failed to send data, err: %w", err)
		}
		if _, err := io.ReadFull(obj.port, r[:n]); err != nil {
			return fmt.Errorf("failed to receive data: %w", err)
		}
		w, r = w[n:], r[n:]
	}
	return nil
}

// MaxSpeedHz reports the selected SPI clock.
func (obj *Bridge) MaxSpeedHz() (uint32, error) {
	return obj.speed.Hz(), nil
}

// Close returns the Bus Pirate to its user terminal and closes the port when Open created it.
func (obj *Bridge) Close() error {
	_, err := obj.port.Write([]byte{cmdReset, cmdExit})
	if err != nil {
		err = fmt.Errorf("failed to reset Bus Pirate: %w", err)
	}
	if obj.closer != nil {
		if cerr := obj.closer.Close(); cerr != nil {
			return fmt.Errorf("failed to close serial stream: %w", cerr)
		}
	}
	return err
}
