// Package sim simulates an ADT7316 family chip on both of its bus protocols.
//
// The chip powers up speaking SMBus. Framed SPI exchanges are ignored until three
// of them have been seen, after that the chip answers only on SPI.
package sim

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/mbalug7/go-adt7316/pkg/hal"
)

// Mode is the bus protocol the simulated chip currently answers.
type Mode int

const (
	ModeSMBus Mode = iota
	ModeSPI
)

const (
	writeCmd byte = 0x90
	readCmd  byte = 0x91

	switchFrames = 3
	regCount     = int(hal.MaxRegAddress) + 1
)

// Transaction is one exchange seen by the simulated chip.
type Transaction struct {
	SPI   bool
	Addr  uint8  // SMBus address
	Reg   uint8  // SMBus register
	Value uint8  // SMBus value, written or returned
	Write bool   // SMBus direction
	W     []byte // SPI bytes written
	RLen  int    // SPI bytes read back
}

// FaultFunc decides whether a transaction fails. It is called before the transaction
// has any effect on the chip.
type FaultFunc func(n int, t Transaction) error

// Device is a simulated chip. It satisfies hal.ByteConn, hal.FrameConn and hal.SpeedReporter.
type Device struct {
	mu       sync.Mutex // protects everything below
	addr     uint8
	speedHz  uint32
	regs     [regCount]byte
	mode     Mode
	frames   int   // framed exchanges seen in SMBus mode
	selected uint8 // register picked by the last SPI select
	log      []Transaction
	fault    FaultFunc
}

// New returns a powered up chip answering on SMBus address addr with an SPI clock of speedHz.
func New(addr uint8, speedHz uint32) *Device {
	return &Device{addr: addr, speedHz: speedHz}
}

// SetFault installs fn as the fault injector, nil removes it.
func (obj *Device) SetFault(fn FaultFunc) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.fault = fn
}

// Mode returns the protocol the chip currently answers.
func (obj *Device) Mode() Mode {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.mode
}

// Poke sets a register behind the bus.
func (obj *Device) Poke(reg hal.RegAddress, v hal.RegValue) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.regs[int(reg)%regCount] = byte(v)
}

// Peek returns a register behind the bus.
func (obj *Device) Peek(reg hal.RegAddress) hal.RegValue {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return hal.RegValue(obj.regs[int(reg)%regCount])
}

// Transactions returns a copy of every exchange seen so far.
func (obj *Device) Transactions() []Transaction {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	out := make([]Transaction, len(obj.log))
	copy(out, obj.log)
	return out
}

func (obj *Device) record(t Transaction) error {
	obj.log = append(obj.log, t)
	if obj.fault != nil {
		return obj.fault(len(obj.log), t)
	}
	return nil
}

func (obj *Device) ReadReg(addr, reg uint8) (uint8, error) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	if err := obj.record(Transaction{Addr: addr, Reg: reg}); err != nil {
		return 0, err
	}
	if err := obj.checkSMBus(addr, reg); err != nil {
		return 0, err
	}
	v := obj.regs[reg]
	obj.log[len(obj.log)-1].Value = v
	return v, nil
}

func (obj *Device) WriteReg(addr, reg, v uint8) error {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	if err := obj.record(Transaction{Addr: addr, Reg: reg, Value: v, Write: true}); err != nil {
		return err
	}
	if err := obj.checkSMBus(addr, reg); err != nil {
		return err
	}
	obj.regs[reg] = v
	return nil
}

func (obj *Device) checkSMBus(addr, reg uint8) error {
	if addr != obj.addr || obj.mode != ModeSMBus {
		return fmt.Errorf("no acknowledge from address 0x%02X", addr)
	}
	if int(reg) >= regCount {
		return fmt.Errorf("register 0x%02X out of range", reg)
	}
	return nil
}

func (obj *Device) Tx(w, r []byte) error {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	if err := obj.record(Transaction{SPI: true, W: bytes.Clone(w), RLen: len(r)}); err != nil {
		return err
	}

	if obj.mode == ModeSMBus {
		// MISO floats until the chip speaks SPI
		fill(r, 0xFF)
		obj.frames++
		if obj.frames >= switchFrames {
			obj.mode = ModeSPI
		}
		return nil
	}

	if len(w) == 0 {
		fill(r, 0xFF)
		return nil
	}
	switch w[0] {
	case writeCmd:
		if len(w) < 2 || int(w[1]) >= regCount {
			return fmt.Errorf("malformed write frame % X", w)
		}
		obj.selected = w[1]
		if len(w) == 3 {
			obj.regs[w[1]] = w[2]
		}
		fill(r, 0xFF)
	case readCmd:
		fill(r, obj.regs[obj.selected])
	default:
		return fmt.Errorf("unknown command 0x%02X", w[0])
	}
	return nil
}

// MaxSpeedHz reports the SPI clock given to New.
func (obj *Device) MaxSpeedHz() (uint32, error) {
	return obj.speedHz, nil
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
