package adt7316

import (
	"errors"
	"sync"
)

var errFakeBus = errors.New("fake bus error")

type byteCall struct {
	Write bool
	Addr  uint8
	Reg   uint8
	Value uint8
}

// fakeByteConn is an SMBus conn that echoes writes back on reads.
type fakeByteConn struct {
	regs  map[uint8]uint8
	calls []byteCall
	fail  bool
}

func newFakeByteConn() *fakeByteConn {
	return &fakeByteConn{regs: make(map[uint8]uint8)}
}

func (obj *fakeByteConn) ReadReg(addr, reg uint8) (uint8, error) {
	obj.calls = append(obj.calls, byteCall{Addr: addr, Reg: reg})
	if obj.fail {
		return 0, errFakeBus
	}
	return obj.regs[reg], nil
}

func (obj *fakeByteConn) WriteReg(addr, reg, v uint8) error {
	obj.calls = append(obj.calls, byteCall{Write: true, Addr: addr, Reg: reg, Value: v})
	if obj.fail {
		return errFakeBus
	}
	obj.regs[reg] = v
	return nil
}

type frameCall struct {
	W    []byte
	RLen int
}

// fakeFrameConn records every SPI exchange and answers reads with fetch.
type fakeFrameConn struct {
	mu     sync.Mutex
	calls  []frameCall
	fetch  byte
	failAt int // 1-based call index that fails, 0 never
	speed  uint32
}

func (obj *fakeFrameConn) Tx(w, r []byte) error {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.calls = append(obj.calls, frameCall{W: append([]byte(nil), w...), RLen: len(r)})
	if obj.failAt == len(obj.calls) {
		return errFakeBus
	}
	for i := range r {
		r[i] = obj.fetch
	}
	return nil
}

func (obj *fakeFrameConn) log() []frameCall {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return append([]frameCall(nil), obj.calls...)
}

// reportingFrameConn adds a clock readback to fakeFrameConn.
type reportingFrameConn struct {
	*fakeFrameConn
	err error
}

func (obj reportingFrameConn) MaxSpeedHz() (uint32, error) {
	return obj.speed, obj.err
}

// countingLock records acquisitions and whether a transaction ran without the lock.
type countingLock struct {
	mu       sync.Mutex
	held     bool
	locks    int
	unlocked int
}

func (obj *countingLock) Lock() {
	obj.mu.Lock()
	obj.held = true
	obj.locks++
}

func (obj *countingLock) Unlock() {
	obj.held = false
	obj.mu.Unlock()
}

func (obj *countingLock) check() {
	if !obj.held {
		obj.unlocked++
	}
}

// lockingByteConn is an SMBus conn that owns its bus lock.
type lockingByteConn struct {
	countingLock
	*fakeByteConn
}

func (obj *lockingByteConn) ReadReg(addr, reg uint8) (uint8, error) {
	obj.check()
	return obj.fakeByteConn.ReadReg(addr, reg)
}

func (obj *lockingByteConn) WriteReg(addr, reg, v uint8) error {
	obj.check()
	return obj.fakeByteConn.WriteReg(addr, reg, v)
}

// lockingFrameConn is an SPI conn that owns its bus lock.
type lockingFrameConn struct {
	countingLock
	*fakeFrameConn
}

func (obj *lockingFrameConn) Tx(w, r []byte) error {
	obj.check()
	return obj.fakeFrameConn.Tx(w, r)
}
