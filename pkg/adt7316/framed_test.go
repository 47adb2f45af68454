package adt7316

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mbalug7/go-adt7316/pkg/hal"
)

func newTestFramed(t *testing.T, conn hal.FrameConn) *FramedBackend {
	t.Helper()
	backend, err := NewFramedBackend(conn, DefaultFramedConfig())
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	return backend
}

func TestFramedWrite(t *testing.T) {
	conn := &fakeFrameConn{}
	backend := newTestFramed(t, conn)

	if err := backend.WriteRegister(0x12, 0xA5); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []frameCall{{W: []byte{0x90, 0x12, 0xA5}}}
	if diff := cmp.Diff(want, conn.log()); diff != "" {
		t.Fatalf("transactions (-want +got):\n%s", diff)
	}
}

func TestFramedRead(t *testing.T) {
	conn := &fakeFrameConn{fetch: 0x2A}
	backend := newTestFramed(t, conn)

	got, err := backend.ReadRegister(0x05)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0x2A {
		t.Fatalf("unexpected value: 0x%02X", got)
	}
	want := []frameCall{
		{W: []byte{0x90, 0x05}},
		{W: []byte{0x91}, RLen: 1},
	}
	if diff := cmp.Diff(want, conn.log()); diff != "" {
		t.Fatalf("transactions (-want +got):\n%s", diff)
	}
}

func TestFramedCustomCommands(t *testing.T) {
	conn := &fakeFrameConn{fetch: 0x01}
	backend, err := NewFramedBackend(conn, FramedConfig{WriteCmd: 0xA0, ReadCmd: 0xA1})
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if _, err := backend.ReadRegister(0x3F); err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []frameCall{
		{W: []byte{0xA0, 0x3F}},
		{W: []byte{0xA1}, RLen: 1},
	}
	if diff := cmp.Diff(want, conn.log()); diff != "" {
		t.Fatalf("transactions (-want +got):\n%s", diff)
	}
}

func TestFramedSelectFailure(t *testing.T) {
	conn := &fakeFrameConn{fetch: 0x2A, failAt: 1}
	backend := newTestFramed(t, conn)

	_, err := backend.ReadRegister(0x05)
	if !errors.Is(err, hal.ErrBusFailure) {
		t.Fatalf("expected bus failure, got %v", err)
	}
	if !hal.IsSelectFailure(err) {
		t.Fatalf("expected select failure, got %v", err)
	}
	want := []frameCall{{W: []byte{0x90, 0x05}}}
	if diff := cmp.Diff(want, conn.log()); diff != "" {
		t.Fatalf("fetch must not be issued after a failed select (-want +got):\n%s", diff)
	}
}

func TestFramedFetchFailure(t *testing.T) {
	conn := &fakeFrameConn{fetch: 0x2A, failAt: 2}
	backend := newTestFramed(t, conn)

	v, err := backend.ReadRegister(0x05)
	if v != 0 {
		t.Fatalf("no value expected on failure, got 0x%02X", v)
	}
	var te *hal.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if te.Kind != hal.KindBusFailure || te.Phase != hal.PhaseFetch || te.Addr != 0x05 {
		t.Fatalf("unexpected error fields: %+v", te)
	}
	if !errors.Is(err, errFakeBus) {
		t.Fatalf("lower level status lost: %v", err)
	}
}

func TestFramedInvalidAddress(t *testing.T) {
	conn := &fakeFrameConn{}
	backend := newTestFramed(t, conn)

	for addr := 0x40; addr <= 0xFF; addr++ {
		if _, err := backend.ReadRegister(hal.RegAddress(addr)); !errors.Is(err, hal.ErrInvalidAddress) {
			t.Fatalf("read 0x%02X: expected invalid address, got %v", addr, err)
		}
		if err := backend.WriteRegister(hal.RegAddress(addr), 0x00); !errors.Is(err, hal.ErrInvalidAddress) {
			t.Fatalf("write 0x%02X: expected invalid address, got %v", addr, err)
		}
	}
	if n := len(conn.log()); n != 0 {
		t.Fatalf("expected no transactions, got %d", n)
	}
}

func TestFramedConfigValidation(t *testing.T) {
	_, err := NewFramedBackend(&fakeFrameConn{}, FramedConfig{WriteCmd: 0x90, ReadCmd: 0x90})
	if !errors.Is(err, hal.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	_, err = NewFramedBackend(nil, DefaultFramedConfig())
	if !errors.Is(err, hal.ErrConfiguration) {
		t.Fatalf("expected configuration error for nil conn, got %v", err)
	}
}

// lockedFrameConn owns the transport lock and checks that reads are never interleaved.
type lockedFrameConn struct {
	sync.Mutex
	inner    *fakeFrameConn
	selected int
	broken   bool
}

func (obj *lockedFrameConn) Tx(w, r []byte) error {
	if len(r) == 0 && len(w) == 2 {
		if obj.selected != 0 {
			obj.broken = true
		}
		obj.selected++
	} else if len(r) == 1 {
		obj.selected--
	}
	return obj.inner.Tx(w, r)
}

func TestFramedSharedTransportLock(t *testing.T) {
	conn := &lockedFrameConn{inner: &fakeFrameConn{fetch: 0x11}}
	// two backends on one physical transport share the conn's lock
	a := newTestFramed(t, conn)
	b := newTestFramed(t, conn)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(backend *FramedBackend, addr hal.RegAddress) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := backend.ReadRegister(addr); err != nil {
					t.Errorf("read: %v", err)
					return
				}
			}
		}([]*FramedBackend{a, b}[i%2], hal.RegAddress(i))
	}
	wg.Wait()

	conn.Lock()
	defer conn.Unlock()
	if conn.broken {
		t.Fatalf("select and fetch phases were interleaved")
	}
	if n := len(conn.inner.log()); n != 8*100*2 {
		t.Fatalf("unexpected transaction count: %d", n)
	}
}

func TestFramedSharedHandleLock(t *testing.T) {
	conn := &fakeFrameConn{}
	a := newTestFramed(t, conn)
	b := newTestFramed(t, conn)
	if a.mu != b.mu {
		t.Fatalf("backends on one transport got different locks")
	}
	if other := newTestFramed(t, &fakeFrameConn{}); other.mu == a.mu {
		t.Fatalf("backends on different transports share a lock")
	}
}
