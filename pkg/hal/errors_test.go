package hal

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestCheckAddress(t *testing.T) {
	for addr := 0; addr <= 0xFF; addr++ {
		err := CheckAddress("read", RegAddress(addr))
		if addr <= 0x3F {
			if err != nil {
				t.Fatalf("address 0x%02X should be valid, got: %v", addr, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("address 0x%02X should be rejected, got: %v", addr, err)
		}
	}
}

func TestTransportErrorIs(t *testing.T) {
	err := BusFailure("read", 0x05, PhaseSelect, io.ErrUnexpectedEOF)

	if !errors.Is(err, ErrBusFailure) {
		t.Errorf("expected bus failure sentinel to match")
	}
	if errors.Is(err, ErrInvalidAddress) || errors.Is(err, ErrConfiguration) {
		t.Errorf("unexpected sentinel match for %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("lower level status should be preserved")
	}
	if !IsSelectFailure(fmt.Errorf("wrapped: %w", err)) {
		t.Errorf("wrapped select failure not detected")
	}
	if IsSelectFailure(BusFailure("read", 0x05, PhaseFetch, io.EOF)) {
		t.Errorf("fetch failure reported as select failure")
	}
}

func TestTransportErrorMessage(t *testing.T) {
	errMsg := BusFailure("read", 0x05, PhaseSelect, io.EOF).Error()

	for _, want := range []string{"bus failure", "read register 0x05", "register select failed", "EOF"} {
		if !strings.Contains(errMsg, want) {
			t.Errorf("error message should contain %q, got: %s", want, errMsg)
		}
	}

	errMsg = ConfigurationError("SPI clock %d Hz exceeds %d Hz", 6000000, 5000000).Error()
	if !strings.Contains(errMsg, "configuration error") || !strings.Contains(errMsg, "6000000") {
		t.Errorf("unexpected configuration error message: %s", errMsg)
	}
	if strings.Contains(errMsg, "register") {
		t.Errorf("configuration error should not name a register: %s", errMsg)
	}
}
