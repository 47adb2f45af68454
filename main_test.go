package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mbalug7/go-adt7316/pkg/hal"
	"github.com/rs/zerolog"
)

func openSimSession(t *testing.T) hal.RegisterTransport {
	t.Helper()
	s, closeFn, err := openSession(defaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { closeFn() })
	return s
}

func TestRunWriteRead(t *testing.T) {
	s := openSimSession(t)
	var out bytes.Buffer

	if err := run(s, []string{"write", "0x05", "0x2a"}, &out); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := run(s, []string{"read", "5"}, &out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := out.String(); got != "0x2A\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestRunDump(t *testing.T) {
	s := openSimSession(t)
	if err := s.WriteRegister(0x3F, 0xA5); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	if err := run(s, []string{"dump"}, &out); err != nil {
		t.Fatalf("dump: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header and 4 rows, got %d:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[4], "30:") || !strings.HasSuffix(lines[4], " a5") {
		t.Fatalf("unexpected last row: %q", lines[4])
	}
}

func TestRunErrors(t *testing.T) {
	s := openSimSession(t)
	var out bytes.Buffer

	if err := run(s, []string{"read", "0x40"}, &out); !errors.Is(err, hal.ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}
	if err := run(s, []string{"read", "0x100"}, &out); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := run(s, []string{"write", "0x01"}, &out); err == nil {
		t.Fatalf("expected argument error")
	}
	if err := run(s, []string{"erase"}, &out); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if err := run(s, nil, &out); err == nil {
		t.Fatalf("expected missing command error")
	}
}

func TestOpenSessionTooFast(t *testing.T) {
	cfg := defaultConfig()
	cfg.SimHz = 6000000
	if _, _, err := openSession(cfg, zerolog.Nop()); !errors.Is(err, hal.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
