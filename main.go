package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mbalug7/go-adt7316/pkg/hal"
)

const usage = `usage: adt7316 [-config file] command

commands:
  read <addr>            read one register
  write <addr> <value>   write one register
  dump                   read every register
`

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adt7316: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(os.Stderr, cfg.LogLevel)

	session, closeTransport, err := openSession(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("transport", cfg.Transport).Msg("failed to attach chip")
	}

	err = run(session, flag.Args(), os.Stdout)
	if cerr := closeTransport(); cerr != nil {
		logger.Error().Err(cerr).Msg("failed to close transport")
	}
	if err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func run(regs hal.RegisterTransport, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", usage)
	}
	switch args[0] {
	case "read":
		if len(args) != 2 {
			return fmt.Errorf("read takes one register address")
		}
		addr, err := parseByte(args[1])
		if err != nil {
			return err
		}
		v, err := regs.ReadRegister(hal.RegAddress(addr))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "0x%02X\n", uint8(v))
		return nil

	case "write":
		if len(args) != 3 {
			return fmt.Errorf("write takes a register address and a value")
		}
		addr, err := parseByte(args[1])
		if err != nil {
			return err
		}
		v, err := parseByte(args[2])
		if err != nil {
			return err
		}
		return regs.WriteRegister(hal.RegAddress(addr), hal.RegValue(v))

	case "dump":
		return dump(regs, out)
	}
	return fmt.Errorf("unknown command %q\n%s", args[0], usage)
}

// dump prints the register space 16 registers per row.
func dump(regs hal.RegisterTransport, out io.Writer) error {
	fmt.Fprint(out, "     0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f\n")
	for addr := 0; addr <= int(hal.MaxRegAddress); addr++ {
		if addr%16 == 0 {
			fmt.Fprintf(out, "%02x:", addr)
		}
		v, err := regs.ReadRegister(hal.RegAddress(addr))
		if err != nil {
			fmt.Fprintln(out)
			return err
		}
		fmt.Fprintf(out, " %02x", uint8(v))
		if addr%16 == 15 {
			fmt.Fprintln(out)
		}
	}
	return nil
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q as a byte: %w", s, err)
	}
	return uint8(v), nil
}
