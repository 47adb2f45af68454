package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mbalug7/go-adt7316/pkg/adt7316"
	"github.com/mbalug7/go-adt7316/pkg/buspirate"
	"github.com/rs/zerolog"
)

const (
	transportI2C       = "i2c"
	transportSPI       = "spi"
	transportBusPirate = "buspirate"
	transportSim       = "sim"
)

type i2cConfig struct {
	Bus  int
	Addr uint8
}

type spiConfig struct {
	Device  string
	SpeedHz uint32
	Mode    uint8
	CSChip  string // empty keeps the hardware chip select
	CSLine  int
}

type busPirateConfig struct {
	Port  string
	Speed buspirate.Speed
}

type config struct {
	Model     string
	Transport string
	LogLevel  zerolog.Level
	IRQ       int
	I2C       i2cConfig
	SPI       spiConfig
	BusPirate busPirateConfig
	SimHz     uint32
}

type fileConfig struct {
	Model     string `toml:"model"`
	Transport string `toml:"transport"`
	LogLevel  string `toml:"log_level"`
	IRQ       int    `toml:"irq"`
	I2C       struct {
		Bus  int `toml:"bus"`
		Addr int `toml:"addr"`
	} `toml:"i2c"`
	SPI struct {
		Device  string `toml:"device"`
		SpeedHz int64  `toml:"speed_hz"`
		Mode    int    `toml:"mode"`
		CSChip  string `toml:"cs_chip"`
		CSLine  int    `toml:"cs_line"`
	} `toml:"spi"`
	BusPirate struct {
		Port  string `toml:"port"`
		Speed string `toml:"speed"`
	} `toml:"buspirate"`
	Sim struct {
		SpeedHz int64 `toml:"speed_hz"`
	} `toml:"sim"`
}

func defaultConfig() config {
	return config{
		Model:     "adt7316",
		Transport: transportSim,
		LogLevel:  zerolog.InfoLevel,
		IRQ:       -1,
		I2C:       i2cConfig{Bus: 1, Addr: adt7316.DefaultBusAddr},
		SPI: spiConfig{
			Device:  "/dev/spidev0.0",
			SpeedHz: 1000000,
			Mode:    3,
		},
		BusPirate: busPirateConfig{Port: "/dev/ttyUSB0", Speed: buspirate.Speed1MHz},
		SimHz:     1000000,
	}
}

// loadConfig folds the keys defined in the TOML file at path over the defaults.
// An empty path returns the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("model") {
		cfg.Model = strings.TrimSpace(raw.Model)
	}
	if meta.IsDefined("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(raw.Transport))
	}
	if meta.IsDefined("log_level") {
		lvl, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if meta.IsDefined("irq") {
		cfg.IRQ = raw.IRQ
	}

	if meta.IsDefined("i2c", "bus") {
		cfg.I2C.Bus = raw.I2C.Bus
	}
	if meta.IsDefined("i2c", "addr") {
		if raw.I2C.Addr < 0 || raw.I2C.Addr > 0x7F {
			return config{}, fmt.Errorf("parse i2c.addr: 0x%X is not a 7-bit address", raw.I2C.Addr)
		}
		cfg.I2C.Addr = uint8(raw.I2C.Addr)
	}

	if meta.IsDefined("spi", "device") {
		cfg.SPI.Device = strings.TrimSpace(raw.SPI.Device)
	}
	if meta.IsDefined("spi", "speed_hz") {
		if raw.SPI.SpeedHz <= 0 || raw.SPI.SpeedHz > 1<<32-1 {
			return config{}, fmt.Errorf("parse spi.speed_hz: %d out of range", raw.SPI.SpeedHz)
		}
		cfg.SPI.SpeedHz = uint32(raw.SPI.SpeedHz)
	}
	if meta.IsDefined("spi", "mode") {
		if raw.SPI.Mode < 0 || raw.SPI.Mode > 3 {
			return config{}, fmt.Errorf("parse spi.mode: %d is not an SPI mode", raw.SPI.Mode)
		}
		cfg.SPI.Mode = uint8(raw.SPI.Mode)
	}
	if meta.IsDefined("spi", "cs_chip") {
		cfg.SPI.CSChip = strings.TrimSpace(raw.SPI.CSChip)
	}
	if meta.IsDefined("spi", "cs_line") {
		cfg.SPI.CSLine = raw.SPI.CSLine
	}

	if meta.IsDefined("buspirate", "port") {
		cfg.BusPirate.Port = strings.TrimSpace(raw.BusPirate.Port)
	}
	if meta.IsDefined("buspirate", "speed") {
		sp, err := buspirate.ParseSpeed(raw.BusPirate.Speed)
		if err != nil {
			return config{}, fmt.Errorf("parse buspirate.speed: %w", err)
		}
		cfg.BusPirate.Speed = sp
	}

	if meta.IsDefined("sim", "speed_hz") {
		if raw.Sim.SpeedHz < 0 || raw.Sim.SpeedHz > 1<<32-1 {
			return config{}, fmt.Errorf("parse sim.speed_hz: %d out of range", raw.Sim.SpeedHz)
		}
		cfg.SimHz = uint32(raw.Sim.SpeedHz)
	}

	if err := validateConfig(cfg); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg config) error {
	if _, ok := adt7316.LookupModel(cfg.Model); !ok {
		return fmt.Errorf("config model %q is not one of %s", cfg.Model, strings.Join(adt7316.Models(), ", "))
	}
	switch cfg.Transport {
	case transportI2C, transportSim:
	case transportSPI:
		if cfg.SPI.Device == "" {
			return fmt.Errorf("config spi.device is required")
		}
		if cfg.SPI.CSChip != "" && cfg.SPI.CSLine < 0 {
			return fmt.Errorf("config spi.cs_line must not be negative")
		}
	case transportBusPirate:
		if cfg.BusPirate.Port == "" {
			return fmt.Errorf("config buspirate.port is required")
		}
	default:
		return fmt.Errorf("config transport %q is not one of i2c, spi, buspirate, sim", cfg.Transport)
	}
	return nil
}
