//go:build !linux

package main

import (
	"fmt"

	"github.com/mbalug7/go-adt7316/pkg/adt7316"
)

func openI2C(cfg config, opts []adt7316.Option) (*adt7316.Session, closeFunc, error) {
	return nil, nil, fmt.Errorf("i2c transport is only available on linux")
}

func openSPI(cfg config, opts []adt7316.Option) (*adt7316.Session, closeFunc, error) {
	return nil, nil, fmt.Errorf("spi transport is only available on linux")
}
