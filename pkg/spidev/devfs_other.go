//go:build !linux

package spidev

import "fmt"

// Open is only implemented on Linux.
func Open(path string, o Options) (*Device, error) {
	return nil, fmt.Errorf("failed to open %s: spidev is only available on linux", path)
}
