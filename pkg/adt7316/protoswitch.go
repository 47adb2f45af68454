package adt7316

import (
	"fmt"

	"github.com/mbalug7/go-adt7316/pkg/hal"
)

// switchWrites is the number of framed writes the chip needs to leave SMBus mode.
const switchWrites = 3

// SwitchProtocol moves a freshly powered chip from its default SMBus protocol to SPI.
// The writes to register 0x00 carry no register meaning. A failure leaves the chip
// protocol undefined, nothing read or written afterwards can be trusted.
// The transport lock is held across the whole sequence.
func SwitchProtocol(backend *FramedBackend) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	for i := 0; i < switchWrites; i++ {
		if err := backend.write(hal.RegAddress(0x00), hal.RegValue(0x00)); err != nil {
			return fmt.Errorf("failed to switch to SPI protocol, write %d of %d: %w", i+1, switchWrites, err)
		}
	}
	backend.log.Debug().Msg("chip switched to SPI protocol")
	return nil
}
