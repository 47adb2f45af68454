package hal

import "fmt"

// RegAddress is an ADT7316 register address.
type RegAddress uint8

// RegValue is the content of a single 8-bit register.
type RegValue uint8

// MaxRegAddress is the last address of the register space shared by the whole chip family.
const MaxRegAddress RegAddress = 0x3F

// Valid reports whether the address is inside the device register space.
func (obj RegAddress) Valid() bool {
	return obj <= MaxRegAddress
}

// ToByte returns the address as it goes on the wire.
func (obj RegAddress) ToByte() byte {
	return byte(obj)
}

func (obj RegAddress) String() string {
	return fmt.Sprintf("0x%02X", uint8(obj))
}

// CheckAddress returns an InvalidAddress error for addresses outside the register space.
func CheckAddress(op string, addr RegAddress) error {
	if addr.Valid() {
		return nil
	}
	return &TransportError{
		Kind: KindInvalidAddress,
		Op:   op,
		Addr: addr,
		Err:  fmt.Errorf("address must be in range 0x00-%s", MaxRegAddress),
	}
}
