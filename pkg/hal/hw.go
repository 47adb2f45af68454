package hal

// RegisterTransport is the transport agnostic register contract seen by device logic.
type RegisterTransport interface {
	ReadRegister(addr RegAddress) (RegValue, error)
	WriteRegister(addr RegAddress, value RegValue) error
}

// ByteConn is a bus that frames "address + value" on its own, like SMBus byte data transfers.
// *smbus.Conn from github.com/go-daq/smbus satisfies it.
type ByteConn interface {
	ReadReg(addr, reg uint8) (uint8, error)
	WriteReg(addr, reg, v uint8) error
}

// FrameConn is a raw byte transport without any addressing concept.
// Tx writes w and then reads len(r) bytes into r, with chip select held for the whole exchange.
// Either slice may be empty.
type FrameConn interface {
	Tx(w, r []byte) error
}

// SpeedReporter is implemented by frame transports that know their clock frequency.
type SpeedReporter interface {
	MaxSpeedHz() (uint32, error)
}
