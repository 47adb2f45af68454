//go:build linux

package spidev

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	spiIOCMagic = 'k'

	iocWrite = 1
	iocRead  = 2
)

// spi_ioc_transfer from linux/spi/spidev.h
type iocTransfer struct {
	txBuf       uint64
	rxBuf       uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	wordDelay   uint8
	pad         uint8
}

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | spiIOCMagic<<8 | nr
}

var (
	reqWrMode        = ioc(iocWrite, 1, 1)
	reqWrBitsPerWord = ioc(iocWrite, 3, 1)
	reqWrMaxSpeedHz  = ioc(iocWrite, 4, 4)
	reqRdMaxSpeedHz  = ioc(iocRead, 4, 4)
)

// messageRequest is SPI_IOC_MESSAGE(n).
func messageRequest(n int) uintptr {
	return ioc(iocWrite, 0, uintptr(n)*unsafe.Sizeof(iocTransfer{}))
}

type linuxDev struct {
	f    *os.File
	bits uint8
}

// Open opens path, e.g. /dev/spidev0.0, and applies o.
func Open(path string, o Options) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	d := &linuxDev{f: f, bits: o.BitsPerWord}
	if d.bits == 0 {
		d.bits = 8
	}
	mode := uint8(o.Mode)
	if err := d.ioctl(reqWrMode, unsafe.Pointer(&mode)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set mode %d on %s: %w", o.Mode, path, err)
	}
	if err := d.ioctl(reqWrBitsPerWord, unsafe.Pointer(&d.bits)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set %d bits per word on %s: %w", d.bits, path, err)
	}
	if o.MaxSpeedHz != 0 {
		speed := o.MaxSpeedHz
		if err := d.ioctl(reqWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set speed %d Hz on %s: %w", speed, path, err)
		}
	}
	return &Device{path: path, dev: d}, nil
}

func (obj *linuxDev) transfer(xfers []transfer) error {
	msgs := make([]iocTransfer, len(xfers))
	for i, x := range xfers {
		msgs[i] = iocTransfer{
			txBuf:       uint64(uintptr(unsafe.Pointer(&x.tx[0]))),
			length:      uint32(len(x.tx)),
			bitsPerWord: obj.bits,
		}
		if len(x.rx) > 0 {
			msgs[i].rxBuf = uint64(uintptr(unsafe.Pointer(&x.rx[0])))
		}
	}
	err := obj.ioctl(messageRequest(len(msgs)), unsafe.Pointer(&msgs[0]))
	runtime.KeepAlive(xfers)
	return err
}

func (obj *linuxDev) maxSpeedHz() (uint32, error) {
	return unix.IoctlGetUint32(int(obj.f.Fd()), uint(reqRdMaxSpeedHz))
}

func (obj *linuxDev) close() error {
	return obj.f.Close()
}

func (obj *linuxDev) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, obj.f.Fd(), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
