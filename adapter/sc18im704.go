package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	imx377 "github.com/Camemake/IMX377"
)

// SC18IM704 command characters. Every frame is ASCII-framed: a command
// character, the payload, then the stop character.
const (
	sc18Start    = 'S'
	sc18Stop     = 'P'
	sc18ReadReg  = 'R'
	sc18WriteReg = 'W'
)

// Internal register addresses.
const (
	sc18RegI2CClkL = 0x07
	sc18RegI2CClkH = 0x08
	sc18RegI2CStat = 0x0A
)

// I2CStat codes reported after each transaction.
const (
	sc18StatOK       = 0xF0
	sc18StatNackAddr = 0xF1
	sc18StatNackData = 0xF2
	sc18StatTimeout  = 0xF8
)

const sc18ReadTimeout = 500 * time.Millisecond

// SC18IM704 talks to the sensor through NXP's UART-to-I2C bridge on a
// serial device. Each transaction is checked against the bridge's
// I2CStat register so NAKs surface as errors instead of silent drops.
type SC18IM704 struct {
	mx   sync.Mutex
	port serial.Port
	dev  string
}

// OpenSC18IM704 opens the bridge on device (for example
// "/dev/ttyUSB0") at baud. A missing device reports ErrUnavailable so
// construction can be retried once the hardware shows up.
func OpenSC18IM704(device string, baud int) (*SC18IM704, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound {
			return nil, fmt.Errorf("serial device %s: %w", device, imx377.ErrUnavailable)
		}
		return nil, fmt.Errorf("could not open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(sc18ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not set read timeout on %s: %w", device, err)
	}
	return &SC18IM704{port: port, dev: device}, nil
}

func (d *SC18IM704) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	frame := make([]byte, 0, len(buffer)+4)
	frame = append(frame, sc18Start, address<<1, byte(len(buffer)))
	frame = append(frame, buffer...)
	frame = append(frame, sc18Stop)
	if err := d.writeAll(frame); err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if err := d.checkStat(); err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	return nil
}

func (d *SC18IM704) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	frame := []byte{sc18Start, address<<1 | 1, byte(len(buffer)), sc18Stop}
	if err := d.writeAll(frame); err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if err := d.readAll(buffer); err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if err := d.checkStat(); err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	return nil
}

// SetSpeed programs the SCL frequency in kHz through the bridge's
// clock divider registers, derived from the 7.3728 MHz internal clock.
func (d *SC18IM704) SetSpeed(khz int) error {
	if khz <= 0 {
		return fmt.Errorf("invalid bus speed %d kHz", khz)
	}
	div := 7372800 / (4 * khz * 1000)
	// the datasheet floors the divider at 5
	if div < 5 || div > 0xFFFF {
		return fmt.Errorf("bus speed %d kHz out of divider range", khz)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	frame := []byte{sc18WriteReg, sc18RegI2CClkL, byte(div), sc18RegI2CClkH, byte(div >> 8), sc18Stop}
	if err := d.writeAll(frame); err != nil {
		return fmt.Errorf("set bus speed failed: %w", err)
	}
	return nil
}

// Release is part of the bus contract; the bridge has no engine state
// to drop.
func (d *SC18IM704) Release(ctx context.Context) error {
	return nil
}

// Close closes the serial device.
func (d *SC18IM704) Close() error {
	return d.port.Close()
}

// checkStat reads the I2CStat register and maps the bridge's
// transaction codes onto errors.
func (d *SC18IM704) checkStat() error {
	if err := d.writeAll([]byte{sc18ReadReg, sc18RegI2CStat, sc18Stop}); err != nil {
		return fmt.Errorf("status request failed: %w", err)
	}
	stat := []byte{0x00}
	if err := d.readAll(stat); err != nil {
		return fmt.Errorf("status read failed: %w", err)
	}
	switch stat[0] {
	case sc18StatOK:
		return nil
	case sc18StatNackAddr:
		return fmt.Errorf("address not acknowledged")
	case sc18StatNackData:
		return fmt.Errorf("data not acknowledged")
	case sc18StatTimeout:
		return imx377.ErrBusBusy
	default:
		return fmt.Errorf("unexpected I2C status %#02x", stat[0])
	}
}

func (d *SC18IM704) writeAll(frame []byte) error {
	n, err := d.port.Write(frame)
	if err != nil {
		return fmt.Errorf("could not write frame: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("short write: %d of %d", n, len(frame))
	}
	slog.Debug("frame sent to bridge", "device", d.dev, "size", n)
	return nil
}

// readAll fills buffer from the UART, treating a read timeout as a
// short read.
func (d *SC18IM704) readAll(buffer []byte) error {
	read := 0
	for read < len(buffer) {
		n, err := d.port.Read(buffer[read:])
		if err != nil {
			return fmt.Errorf("could not read response: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("short read: %d of %d", read, len(buffer))
		}
		read += n
	}
	return nil
}

var _ imx377.I2CBus = &SC18IM704{}
