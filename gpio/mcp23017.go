package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	imx377 "github.com/Camemake/IMX377"
	"github.com/Camemake/IMX377/power"
)

// DefaultMCP23017Address is the expander's address with all three
// address straps low.
const DefaultMCP23017Address = 0x20

// register addresses with IOCON.BANK=0, the power-on default
const (
	regIODIRA byte = 0x00
	regIODIRB byte = 0x01
	regOLATA  byte = 0x14
	regOLATB  byte = 0x15
)

// MCP23017 drives supply lines through a sixteen pin I2C port
// expander, usually sharing the sensor's bus. Pins are numbered 0
// through 15: 0 to 7 on port A, 8 to 15 on port B.
type MCP23017 struct {
	mx         sync.Mutex
	transport  imx377.I2CBus
	address    byte
	retryLimit int
}

func NewMCP23017(bus imx377.I2CBus, address byte) *MCP23017 {
	return &MCP23017{retryLimit: 1, transport: bus, address: address}
}

// Line configures an expander pin as an output driven to initial. The
// output latch is preset before the direction flips so the pin never
// shows a level the caller did not ask for.
func (m *MCP23017) Line(ctx context.Context, pin int, name string, initial int, activeLow bool) (*ExpanderLine, error) {
	if pin < 0 || pin > 15 {
		return nil, fmt.Errorf("expander pin %d outside 0..15", pin)
	}
	l := &ExpanderLine{name: name, exp: m, pin: pin, activeLow: activeLow}
	m.mx.Lock()
	defer m.mx.Unlock()
	if err := m.latchPin(ctx, pin, l.physical(initial)); err != nil {
		return nil, fmt.Errorf("could not preset %s: %w", name, err)
	}
	if err := m.directionOut(ctx, pin); err != nil {
		return nil, fmt.Errorf("could not configure %s as output: %w", name, err)
	}
	return l, nil
}

// latchPin sets one bit of the output latch, leaving the other pins of
// the port as they are.
func (m *MCP23017) latchPin(ctx context.Context, pin, value int) error {
	reg, _, bit := pinRegisters(pin)
	cur, err := m.readRegister(ctx, reg)
	if err != nil {
		return err
	}
	next := cur &^ bit
	if value != 0 {
		next = cur | bit
	}
	if next == cur {
		return nil
	}
	return m.writeRegister(ctx, reg, next)
}

// directionOut clears one IODIR bit, turning the pin into an output.
func (m *MCP23017) directionOut(ctx context.Context, pin int) error {
	_, reg, bit := pinRegisters(pin)
	cur, err := m.readRegister(ctx, reg)
	if err != nil {
		return err
	}
	next := cur &^ bit
	if next == cur {
		return nil
	}
	return m.writeRegister(ctx, reg, next)
}

func (m *MCP23017) writeRegister(ctx context.Context, reg, value byte) error {
	var err error
	for i := m.retryLimit; i > 0; i-- {
		err = m.transport.WriteToAddr(ctx, m.address, []byte{reg, value})
		if err == nil {
			return nil
		}
		if !errors.Is(err, imx377.ErrBusBusy) {
			return fmt.Errorf("could not write expander register %#02x: %w", reg, err)
		}
		// try to release the bus
		_ = m.transport.Release(ctx)
	}
	return fmt.Errorf("could not write expander register %#02x (retry limit reached): %w", reg, err)
}

func (m *MCP23017) readRegister(ctx context.Context, reg byte) (byte, error) {
	err := m.transport.WriteToAddr(ctx, m.address, []byte{reg})
	if err != nil {
		return 0x00, fmt.Errorf("could not set expander register address: %w", err)
	}
	buf := make([]byte, 1)
	err = m.transport.ReadFromAddr(ctx, m.address, buf)
	if err != nil {
		return 0x00, fmt.Errorf("could not read expander register %#02x: %w", reg, err)
	}
	return buf[0], nil
}

// pinRegisters maps a pin to its port's latch and direction registers
// and its bit within them.
func pinRegisters(pin int) (olat, iodir, bit byte) {
	if pin < 8 {
		return regOLATA, regIODIRA, 1 << byte(pin)
	}
	return regOLATB, regIODIRB, 1 << byte(pin-8)
}

// ExpanderLine is one expander pin driven as a supply control line.
type ExpanderLine struct {
	name      string
	exp       *MCP23017
	pin       int
	activeLow bool
}

func (l *ExpanderLine) Name() string { return l.name }

func (l *ExpanderLine) Set(ctx context.Context, value int) error {
	l.exp.mx.Lock()
	defer l.exp.mx.Unlock()
	if err := l.exp.latchPin(ctx, l.pin, l.physical(value)); err != nil {
		return fmt.Errorf("could not drive %s: %w", l.name, err)
	}
	return nil
}

func (l *ExpanderLine) physical(value int) int {
	if l.activeLow {
		return 1 - value
	}
	return value
}

var _ power.Line = &ExpanderLine{}
