package gpio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imx377 "github.com/Camemake/IMX377"
)

// expanderChip simulates the register file of an MCP23017 coming out
// of reset: every pin an input, latches cleared.
type expanderChip struct {
	regs    map[byte]byte
	lastReg byte
}

func newExpanderChip() *expanderChip {
	return &expanderChip{regs: map[byte]byte{
		regIODIRA: 0xFF,
		regIODIRB: 0xFF,
	}}
}

func (c *expanderChip) write(ctx context.Context, address byte, buffer []byte) error {
	switch len(buffer) {
	case 1:
		c.lastReg = buffer[0]
	case 2:
		c.regs[buffer[0]] = buffer[1]
	}
	return nil
}

func (c *expanderChip) read(ctx context.Context, address byte, buffer []byte) error {
	buffer[0] = c.regs[c.lastReg]
	return nil
}

func newExpanderFixture() (*imx377.MockBus, *expanderChip, *MCP23017) {
	bus := imx377.NewMockBus()
	chip := newExpanderChip()
	bus.WriteFunc = chip.write
	bus.ReadFunc = chip.read
	return bus, chip, NewMCP23017(bus, DefaultMCP23017Address)
}

func TestExpanderLineSetup(t *testing.T) {
	bus, chip, exp := newExpanderFixture()

	_, err := exp.Line(context.Background(), 10, "avdd", 1, false)
	require.NoError(t, err)

	assert.Equal(t, byte(0x04), chip.regs[regOLATB])
	assert.Equal(t, byte(0xFB), chip.regs[regIODIRB])

	// the latch is preset before the pin turns into an output
	var writes [][]byte
	for _, tr := range bus.Transactions() {
		if !tr.Read && len(tr.Data) == 2 {
			writes = append(writes, tr.Data)
		}
	}
	require.Len(t, writes, 2)
	assert.Equal(t, regOLATB, writes[0][0])
	assert.Equal(t, regIODIRB, writes[1][0])
}

func TestExpanderLineSet(t *testing.T) {
	_, chip, exp := newExpanderFixture()

	line, err := exp.Line(context.Background(), 3, "reset", 0, true)
	require.NoError(t, err)
	assert.Equal(t, byte(0x08), chip.regs[regOLATA], "active low line at rest drives the pin high")
	assert.Equal(t, byte(0xF7), chip.regs[regIODIRA])

	require.NoError(t, line.Set(context.Background(), 1))
	assert.Equal(t, byte(0x00), chip.regs[regOLATA])

	require.NoError(t, line.Set(context.Background(), 0))
	assert.Equal(t, byte(0x08), chip.regs[regOLATA])
}

func TestExpanderLineBusFailure(t *testing.T) {
	bus, chip, exp := newExpanderFixture()

	line, err := exp.Line(context.Background(), 0, "pwdn", 1, false)
	require.NoError(t, err)

	bus.WriteFunc = func(ctx context.Context, address byte, buffer []byte) error {
		if len(buffer) == 2 {
			return imx377.ErrBusBusy
		}
		return chip.write(ctx, address, buffer)
	}
	err = line.Set(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, imx377.ErrBusBusy)
}

func TestExpanderPinRange(t *testing.T) {
	bus, _, exp := newExpanderFixture()

	_, err := exp.Line(context.Background(), 16, "dvdd", 0, false)
	require.Error(t, err)
	_, err = exp.Line(context.Background(), -1, "dvdd", 0, false)
	require.Error(t, err)
	assert.Empty(t, bus.Transactions())
}
