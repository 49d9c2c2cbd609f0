package imx377

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFormatCanonical(t *testing.T) {
	f := newSensorFixture()
	want := Mode{
		Width:    4056,
		Height:   3040,
		Code:     SRGGB12,
		HMax:     0x0172,
		VMax:     0x0CB2,
		LinkFreq: 576_000_000,
	}
	assert.Equal(t, want, f.sensor.GetFormat())
	assert.Empty(t, f.bus.Transactions())
}

func TestSetFormatIgnoresRequest(t *testing.T) {
	f := newSensorFixture()
	requested := Mode{Width: 1920, Height: 1080, Code: PixelFormat(0x1234), HMax: 1, VMax: 2, LinkFreq: 3}

	got := f.sensor.SetFormat(requested)
	assert.Equal(t, f.sensor.GetFormat(), got)
	assert.Equal(t, 4056, got.Width)
	assert.Equal(t, SRGGB12, got.Code)

	// a second negotiation still answers the canonical mode
	assert.Equal(t, got, f.sensor.SetFormat(Mode{}))
	assert.Empty(t, f.bus.Transactions(), "format negotiation never touches the hardware")
}

func TestPixelFormatString(t *testing.T) {
	assert.Equal(t, "SRGGB12_1X12", SRGGB12.String())
	assert.Equal(t, uint32(0x3012), uint32(SRGGB12))
}
