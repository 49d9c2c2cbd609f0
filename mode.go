package imx377

import "fmt"

// PixelFormat is a media-bus pixel code.
type PixelFormat uint32

// SRGGB12 is 12-bit Bayer RGGB, one sample per pixel.
const SRGGB12 PixelFormat = 0x3012

func (f PixelFormat) String() string {
	switch f {
	case SRGGB12:
		return "SRGGB12_1X12"
	default:
		return fmt.Sprintf("unknown(%#04x)", uint32(f))
	}
}

// Mode describes one streaming configuration: output geometry, pixel
// code, the timing generator totals Start programs, and the CSI-2 link
// frequency the receiver must match.
type Mode struct {
	Width    int         `yaml:"width"`
	Height   int         `yaml:"height"`
	Code     PixelFormat `yaml:"code"`
	HMax     int         `yaml:"hmax"`      // line length, pixels
	VMax     int         `yaml:"vmax"`      // frame length, lines
	LinkFreq int64       `yaml:"link_freq"` // Hz
}

// defaultMode is the only configuration the sensor exposes.
var defaultMode = Mode{
	Width:    4056,
	Height:   3040,
	Code:     SRGGB12,
	HMax:     0x0172,
	VMax:     0x0CB2,
	LinkFreq: 576_000_000,
}

// GetFormat returns the active mode descriptor. The descriptor is
// immutable, so no locking applies.
func (s *Sensor) GetFormat() Mode {
	return s.mode
}

// SetFormat accepts any requested mode and answers with the one the
// sensor actually runs. There is no negotiation and no hardware
// access: the sensor has a single fixed mode and the request is
// ignored.
func (s *Sensor) SetFormat(requested Mode) Mode {
	return s.mode
}
