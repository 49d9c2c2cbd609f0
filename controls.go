package imx377

import (
	"context"
	"fmt"
)

// Control identifies a runtime-adjustable sensor parameter.
type Control int

const (
	AnalogGain Control = iota
	Exposure
)

func (c Control) String() string {
	switch c {
	case AnalogGain:
		return "gain"
	case Exposure:
		return "exposure"
	default:
		return fmt.Sprintf("control(%d)", int(c))
	}
}

// ControlInfo is a control's accepted value range. Queryable without
// hardware.
type ControlInfo struct {
	Min     int
	Max     int
	Step    int
	Default int
}

var controlRanges = map[Control]ControlInfo{
	AnalogGain: {Min: 0, Max: 0x7A5, Step: 1, Default: 0},
	Exposure:   {Min: 1, Max: 0xFFFF, Step: 1, Default: 0x03E8},
}

// Info returns the control's range metadata.
func (c Control) Info() ControlInfo {
	return controlRanges[c]
}

// Controls lists every supported control.
func Controls() []Control {
	return []Control{AnalogGain, Exposure}
}

// SetControl validates value against the control's range and, while
// the sensor is streaming, writes it to the control's register pair,
// high byte before low byte. While not streaming the value is accepted
// and dropped without a single bus write: nothing is cached and
// nothing is replayed on the next Start, so callers re-apply the
// controls they care about once streaming. A bus error on either half
// of the split write propagates and may leave the pair torn; the
// driver does not attempt repair.
func (s *Sensor) SetControl(ctx context.Context, ctrl Control, value int) error {
	info, ok := controlRanges[ctrl]
	if !ok {
		return fmt.Errorf("imx377: unknown control %d", int(ctrl))
	}
	if value < info.Min || value > info.Max {
		return fmt.Errorf("imx377: %s value %d outside [%d, %d]: %w", ctrl, value, info.Min, info.Max, ErrOutOfRange)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state != Streaming {
		return nil
	}
	var high, low uint16
	hi := byte(value >> 8)
	switch ctrl {
	case AnalogGain:
		high, low = regAnalogGainH, regAnalogGainL
		hi &= analogGainHMask
	case Exposure:
		high, low = regExposureH, regExposureL
	}
	if err := s.writeReg(ctx, high, hi); err != nil {
		return fmt.Errorf("imx377: set %s: %w", ctrl, err)
	}
	if err := s.writeReg(ctx, low, byte(value)); err != nil {
		return fmt.Errorf("imx377: set %s: %w", ctrl, err)
	}
	return nil
}
