package imx377

import (
	"context"
	"fmt"
	"sync"

	"github.com/Camemake/IMX377/power"
)

// DefaultAddress is the sensor's 7-bit bus address.
const DefaultAddress byte = 0x1A

// Sensor drives a Sony IMX377 over a register bus: power sequencing,
// the standby/streaming transitions and runtime controls. All
// state-changing operations serialize on one mutex; bus transactions
// block the caller with no timeout, and a sequence in progress runs to
// completion or failure before the lock is released.
type Sensor struct {
	mx        sync.Mutex
	transport I2CBus
	supply    *power.Supply
	addr      byte
	mode      Mode
	state     State
}

// Option adjusts construction defaults.
type Option func(*Sensor)

// WithAddress overrides the bus address the sensor answers on.
func WithAddress(addr byte) Option {
	return func(s *Sensor) { s.addr = addr }
}

// New wires a sensor to its register transport and power supply. The
// sensor starts powered off; nothing touches the bus until Start,
// PowerUp or a raw register access.
func New(transport I2CBus, supply *power.Supply, opts ...Option) *Sensor {
	s := &Sensor{
		transport: transport,
		supply:    supply,
		addr:      DefaultAddress,
		mode:      defaultMode,
		state:     PoweredOff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the current position in the state machine.
func (s *Sensor) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.state
}

// Start powers the sensor up if needed, takes it out of software
// standby, programs the mode's timing registers and enables streaming.
// Calling Start while already streaming is a no-op. Any register
// failure depowers the sensor fully before the error is returned; the
// state machine never stops halfway, so a failed Start always ends in
// PoweredOff.
func (s *Sensor) Start(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state == Streaming {
		return nil
	}
	if s.state == PoweredOff {
		if err := s.supply.On(ctx); err != nil {
			return fmt.Errorf("imx377: power on: %w", err)
		}
	}
	if err := s.writeReg(ctx, regStandby, standbyExit); err != nil {
		s.abort(ctx)
		return fmt.Errorf("imx377: leave standby: %w", err)
	}
	if err := s.programMode(ctx); err != nil {
		s.abort(ctx)
		return fmt.Errorf("imx377: program mode: %w", err)
	}
	if err := s.writeReg(ctx, regModeSelect, modeStreaming); err != nil {
		s.abort(ctx)
		return fmt.Errorf("imx377: enable streaming: %w", err)
	}
	s.state = Streaming
	return nil
}

// Stop disables streaming and depowers the sensor. The mode-select
// write error, if any, is returned only after the full teardown ran: a
// sensor that is already failing still ends up depowered rather than
// half-configured. Calling Stop while not streaming is a no-op.
func (s *Sensor) Stop(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state != Streaming {
		return nil
	}
	return s.stopStreaming(ctx)
}

// PowerUp brings a powered-off sensor into standby without streaming,
// for register-level bring-up work. No-op when power is already
// applied.
func (s *Sensor) PowerUp(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state != PoweredOff {
		return nil
	}
	if err := s.supply.On(ctx); err != nil {
		return fmt.Errorf("imx377: power on: %w", err)
	}
	s.state = Standby
	return nil
}

// PowerDown depowers the sensor from any state, stopping the stream
// first when one is running. No-op when already powered off.
func (s *Sensor) PowerDown(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	switch s.state {
	case PoweredOff:
		return nil
	case Streaming:
		return s.stopStreaming(ctx)
	default:
		s.state = PoweredOff
		s.supply.Off(ctx)
		return nil
	}
}

// stopStreaming runs the unconditional teardown. Must hold mx.
func (s *Sensor) stopStreaming(ctx context.Context) error {
	err := s.writeReg(ctx, regModeSelect, modeStandby)
	s.state = PoweredOff
	s.supply.Off(ctx)
	if err != nil {
		return fmt.Errorf("imx377: enter standby: %w", err)
	}
	return nil
}

// abort depowers after a failed start. Must hold mx.
func (s *Sensor) abort(ctx context.Context) {
	s.supply.Off(ctx)
	s.state = PoweredOff
}

// programMode writes the fixed mode's timing totals: line length, then
// frame length, each high byte before low byte so the timing generator
// never latches a torn value.
func (s *Sensor) programMode(ctx context.Context) error {
	seq := []struct {
		reg uint16
		val byte
	}{
		{regHMaxH, byte(s.mode.HMax >> 8)},
		{regHMaxL, byte(s.mode.HMax)},
		{regVMaxH, byte(s.mode.VMax >> 8)},
		{regVMaxL, byte(s.mode.VMax)},
	}
	for _, w := range seq {
		if err := s.writeReg(ctx, w.reg, w.val); err != nil {
			return err
		}
	}
	return nil
}

// WriteRegister pokes a raw register, serialized with the state
// machine but not gated on it: poking an unpowered sensor surfaces
// whatever the bus reports.
func (s *Sensor) WriteRegister(ctx context.Context, reg uint16, value byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.writeReg(ctx, reg, value); err != nil {
		return fmt.Errorf("imx377: %w", err)
	}
	return nil
}

// ReadRegister peeks a raw register.
func (s *Sensor) ReadRegister(ctx context.Context, reg uint16) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	val, err := s.readReg(ctx, reg)
	if err != nil {
		return 0, fmt.Errorf("imx377: %w", err)
	}
	return val, nil
}

// writeReg performs one 3-byte register write transaction. A short
// transfer is reported by the transport and surfaces here as a bus
// error; this layer never retries.
func (s *Sensor) writeReg(ctx context.Context, reg uint16, value byte) error {
	if err := s.transport.WriteToAddr(ctx, s.addr, []byte{byte(reg >> 8), byte(reg), value}); err != nil {
		return fmt.Errorf("write %#06x: %w", reg, err)
	}
	return nil
}

// readReg sets the register pointer with a 2-byte address write, then
// reads one byte back.
func (s *Sensor) readReg(ctx context.Context, reg uint16) (byte, error) {
	if err := s.transport.WriteToAddr(ctx, s.addr, []byte{byte(reg >> 8), byte(reg)}); err != nil {
		return 0, fmt.Errorf("set register pointer %#06x: %w", reg, err)
	}
	buf := []byte{0x00}
	if err := s.transport.ReadFromAddr(ctx, s.addr, buf); err != nil {
		return 0, fmt.Errorf("read %#06x: %w", reg, err)
	}
	return buf[0], nil
}
