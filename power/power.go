// Package power sequences the sensor's supply tree: three voltage
// rails, an external clock and the reset/power-down lines, brought up
// in a fixed order with full rollback when any resource fails to
// enable.
package power

import (
	"context"
	"fmt"
	"time"
)

// Rail is an enableable voltage supply.
type Rail interface {
	Name() string
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// Clock is a gateable clock source.
type Clock interface {
	Name() string
	Rate() int64
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// Line is a digital control line. Set drives the logical level: 1 on
// the sensor's reset line releases reset, 1 on the power-down line
// holds the sensor down. Providers translate logical to physical,
// including any active-low inversion.
type Line interface {
	Name() string
	Set(ctx context.Context, value int) error
}

// Supply owns the sensor's power resources and the order they come up
// and down in.
type Supply struct {
	rails  []Rail // core, analog, I/O: enable order
	clock  Clock
	reset  Line // active low, optional
	pwdn   Line // active high, optional
	settle time.Duration
}

// SupplyOption adjusts supply construction.
type SupplyOption func(*Supply)

// WithSettle overrides the post-power-on stabilization wait. The
// datasheet asks for 5 to 10 ms; tests shorten it.
func WithSettle(d time.Duration) SupplyOption {
	return func(s *Supply) { s.settle = d }
}

// NewSupply assembles a supply from its resources in enable order:
// core rail, analog rail, I/O rail, then the clock. reset and pwdn may
// be nil when the board hardwires those functions.
func NewSupply(core, analog, io Rail, clock Clock, reset, pwdn Line, opts ...SupplyOption) *Supply {
	s := &Supply{
		rails:  []Rail{core, analog, io},
		clock:  clock,
		reset:  reset,
		pwdn:   pwdn,
		settle: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClockRate reports the supply clock's nominal rate in Hz.
func (s *Supply) ClockRate() int64 {
	return s.clock.Rate()
}

// On powers everything up: rails in order, clock, reset release,
// power-down release, then the stabilization wait. When any resource
// fails, everything enabled so far is disabled again in reverse order
// before the failure is returned, so no partially-powered state stays
// observable.
func (s *Supply) On(ctx context.Context) error {
	for i, r := range s.rails {
		if err := r.Enable(ctx); err != nil {
			s.unwindRails(ctx, i)
			return fmt.Errorf("enable %s: %w", r.Name(), err)
		}
	}
	if err := s.clock.Enable(ctx); err != nil {
		s.unwindRails(ctx, len(s.rails))
		return fmt.Errorf("enable %s: %w", s.clock.Name(), err)
	}
	if s.reset != nil {
		if err := s.reset.Set(ctx, 1); err != nil {
			_ = s.clock.Disable(ctx)
			s.unwindRails(ctx, len(s.rails))
			return fmt.Errorf("release %s: %w", s.reset.Name(), err)
		}
	}
	if s.pwdn != nil {
		if err := s.pwdn.Set(ctx, 0); err != nil {
			if s.reset != nil {
				_ = s.reset.Set(ctx, 0)
			}
			_ = s.clock.Disable(ctx)
			s.unwindRails(ctx, len(s.rails))
			return fmt.Errorf("release %s: %w", s.pwdn.Name(), err)
		}
	}
	time.Sleep(s.settle)
	return nil
}

// Off tears the tree down: power-down asserted, reset asserted, clock
// gated, rails disabled in reverse order. Every step is best-effort
// and Off always completes, so a sensor that is already failing still
// ends up fully depowered.
func (s *Supply) Off(ctx context.Context) {
	if s.pwdn != nil {
		_ = s.pwdn.Set(ctx, 1)
	}
	if s.reset != nil {
		_ = s.reset.Set(ctx, 0)
	}
	_ = s.clock.Disable(ctx)
	s.unwindRails(ctx, len(s.rails))
}

// unwindRails disables rails[0:n] in reverse order, best-effort.
func (s *Supply) unwindRails(ctx context.Context, n int) {
	for i := n - 1; i >= 0; i-- {
		_ = s.rails[i].Disable(ctx)
	}
}
