package power

import (
	"context"
	"fmt"
)

// LineRail is a fixed regulator switched through an enable pin, the
// usual arrangement on camera breakout boards.
type LineRail struct {
	name   string
	enable Line
}

func NewLineRail(name string, enable Line) *LineRail {
	return &LineRail{name: name, enable: enable}
}

func (r *LineRail) Name() string { return r.name }

func (r *LineRail) Enable(ctx context.Context) error {
	if err := r.enable.Set(ctx, 1); err != nil {
		return fmt.Errorf("rail %s enable line: %w", r.name, err)
	}
	return nil
}

func (r *LineRail) Disable(ctx context.Context) error {
	if err := r.enable.Set(ctx, 0); err != nil {
		return fmt.Errorf("rail %s enable line: %w", r.name, err)
	}
	return nil
}

// LineClock is an oscillator gated through an output-enable pin.
type LineClock struct {
	name   string
	rate   int64
	enable Line
}

func NewLineClock(name string, rate int64, enable Line) *LineClock {
	return &LineClock{name: name, rate: rate, enable: enable}
}

func (c *LineClock) Name() string { return c.name }
func (c *LineClock) Rate() int64  { return c.rate }

func (c *LineClock) Enable(ctx context.Context) error {
	if err := c.enable.Set(ctx, 1); err != nil {
		return fmt.Errorf("clock %s enable line: %w", c.name, err)
	}
	return nil
}

func (c *LineClock) Disable(ctx context.Context) error {
	if err := c.enable.Set(ctx, 0); err != nil {
		return fmt.Errorf("clock %s enable line: %w", c.name, err)
	}
	return nil
}

var (
	_ Rail  = &LineRail{}
	_ Clock = &LineClock{}
)
