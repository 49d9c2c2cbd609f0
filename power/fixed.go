package power

import "context"

// FixedRail is a board-wired supply that is always on; Enable and
// Disable succeed without doing anything so sequencing still works.
type FixedRail struct {
	name string
}

func NewFixedRail(name string) *FixedRail {
	return &FixedRail{name: name}
}

func (r *FixedRail) Name() string                      { return r.name }
func (r *FixedRail) Enable(ctx context.Context) error  { return nil }
func (r *FixedRail) Disable(ctx context.Context) error { return nil }

// FixedClock is a free-running oscillator that cannot be gated.
type FixedClock struct {
	name string
	rate int64
}

func NewFixedClock(name string, rate int64) *FixedClock {
	return &FixedClock{name: name, rate: rate}
}

func (c *FixedClock) Name() string                      { return c.name }
func (c *FixedClock) Rate() int64                       { return c.rate }
func (c *FixedClock) Enable(ctx context.Context) error  { return nil }
func (c *FixedClock) Disable(ctx context.Context) error { return nil }

var (
	_ Rail  = &FixedRail{}
	_ Clock = &FixedClock{}
)
