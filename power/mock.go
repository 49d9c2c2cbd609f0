package power

import "context"

// SwitchBehaviorFunc lets a test observe or fail a mock resource
// transition. Returning an error leaves the mock's state untouched.
type SwitchBehaviorFunc func(ctx context.Context) error

// LineBehaviorFunc observes or fails a mock line transition.
type LineBehaviorFunc func(ctx context.Context, value int) error

// MockRail is a Rail for tests. Assign EnableFunc or DisableFunc to
// inject failures or journal the sequencing order.
type MockRail struct {
	EnableFunc  SwitchBehaviorFunc
	DisableFunc SwitchBehaviorFunc

	name    string
	enabled bool
}

func NewMockRail(name string) *MockRail {
	return &MockRail{name: name}
}

func (r *MockRail) Name() string { return r.name }

func (r *MockRail) Enable(ctx context.Context) error {
	if r.EnableFunc != nil {
		if err := r.EnableFunc(ctx); err != nil {
			return err
		}
	}
	r.enabled = true
	return nil
}

func (r *MockRail) Disable(ctx context.Context) error {
	if r.DisableFunc != nil {
		if err := r.DisableFunc(ctx); err != nil {
			return err
		}
	}
	r.enabled = false
	return nil
}

// Enabled reports whether the rail believes it is powered.
func (r *MockRail) Enabled() bool { return r.enabled }

// MockClock is a Clock for tests.
type MockClock struct {
	EnableFunc  SwitchBehaviorFunc
	DisableFunc SwitchBehaviorFunc

	name    string
	rate    int64
	enabled bool
}

func NewMockClock(name string, rate int64) *MockClock {
	return &MockClock{name: name, rate: rate}
}

func (c *MockClock) Name() string { return c.name }
func (c *MockClock) Rate() int64  { return c.rate }

func (c *MockClock) Enable(ctx context.Context) error {
	if c.EnableFunc != nil {
		if err := c.EnableFunc(ctx); err != nil {
			return err
		}
	}
	c.enabled = true
	return nil
}

func (c *MockClock) Disable(ctx context.Context) error {
	if c.DisableFunc != nil {
		if err := c.DisableFunc(ctx); err != nil {
			return err
		}
	}
	c.enabled = false
	return nil
}

// Enabled reports whether the clock believes it is running.
func (c *MockClock) Enabled() bool { return c.enabled }

// MockLine is a Line for tests; it remembers every level driven.
type MockLine struct {
	SetFunc LineBehaviorFunc

	name   string
	levels []int
}

func NewMockLine(name string) *MockLine {
	return &MockLine{name: name}
}

func (l *MockLine) Name() string { return l.name }

func (l *MockLine) Set(ctx context.Context, value int) error {
	if l.SetFunc != nil {
		if err := l.SetFunc(ctx, value); err != nil {
			return err
		}
	}
	l.levels = append(l.levels, value)
	return nil
}

// Level returns the last driven level, or -1 when the line was never
// driven.
func (l *MockLine) Level() int {
	if len(l.levels) == 0 {
		return -1
	}
	return l.levels[len(l.levels)-1]
}

// Levels returns every driven level in order.
func (l *MockLine) Levels() []int {
	return append([]int(nil), l.levels...)
}

var (
	_ Rail  = &MockRail{}
	_ Clock = &MockClock{}
	_ Line  = &MockLine{}
)
