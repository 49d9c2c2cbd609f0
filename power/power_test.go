package power

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type supplyFixture struct {
	dvdd, avdd, dovdd *MockRail
	xclk              *MockClock
	reset, pwdn       *MockLine
	journal           []string
	supply            *Supply
}

func newSupplyFixture() *supplyFixture {
	f := &supplyFixture{
		dvdd:  NewMockRail("dvdd"),
		avdd:  NewMockRail("avdd"),
		dovdd: NewMockRail("dovdd"),
		xclk:  NewMockClock("xclk", 24_000_000),
		reset: NewMockLine("reset"),
		pwdn:  NewMockLine("pwdn"),
	}
	f.dvdd.EnableFunc = f.log("enable dvdd")
	f.dvdd.DisableFunc = f.log("disable dvdd")
	f.avdd.EnableFunc = f.log("enable avdd")
	f.avdd.DisableFunc = f.log("disable avdd")
	f.dovdd.EnableFunc = f.log("enable dovdd")
	f.dovdd.DisableFunc = f.log("disable dovdd")
	f.xclk.EnableFunc = f.log("enable xclk")
	f.xclk.DisableFunc = f.log("disable xclk")
	f.reset.SetFunc = f.logLine("reset")
	f.pwdn.SetFunc = f.logLine("pwdn")
	f.supply = NewSupply(f.dvdd, f.avdd, f.dovdd, f.xclk, f.reset, f.pwdn, WithSettle(0))
	return f
}

func (f *supplyFixture) log(entry string) SwitchBehaviorFunc {
	return func(ctx context.Context) error {
		f.journal = append(f.journal, entry)
		return nil
	}
}

func (f *supplyFixture) logLine(name string) LineBehaviorFunc {
	return func(ctx context.Context, value int) error {
		f.journal = append(f.journal, fmt.Sprintf("%s %d", name, value))
		return nil
	}
}

func TestSupplyOnSequence(t *testing.T) {
	f := newSupplyFixture()
	require.NoError(t, f.supply.On(context.Background()))
	assert.Equal(t, []string{
		"enable dvdd",
		"enable avdd",
		"enable dovdd",
		"enable xclk",
		"reset 1",
		"pwdn 0",
	}, f.journal)
	assert.True(t, f.dvdd.Enabled())
	assert.True(t, f.avdd.Enabled())
	assert.True(t, f.dovdd.Enabled())
	assert.True(t, f.xclk.Enabled())
	assert.Equal(t, 1, f.reset.Level())
	assert.Equal(t, 0, f.pwdn.Level())
}

func TestSupplyOnRollback(t *testing.T) {
	tests := []struct {
		name    string
		arm     func(f *supplyFixture)
		unwound []string
	}{
		{
			name: "dvdd",
			arm: func(f *supplyFixture) {
				f.dvdd.EnableFunc = func(ctx context.Context) error { return fmt.Errorf("regulator fault") }
			},
			unwound: nil,
		},
		{
			name: "avdd",
			arm: func(f *supplyFixture) {
				f.avdd.EnableFunc = func(ctx context.Context) error { return fmt.Errorf("regulator fault") }
			},
			unwound: []string{"disable dvdd"},
		},
		{
			name: "dovdd",
			arm: func(f *supplyFixture) {
				f.dovdd.EnableFunc = func(ctx context.Context) error { return fmt.Errorf("regulator fault") }
			},
			unwound: []string{"disable avdd", "disable dvdd"},
		},
		{
			name: "xclk",
			arm: func(f *supplyFixture) {
				f.xclk.EnableFunc = func(ctx context.Context) error { return fmt.Errorf("oscillator fault") }
			},
			unwound: []string{"disable dovdd", "disable avdd", "disable dvdd"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newSupplyFixture()
			tc.arm(f)
			err := f.supply.On(context.Background())
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.name)
			assert.False(t, f.dvdd.Enabled())
			assert.False(t, f.avdd.Enabled())
			assert.False(t, f.dovdd.Enabled())
			assert.False(t, f.xclk.Enabled())
			// the failed resource journals nothing, so what remains is
			// the successful enables followed by the reverse unwind
			if len(tc.unwound) > 0 {
				assert.Equal(t, tc.unwound, f.journal[len(f.journal)-len(tc.unwound):])
			}
			assert.Equal(t, -1, f.reset.Level(), "lines must stay untouched when a rail fails")
			assert.Equal(t, -1, f.pwdn.Level())
		})
	}
}

func TestSupplyOnResetLineFailure(t *testing.T) {
	f := newSupplyFixture()
	f.reset.SetFunc = func(ctx context.Context, value int) error { return fmt.Errorf("line stuck") }
	err := f.supply.On(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "reset")
	assert.False(t, f.dvdd.Enabled())
	assert.False(t, f.avdd.Enabled())
	assert.False(t, f.dovdd.Enabled())
	assert.False(t, f.xclk.Enabled())
}

func TestSupplyOnPwdnLineFailure(t *testing.T) {
	f := newSupplyFixture()
	f.pwdn.SetFunc = func(ctx context.Context, value int) error { return fmt.Errorf("line stuck") }
	err := f.supply.On(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "pwdn")
	// reset was released before pwdn failed and must be asserted back
	assert.Equal(t, []int{1, 0}, f.reset.Levels())
	assert.False(t, f.xclk.Enabled())
	assert.False(t, f.dvdd.Enabled())
}

func TestSupplyOffSequence(t *testing.T) {
	f := newSupplyFixture()
	require.NoError(t, f.supply.On(context.Background()))
	f.journal = nil

	f.supply.Off(context.Background())

	assert.Equal(t, []string{
		"pwdn 1",
		"reset 0",
		"disable xclk",
		"disable dovdd",
		"disable avdd",
		"disable dvdd",
	}, f.journal)
	assert.False(t, f.dvdd.Enabled())
	assert.False(t, f.avdd.Enabled())
	assert.False(t, f.dovdd.Enabled())
	assert.False(t, f.xclk.Enabled())
	assert.Equal(t, 1, f.pwdn.Level())
	assert.Equal(t, 0, f.reset.Level())
}

func TestSupplyOffBestEffort(t *testing.T) {
	f := newSupplyFixture()
	require.NoError(t, f.supply.On(context.Background()))

	calls := 0
	failSwitch := func(ctx context.Context) error { calls++; return fmt.Errorf("stuck") }
	failLine := func(ctx context.Context, value int) error { calls++; return fmt.Errorf("stuck") }
	f.dvdd.DisableFunc = failSwitch
	f.avdd.DisableFunc = failSwitch
	f.dovdd.DisableFunc = failSwitch
	f.xclk.DisableFunc = failSwitch
	f.reset.SetFunc = failLine
	f.pwdn.SetFunc = failLine

	f.supply.Off(context.Background())

	// both lines, the clock and all three rails were attempted even
	// though every one of them failed
	assert.Equal(t, 6, calls)
}

func TestSupplyWithoutLines(t *testing.T) {
	f := newSupplyFixture()
	f.supply = NewSupply(f.dvdd, f.avdd, f.dovdd, f.xclk, nil, nil, WithSettle(0))

	require.NoError(t, f.supply.On(context.Background()))
	assert.Equal(t, []string{"enable dvdd", "enable avdd", "enable dovdd", "enable xclk"}, f.journal)

	f.journal = nil
	f.supply.Off(context.Background())
	assert.Equal(t, []string{"disable xclk", "disable dovdd", "disable avdd", "disable dvdd"}, f.journal)
}

func TestSupplyClockRate(t *testing.T) {
	f := newSupplyFixture()
	assert.Equal(t, int64(24_000_000), f.supply.ClockRate())
}
