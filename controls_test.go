package imx377

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetControlValidation(t *testing.T) {
	tests := []struct {
		name  string
		ctrl  Control
		value int
		ok    bool
	}{
		{"gain min", AnalogGain, 0, true},
		{"gain max", AnalogGain, 0x7A5, true},
		{"gain below", AnalogGain, -1, false},
		{"gain above", AnalogGain, 0x7A6, false},
		{"exposure min", Exposure, 1, true},
		{"exposure max", Exposure, 0xFFFF, true},
		{"exposure zero", Exposure, 0, false},
		{"exposure above", Exposure, 0x10000, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newSensorFixture()
			err := f.sensor.SetControl(context.Background(), tc.ctrl, tc.value)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrOutOfRange)
			}
			assert.Empty(t, f.bus.Transactions(), "no bus traffic while powered off")
		})
	}
}

func TestSetControlOutOfRangeWhileStreaming(t *testing.T) {
	f := newSensorFixture()
	ctx := context.Background()
	require.NoError(t, f.sensor.Start(ctx))
	f.bus.Reset()

	err := f.sensor.SetControl(ctx, AnalogGain, 0x7A6)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Empty(t, f.bus.Transactions(), "rejected values must not reach the bus")
}

func TestSetControlDroppedWhileNotStreaming(t *testing.T) {
	f := newSensorFixture()
	ctx := context.Background()
	require.NoError(t, f.sensor.SetControl(ctx, Exposure, 1000))
	assert.Empty(t, f.bus.Transactions())

	// the dropped value is not replayed by the next start
	require.NoError(t, f.sensor.Start(ctx))
	for _, w := range f.bus.RegisterWrites() {
		assert.NotEqual(t, uint16(0x300B), w.Reg)
		assert.NotEqual(t, uint16(0x300C), w.Reg)
	}
}

func TestSetControlSplitWrites(t *testing.T) {
	tests := []struct {
		name   string
		ctrl   Control
		value  int
		writes []RegisterWrite
	}{
		{
			name:  "exposure",
			ctrl:  Exposure,
			value: 1000,
			writes: []RegisterWrite{
				{Reg: 0x300B, Value: 0x03},
				{Reg: 0x300C, Value: 0xE8},
			},
		},
		{
			name:  "exposure max",
			ctrl:  Exposure,
			value: 0xFFFF,
			writes: []RegisterWrite{
				{Reg: 0x300B, Value: 0xFF},
				{Reg: 0x300C, Value: 0xFF},
			},
		},
		{
			name:  "gain full scale",
			ctrl:  AnalogGain,
			value: 0x7A5,
			writes: []RegisterWrite{
				{Reg: 0x3009, Value: 0x07},
				{Reg: 0x300A, Value: 0xA5},
			},
		},
		{
			name:  "gain keeps low bits of high byte",
			ctrl:  AnalogGain,
			value: 0x123,
			writes: []RegisterWrite{
				{Reg: 0x3009, Value: 0x01},
				{Reg: 0x300A, Value: 0x23},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newSensorFixture()
			ctx := context.Background()
			require.NoError(t, f.sensor.Start(ctx))
			f.bus.Reset()

			require.NoError(t, f.sensor.SetControl(ctx, tc.ctrl, tc.value))
			assert.Equal(t, tc.writes, f.bus.RegisterWrites())
		})
	}
}

func TestSetControlBusErrors(t *testing.T) {
	t.Run("high byte", func(t *testing.T) {
		f := newSensorFixture()
		ctx := context.Background()
		require.NoError(t, f.sensor.Start(ctx))
		f.bus.Reset()
		f.bus.WriteFunc = failRegister(0x300B)

		err := f.sensor.SetControl(ctx, Exposure, 1000)
		require.Error(t, err)
		assert.Len(t, f.bus.Transactions(), 1, "the low byte is never attempted after the high byte failed")
		assert.Equal(t, Streaming, f.sensor.State(), "a control failure does not stop the stream")
	})
	t.Run("low byte", func(t *testing.T) {
		f := newSensorFixture()
		ctx := context.Background()
		require.NoError(t, f.sensor.Start(ctx))
		f.bus.Reset()
		f.bus.WriteFunc = failRegister(0x300C)

		err := f.sensor.SetControl(ctx, Exposure, 1000)
		require.Error(t, err)
		// the high byte landed, the low byte was attempted and failed:
		// the register pair stays torn
		assert.Equal(t, []RegisterWrite{
			{Reg: 0x300B, Value: 0x03},
			{Reg: 0x300C, Value: 0xE8},
		}, f.bus.RegisterWrites())
		assert.Equal(t, Streaming, f.sensor.State())
	})
}

func TestSetControlUnknown(t *testing.T) {
	f := newSensorFixture()
	err := f.sensor.SetControl(context.Background(), Control(42), 1)
	assert.Error(t, err)
	assert.Empty(t, f.bus.Transactions())
}

func TestControlInfo(t *testing.T) {
	assert.Equal(t, ControlInfo{Min: 0, Max: 0x7A5, Step: 1, Default: 0}, AnalogGain.Info())
	assert.Equal(t, ControlInfo{Min: 1, Max: 0xFFFF, Step: 1, Default: 0x03E8}, Exposure.Info())
	assert.Equal(t, []Control{AnalogGain, Exposure}, Controls())
	assert.Equal(t, "gain", AnalogGain.String())
	assert.Equal(t, "exposure", Exposure.String())
}
