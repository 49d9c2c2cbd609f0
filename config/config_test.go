package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "mcp2221", cfg.Bus.Adapter)
	assert.Equal(t, byte(0x1A), cfg.Bus.Address)
	assert.Equal(t, "mcp2221", cfg.Power.Provider)
	assert.Equal(t, int64(24_000_000), cfg.Power.XclkRate)
	assert.Equal(t, 10*time.Millisecond, cfg.Power.Settle())
	require.NotNil(t, cfg.Power.Reset)
	assert.True(t, cfg.Power.Reset.ActiveLow)
	assert.Nil(t, cfg.Power.Dvdd, "rails are hardwired on the bench rig")
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bus:
  adapter: sc18im704
  device: /dev/ttyUSB0
  speed_khz: 400
power:
  provider: cdev
  chip: gpiochip0
  dvdd:
    line: 17
  reset:
    line: 27
    active_low: true
  pwdn: null
  settle_ms: 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sc18im704", cfg.Bus.Adapter)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Bus.Device)
	assert.Equal(t, 115200, cfg.Bus.Baud, "baud keeps its default")
	assert.Equal(t, 400, cfg.Bus.SpeedKHz)
	assert.Equal(t, byte(0x1A), cfg.Bus.Address, "address keeps its default")

	assert.Equal(t, "cdev", cfg.Power.Provider)
	require.NotNil(t, cfg.Power.Dvdd)
	assert.Equal(t, 17, cfg.Power.Dvdd.Line)
	require.NotNil(t, cfg.Power.Reset)
	assert.Equal(t, 27, cfg.Power.Reset.Line)
	assert.Nil(t, cfg.Power.Pwdn, "an explicit null drops the default line")
	assert.Equal(t, 5*time.Millisecond, cfg.Power.Settle())
	assert.Equal(t, int64(24_000_000), cfg.Power.XclkRate, "xclk keeps its default")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bus:\n  adapter: bitbang\n"), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "bitbang")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Config)
		want string
	}{
		{"unknown adapter", func(c *Config) { c.Bus.Adapter = "spi" }, "unknown bus adapter"},
		{"address too wide", func(c *Config) { c.Bus.Address = 0x80 }, "7-bit"},
		{"address zero", func(c *Config) { c.Bus.Address = 0 }, "7-bit"},
		{"sc18im704 without device", func(c *Config) {
			c.Bus.Adapter = "sc18im704"
			c.Bus.Device = ""
		}, "serial device"},
		{"sc18im704 without baud", func(c *Config) {
			c.Bus.Adapter = "sc18im704"
			c.Bus.Device = "/dev/ttyUSB0"
			c.Bus.Baud = 0
		}, "baud"},
		{"negative speed", func(c *Config) { c.Bus.SpeedKHz = -1 }, "negative"},
		{"unknown provider", func(c *Config) { c.Power.Provider = "relay" }, "unknown power provider"},
		{"cdev without chip", func(c *Config) { c.Power.Provider = "cdev" }, "gpio chip"},
		{"zero xclk", func(c *Config) { c.Power.XclkRate = 0 }, "xclk"},
		{"settle too long", func(c *Config) { c.Power.SettleMs = 2000 }, "settle"},
		{"negative line", func(c *Config) { c.Power.Reset.Line = -2 }, "negative"},
		{"line beyond mcp2221", func(c *Config) { c.Power.Pwdn.Line = 4 }, "MCP2221"},
		{"line beyond mcp23017", func(c *Config) {
			c.Power.Provider = "mcp23017"
			c.Power.Pwdn.Line = 16
		}, "MCP23017"},
		{"expander address too wide", func(c *Config) {
			c.Power.Provider = "mcp23017"
			c.Power.Address = 0x80
		}, "expander address"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mod(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
