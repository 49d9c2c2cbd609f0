// Package config describes the board the sensor sits on: which bus
// adapter carries register traffic and how the supply tree is wired.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	imx377 "github.com/Camemake/IMX377"
)

// Version is injected at build time.
var Version = "dev"

// Config is the full board description.
type Config struct {
	Bus   Bus   `yaml:"bus"`
	Power Power `yaml:"power"`
}

// Bus selects the adapter carrying the sensor's register traffic.
type Bus struct {
	// Adapter is one of mcp2221, sc18im704, periph, gobot.
	Adapter string `yaml:"adapter"`
	// Device is the host device node, for adapters that need one:
	// the serial port for sc18im704, the i2c node for periph.
	Device string `yaml:"device"`
	// Number is the gobot bus number; negative means platform default.
	Number int `yaml:"number"`
	// Baud is the sc18im704 UART rate.
	Baud int `yaml:"baud"`
	// SpeedKHz reprograms the bus clock where the adapter supports it;
	// zero keeps the adapter default.
	SpeedKHz int `yaml:"speed_khz"`
	// Address is the sensor's 7-bit address.
	Address byte `yaml:"address"`
}

// LineRef names one GPIO of the power provider. A nil LineRef in
// Power means that function is hardwired on the board.
type LineRef struct {
	Line      int  `yaml:"line"`
	ActiveLow bool `yaml:"active_low"`
}

// Power describes the supply tree wiring.
type Power struct {
	// Provider is one of fixed, cdev, rpio, mcp2221, mcp23017.
	Provider string `yaml:"provider"`
	// Chip is the gpiochip name for the cdev provider.
	Chip string `yaml:"chip"`
	// Address is the mcp23017 expander's 7-bit address; zero picks
	// the all-straps-low default.
	Address byte     `yaml:"address"`
	Dvdd    *LineRef `yaml:"dvdd"`
	Avdd    *LineRef `yaml:"avdd"`
	Dovdd   *LineRef `yaml:"dovdd"`
	Xclk    *LineRef `yaml:"xclk"`
	Reset   *LineRef `yaml:"reset"`
	Pwdn    *LineRef `yaml:"pwdn"`
	// XclkRate is the external clock's nominal rate in Hz.
	XclkRate int64 `yaml:"xclk_rate"`
	// SettleMs is the post-power-on stabilization wait.
	SettleMs int `yaml:"settle_ms"`
}

// Settle returns the stabilization wait as a duration.
func (p Power) Settle() time.Duration {
	return time.Duration(p.SettleMs) * time.Millisecond
}

var validAdapters = map[string]bool{
	"mcp2221":   true,
	"sc18im704": true,
	"periph":    true,
	"gobot":     true,
}

var validProviders = map[string]bool{
	"fixed":    true,
	"cdev":     true,
	"rpio":     true,
	"mcp2221":  true,
	"mcp23017": true,
}

// Default describes the USB bench rig: MCP2221 carrying the bus, its
// spare GP pins driving reset and power-down, rails hardwired.
func Default() Config {
	return Config{
		Bus: Bus{
			Adapter: "mcp2221",
			Number:  -1,
			Baud:    115200,
			Address: imx377.DefaultAddress,
		},
		Power: Power{
			Provider: "mcp2221",
			Reset:    &LineRef{Line: 0, ActiveLow: true},
			Pwdn:     &LineRef{Line: 1},
			XclkRate: 24_000_000,
			SettleMs: 10,
		},
	}
}

// Load reads path into a config seeded with the defaults, so a file
// only has to name what differs from the bench rig.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the description for values no provider can honor.
func (c Config) Validate() error {
	if !validAdapters[c.Bus.Adapter] {
		return fmt.Errorf("unknown bus adapter %q", c.Bus.Adapter)
	}
	if c.Bus.Address == 0 || c.Bus.Address > 0x7F {
		return fmt.Errorf("bus address %#x is not a 7-bit address", c.Bus.Address)
	}
	if c.Bus.Adapter == "sc18im704" {
		if c.Bus.Device == "" {
			return fmt.Errorf("sc18im704 adapter needs a serial device")
		}
		if c.Bus.Baud <= 0 {
			return fmt.Errorf("sc18im704 adapter needs a baud rate, got %d", c.Bus.Baud)
		}
	}
	if c.Bus.SpeedKHz < 0 {
		return fmt.Errorf("bus speed %d kHz is negative", c.Bus.SpeedKHz)
	}
	if !validProviders[c.Power.Provider] {
		return fmt.Errorf("unknown power provider %q", c.Power.Provider)
	}
	if c.Power.Provider == "cdev" && c.Power.Chip == "" {
		return fmt.Errorf("cdev power provider needs a gpio chip")
	}
	if c.Power.Provider == "mcp23017" && c.Power.Address > 0x7F {
		return fmt.Errorf("expander address %#x is not a 7-bit address", c.Power.Address)
	}
	if c.Power.XclkRate <= 0 {
		return fmt.Errorf("xclk rate %d Hz is not positive", c.Power.XclkRate)
	}
	if c.Power.SettleMs < 0 || c.Power.SettleMs > 1000 {
		return fmt.Errorf("settle time %d ms outside [0, 1000]", c.Power.SettleMs)
	}
	refs := []struct {
		name string
		ref  *LineRef
	}{
		{"dvdd", c.Power.Dvdd},
		{"avdd", c.Power.Avdd},
		{"dovdd", c.Power.Dovdd},
		{"xclk", c.Power.Xclk},
		{"reset", c.Power.Reset},
		{"pwdn", c.Power.Pwdn},
	}
	for _, r := range refs {
		if r.ref == nil {
			continue
		}
		if r.ref.Line < 0 {
			return fmt.Errorf("%s line %d is negative", r.name, r.ref.Line)
		}
		// the MCP2221 only has GP0 through GP3
		if c.Power.Provider == "mcp2221" && r.ref.Line > 3 {
			return fmt.Errorf("%s line %d does not exist on the MCP2221", r.name, r.ref.Line)
		}
		if c.Power.Provider == "mcp23017" && r.ref.Line > 15 {
			return fmt.Errorf("%s line %d does not exist on the MCP23017", r.name, r.ref.Line)
		}
	}
	return nil
}
