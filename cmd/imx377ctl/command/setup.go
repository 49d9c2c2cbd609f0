package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	imx377 "github.com/Camemake/IMX377"
	"github.com/Camemake/IMX377/adapter"
	"github.com/Camemake/IMX377/config"
	"github.com/Camemake/IMX377/gpio"
	"github.com/Camemake/IMX377/i2c"
	"github.com/Camemake/IMX377/power"
)

// rig is everything a command needs to talk to the board: the
// assembled sensor plus the supply and bus underneath it.
type rig struct {
	sensor *imx377.Sensor
	supply *power.Supply
	bus    imx377.I2CBus
	config config.Config

	closers []func() error
}

func (r *rig) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			slog.Warn("close error", "error", err)
		}
	}
}

// loadConfig resolves the board description from the global config
// flag, falling back to the bench rig defaults.
func loadConfig(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openRig assembles the rig, retrying while a resource reports
// ErrUnavailable and the wait window lasts. With no wait flag a
// missing resource fails immediately.
func openRig(c *cli.Context) (*rig, error) {
	deadline := time.Now().Add(c.Duration("wait"))
	for {
		r, err := buildRig(c)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, imx377.ErrUnavailable) || !time.Now().Before(deadline) {
			return nil, err
		}
		slog.Info("resource not ready, retrying", "error", err)
		time.Sleep(500 * time.Millisecond)
	}
}

func buildRig(c *cli.Context) (*rig, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	r := &rig{config: cfg}
	if err := r.buildBus(); err != nil {
		return nil, err
	}
	if err := r.buildSupply(); err != nil {
		r.close()
		return nil, err
	}
	r.sensor = imx377.New(r.bus, r.supply, imx377.WithAddress(cfg.Bus.Address))
	return r, nil
}

func (r *rig) buildBus() error {
	cfg := r.config.Bus
	switch cfg.Adapter {
	case "mcp2221":
		r.bus = adapter.NewMCP2221()
	case "sc18im704":
		bridge, err := adapter.OpenSC18IM704(cfg.Device, cfg.Baud)
		if err != nil {
			return err
		}
		if cfg.SpeedKHz > 0 {
			if err := bridge.SetSpeed(cfg.SpeedKHz); err != nil {
				_ = bridge.Close()
				return err
			}
		}
		r.bus = bridge
		r.closers = append(r.closers, bridge.Close)
	case "periph":
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return err
		}
		if cfg.SpeedKHz > 0 {
			if err := bus.SetSpeed(physic.Frequency(cfg.SpeedKHz) * physic.KiloHertz); err != nil {
				_ = bus.Close()
				return err
			}
		}
		r.bus = bus
		r.closers = append(r.closers, bus.Close)
	case "gobot":
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return fmt.Errorf("could not connect i2c adaptor: %w", err)
		}
		bus := i2c.NewGobotBus(npi, cfg.Number)
		r.bus = bus
		r.closers = append(r.closers, npi.I2cBusAdaptor.Finalize, bus.Close)
	default:
		return fmt.Errorf("unknown bus adapter %q", cfg.Adapter)
	}
	return nil
}

// lineFunc hands out one provider GPIO, configured as an output driven
// to the given logical level.
type lineFunc func(ref config.LineRef, name string, initial int) (power.Line, error)

// lineProvider returns the provider's line factory; nil means every
// supply function is hardwired.
func (r *rig) lineProvider() (lineFunc, error) {
	cfg := r.config.Power
	switch cfg.Provider {
	case "fixed":
		return nil, nil
	case "cdev":
		return func(ref config.LineRef, name string, initial int) (power.Line, error) {
			l, err := gpio.NewCdevLine(cfg.Chip, ref.Line, name, initial, ref.ActiveLow)
			if err != nil {
				return nil, err
			}
			r.closers = append(r.closers, l.Close)
			return l, nil
		}, nil
	case "rpio":
		rpi, err := gpio.OpenRPi()
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, rpi.Close)
		return func(ref config.LineRef, name string, initial int) (power.Line, error) {
			return rpi.Line(ref.Line, name, initial, ref.ActiveLow), nil
		}, nil
	case "mcp2221":
		dev, ok := r.bus.(*adapter.MCP2221)
		if !ok {
			// power through the bridge while the bus runs elsewhere
			dev = adapter.NewMCP2221()
		}
		if err := configureBridgePins(dev, cfg); err != nil {
			return nil, err
		}
		return func(ref config.LineRef, name string, initial int) (power.Line, error) {
			l := dev.GPIOLine(ref.Line, name, ref.ActiveLow)
			if err := l.Set(context.Background(), initial); err != nil {
				return nil, err
			}
			return l, nil
		}, nil
	case "mcp23017":
		// the expander shares the sensor's bus
		addr := cfg.Address
		if addr == 0 {
			addr = gpio.DefaultMCP23017Address
		}
		exp := gpio.NewMCP23017(r.bus, addr)
		return func(ref config.LineRef, name string, initial int) (power.Line, error) {
			return exp.Line(context.Background(), ref.Line, name, initial, ref.ActiveLow)
		}, nil
	default:
		return nil, fmt.Errorf("unknown power provider %q", cfg.Provider)
	}
}

// configureBridgePins puts every GP pin the description uses into GPIO
// output operation, leaving the other pins as they are.
func configureBridgePins(dev *adapter.MCP2221, cfg config.Power) error {
	ctx := context.Background()
	params, err := dev.GetGPIOParameters(ctx)
	if err != nil {
		return fmt.Errorf("could not read GP parameters: %w", err)
	}
	for _, ref := range []*config.LineRef{cfg.Dvdd, cfg.Avdd, cfg.Dovdd, cfg.Xclk, cfg.Reset, cfg.Pwdn} {
		if ref == nil {
			continue
		}
		switch ref.Line {
		case 0:
			params.GPIO0Mode = adapter.GPIOModeOut
			params.GPIO0Designation = adapter.GPIOOperation
		case 1:
			params.GPIO1Mode = adapter.GPIOModeOut
			params.GPIO1Designation = adapter.GPIOOperation
		case 2:
			params.GPIO2Mode = adapter.GPIOModeOut
			params.GPIO2Designation = adapter.GPIOOperation
		case 3:
			params.GPIO3Mode = adapter.GPIOModeOut
			params.GPIO3Designation = adapter.GPIOOperation
		}
	}
	if err := dev.SetGPIOParameters(ctx, params); err != nil {
		return fmt.Errorf("could not configure GP pins: %w", err)
	}
	return nil
}

func (r *rig) buildSupply() error {
	cfg := r.config.Power
	provider, err := r.lineProvider()
	if err != nil {
		return err
	}

	rail := func(ref *config.LineRef, name string) (power.Rail, error) {
		if ref == nil || provider == nil {
			return power.NewFixedRail(name), nil
		}
		l, err := provider(*ref, name, 0)
		if err != nil {
			return nil, err
		}
		return power.NewLineRail(name, l), nil
	}

	dvdd, err := rail(cfg.Dvdd, "dvdd")
	if err != nil {
		return err
	}
	avdd, err := rail(cfg.Avdd, "avdd")
	if err != nil {
		return err
	}
	dovdd, err := rail(cfg.Dovdd, "dovdd")
	if err != nil {
		return err
	}

	var clock power.Clock
	if cfg.Xclk == nil || provider == nil {
		clock = power.NewFixedClock("xclk", cfg.XclkRate)
	} else {
		l, err := provider(*cfg.Xclk, "xclk", 0)
		if err != nil {
			return err
		}
		clock = power.NewLineClock("xclk", cfg.XclkRate, l)
	}

	var reset, pwdn power.Line
	if cfg.Reset != nil && provider != nil {
		if reset, err = provider(*cfg.Reset, "reset", 0); err != nil {
			return err
		}
	}
	if cfg.Pwdn != nil && provider != nil {
		if pwdn, err = provider(*cfg.Pwdn, "pwdn", 1); err != nil {
			return err
		}
	}

	r.supply = power.NewSupply(dvdd, avdd, dovdd, clock, reset, pwdn, power.WithSettle(cfg.Settle()))
	return nil
}
