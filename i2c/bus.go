package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	imx377 "github.com/Camemake/IMX377"
)

var _ imx377.I2CBus = &GenericBus{}

// GenericBus is the sensor transport for hosts with a native I2C
// controller, backed by periph's bus registry.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus opens the named host bus (for example "/dev/i2c-1", or
// "" for the first one registered). A bus the host does not expose yet
// reports ErrUnavailable.
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %q (%v): %w", dev, err, imx377.ErrUnavailable)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// SetSpeed switches the bus frequency where the host driver supports
// it.
func (b *GenericBus) SetSpeed(freq physic.Frequency) error {
	return b.bus.SetSpeed(freq)
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
