// Package gpio provides power.Line implementations backed by host GPIO:
// the kernel character device for current kernels and the BCM283x
// memory map for boards without it.
package gpio

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/warthog618/go-gpiocdev"

	imx377 "github.com/Camemake/IMX377"
	"github.com/Camemake/IMX377/power"
)

// CdevLine drives one GPIO through the kernel character device. Levels
// are logical; active-low inversion happens inside the kernel request.
type CdevLine struct {
	name string
	line *gpiocdev.Line
}

// NewCdevLine requests offset on chip (for example "gpiochip0") as an
// output driven to initial. A missing chip reports ErrUnavailable so
// callers can retry once the device shows up.
func NewCdevLine(chip string, offset int, name string, initial int, activeLow bool) (*CdevLine, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsOutput(initial),
		gpiocdev.WithConsumer("imx377-" + name),
	}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := gpiocdev.RequestLine(chip, offset, opts...)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("gpio chip %s: %w", chip, imx377.ErrUnavailable)
		}
		return nil, fmt.Errorf("could not request %s line %d on %s: %w", name, offset, chip, err)
	}
	return &CdevLine{name: name, line: line}, nil
}

func (l *CdevLine) Name() string { return l.name }

func (l *CdevLine) Set(ctx context.Context, value int) error {
	if err := l.line.SetValue(value); err != nil {
		return fmt.Errorf("could not drive %s: %w", l.name, err)
	}
	return nil
}

// Close releases the kernel line request.
func (l *CdevLine) Close() error {
	return l.line.Close()
}

var _ power.Line = &CdevLine{}
