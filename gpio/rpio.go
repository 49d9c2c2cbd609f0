package gpio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	imx377 "github.com/Camemake/IMX377"
	"github.com/Camemake/IMX377/power"
)

// RPi drives GPIO lines through the BCM283x register map, for boards
// where the character device is not exposed. One RPi owns the mapping;
// close it last.
type RPi struct {
	mx    sync.Mutex
	lines []*RPiLine
}

// OpenRPi maps the GPIO registers. A missing /dev/gpiomem reports
// ErrUnavailable.
func OpenRPi() (*RPi, error) {
	if err := rpio.Open(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("gpio memory map: %w", imx377.ErrUnavailable)
		}
		return nil, fmt.Errorf("could not map gpio registers: %w", err)
	}
	return &RPi{}, nil
}

// Line configures a BCM pin as an output driven to initial.
func (r *RPi) Line(pin int, name string, initial int, activeLow bool) *RPiLine {
	l := &RPiLine{name: name, pin: rpio.Pin(pin), activeLow: activeLow}
	l.pin.Output()
	l.drive(initial)
	r.mx.Lock()
	r.lines = append(r.lines, l)
	r.mx.Unlock()
	return l
}

// Close reverts every line to input and unmaps the registers.
func (r *RPi) Close() error {
	r.mx.Lock()
	defer r.mx.Unlock()
	for _, l := range r.lines {
		l.pin.Input()
	}
	r.lines = nil
	return rpio.Close()
}

// RPiLine is one memory-mapped GPIO output.
type RPiLine struct {
	name      string
	pin       rpio.Pin
	activeLow bool
}

func (l *RPiLine) Name() string { return l.name }

func (l *RPiLine) Set(ctx context.Context, value int) error {
	l.drive(value)
	return nil
}

func (l *RPiLine) drive(value int) {
	if l.activeLow {
		value = 1 - value
	}
	if value == 0 {
		l.pin.Low()
	} else {
		l.pin.High()
	}
}

var _ power.Line = &RPiLine{}
