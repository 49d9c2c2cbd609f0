package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/Camemake/IMX377/cmd/imx377ctl/console"
)

var RegCmd = &cli.Command{
	Name:  "reg",
	Usage: "raw register access for bring-up work",
	Subcommands: []*cli.Command{
		regReadCmd,
		regWriteCmd,
	},
}

var regReadCmd = &cli.Command{
	Name:      "read",
	Usage:     "read one register",
	ArgsUsage: "<register>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "power-up", Aliases: []string{"p"}, Usage: "power the sensor into standby first"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		reg, err := strconv.ParseUint(c.Args().Get(0), 0, 16)
		if err != nil {
			return console.Exit(1, "could not parse register: %v", err)
		}
		r, err := openRig(c)
		if err != nil {
			return console.Fail("could not assemble the rig", err)
		}
		defer r.close()
		ctx := context.Background()
		if c.Bool("power-up") {
			if err := r.sensor.PowerUp(ctx); err != nil {
				return console.Fail("could not power up", err)
			}
		}
		val, err := r.sensor.ReadRegister(ctx, uint16(reg))
		if err != nil {
			return console.Fail("register read error", err)
		}
		console.Printf("%s: %s\n", console.Cyan(fmt.Sprintf("%#06x", reg)), console.White(fmt.Sprintf("%#04x", val)))
		return nil
	},
}

var regWriteCmd = &cli.Command{
	Name:      "write",
	Usage:     "write one register",
	ArgsUsage: "<register> <value>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
		&cli.BoolFlag{Name: "power-up", Aliases: []string{"p"}, Usage: "power the sensor into standby first"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		reg, err := strconv.ParseUint(c.Args().Get(0), 0, 16)
		if err != nil {
			return console.Exit(1, "could not parse register: %v", err)
		}
		val, err := strconv.ParseUint(c.Args().Get(1), 0, 8)
		if err != nil {
			return console.Exit(1, "could not parse value: %v", err)
		}
		if !c.Bool("yes") && !console.Confirm(fmt.Sprintf("write %#04x to %#06x?", val, reg)) {
			console.Print("aborted")
			return nil
		}
		r, err := openRig(c)
		if err != nil {
			return console.Fail("could not assemble the rig", err)
		}
		defer r.close()
		ctx := context.Background()
		if c.Bool("power-up") {
			if err := r.sensor.PowerUp(ctx); err != nil {
				return console.Fail("could not power up", err)
			}
		}
		if err := r.sensor.WriteRegister(ctx, uint16(reg), byte(val)); err != nil {
			return console.Fail("register write error", err)
		}
		console.Printf("%s <- %s\n", console.Cyan(fmt.Sprintf("%#06x", reg)), console.White(fmt.Sprintf("%#04x", val)))
		return nil
	},
}
