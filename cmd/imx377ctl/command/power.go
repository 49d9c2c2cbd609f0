package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/Camemake/IMX377/cmd/imx377ctl/console"
)

var PowerCmd = &cli.Command{
	Name:  "power",
	Usage: "drive the supply tree",
	Subcommands: []*cli.Command{
		powerUpCmd,
		powerDownCmd,
	},
}

var powerUpCmd = &cli.Command{
	Name:  "up",
	Usage: "bring the sensor into standby without streaming",
	Action: func(c *cli.Context) error {
		r, err := openRig(c)
		if err != nil {
			return console.Fail("could not assemble the rig", err)
		}
		defer r.close()
		if err := r.sensor.PowerUp(context.Background()); err != nil {
			return console.Fail("power up error", err)
		}
		console.PInfof(console.PictoPower, "sensor in standby (rails up, clock %d Hz)", r.supply.ClockRate())
		return nil
	},
}

var powerDownCmd = &cli.Command{
	Name:  "down",
	Usage: "force the whole supply tree off",
	Action: func(c *cli.Context) error {
		r, err := openRig(c)
		if err != nil {
			return console.Fail("could not assemble the rig", err)
		}
		defer r.close()
		// drive the teardown unconditionally: this is the recovery
		// path when a previous run left the sensor powered
		r.supply.Off(context.Background())
		console.PInfof(console.PictoPower, "supply tree off")
		return nil
	},
}
