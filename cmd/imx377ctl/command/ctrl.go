package command

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	imx377 "github.com/Camemake/IMX377"
	"github.com/Camemake/IMX377/cmd/imx377ctl/console"
)

var CtrlCmd = &cli.Command{
	Name:  "ctrl",
	Usage: "sensor control plane",
	Subcommands: []*cli.Command{
		ctrlLsCmd,
		ctrlSetCmd,
	},
}

var ctrlLsCmd = &cli.Command{
	Name:  "ls",
	Usage: "list supported controls and their ranges",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(os.Stdout, 12, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "CONTROL\tMIN\tMAX\tSTEP\tDEFAULT\n")
		for _, ctrl := range imx377.Controls() {
			info := ctrl.Info()
			_, _ = fmt.Fprintf(w, "%s\t%d\t%#x\t%d\t%#x\n", ctrl, info.Min, info.Max, info.Step, info.Default)
		}
		_ = w.Flush()
		return nil
	},
}

var ctrlSetCmd = &cli.Command{
	Name:      "set",
	Usage:     "apply a control value; values only reach the sensor while it streams",
	ArgsUsage: "<gain|exposure> <value>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		ctrl, err := parseControl(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "%v", err)
		}
		value, err := strconv.ParseInt(c.Args().Get(1), 0, 32)
		if err != nil {
			return console.Exit(1, "bad value %q: %v", c.Args().Get(1), err)
		}
		r, err := openRig(c)
		if err != nil {
			return console.Fail("could not assemble the rig", err)
		}
		defer r.close()
		if err := r.sensor.SetControl(context.Background(), ctrl, int(value)); err != nil {
			return console.Fail("could not apply control", err)
		}
		if r.sensor.State() != imx377.Streaming {
			console.Warnf("sensor is %s; the value was accepted and dropped", r.sensor.State())
			return nil
		}
		console.PInfof(console.PictoGauge, "%s set to %d", ctrl, value)
		return nil
	},
}

func parseControl(name string) (imx377.Control, error) {
	switch strings.ToLower(name) {
	case "gain", "analog-gain":
		return imx377.AnalogGain, nil
	case "exposure", "exp":
		return imx377.Exposure, nil
	default:
		return 0, fmt.Errorf("unknown control %q", name)
	}
}
