package command

import (
	"github.com/urfave/cli/v2"

	imx377 "github.com/Camemake/IMX377"
)

var FmtCmd = &cli.Command{
	Name:    "format",
	Aliases: []string{"fmt"},
	Usage:   "inspect and negotiate the pixel format; negotiation never touches hardware",
	Subcommands: []*cli.Command{
		fmtShowCmd,
		fmtTryCmd,
	},
}

var fmtShowCmd = &cli.Command{
	Name:  "show",
	Usage: "print the active mode",
	Action: func(c *cli.Context) error {
		encodeYAML(dryRunSensor().GetFormat())
		return nil
	},
}

var fmtTryCmd = &cli.Command{
	Name:  "try",
	Usage: "negotiate a mode request against the fixed mode table",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "width", Value: 4056},
		&cli.IntFlag{Name: "height", Value: 3040},
	},
	Action: func(c *cli.Context) error {
		granted := dryRunSensor().SetFormat(imx377.Mode{
			Width:  c.Int("width"),
			Height: c.Int("height"),
		})
		encodeYAML(granted)
		return nil
	},
}
