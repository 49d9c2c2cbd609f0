package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/Camemake/IMX377/cmd/imx377ctl/console"
	"github.com/Camemake/IMX377/config"
)

var StatusCmd = &cli.Command{
	Name:  "status",
	Usage: "show the resolved board description and sensor mode",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "probe", Usage: "read the mode-select register to check the sensor answers"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail("could not load config", err)
		}
		console.Printf("imx377ctl %s\n", console.White(config.Version))
		encodeYAML(cfg)
		encodeYAML(dryRunSensor().GetFormat())
		if !c.Bool("probe") {
			return nil
		}
		r, err := openRig(c)
		if err != nil {
			return console.Fail("could not assemble the rig", err)
		}
		defer r.close()
		// mode select, 0x00 in standby and 0x01 while streaming
		val, err := r.sensor.ReadRegister(context.Background(), 0x0100)
		if err != nil {
			return console.Fail("sensor not answering", err)
		}
		console.PInfof(console.PictoPin, "sensor answers, mode select %#04x", val)
		return nil
	},
}
