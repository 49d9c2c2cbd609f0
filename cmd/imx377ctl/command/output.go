package command

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	imx377 "github.com/Camemake/IMX377"
	"github.com/Camemake/IMX377/cmd/imx377ctl/console"
	"github.com/Camemake/IMX377/power"
)

func encodeYAML(v interface{}) {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		console.Errorf("encoding error: %s", console.Red(err))
	}
	_ = enc.Close()
}

func describeMode(m imx377.Mode) string {
	return fmt.Sprintf("%dx%d %s", m.Width, m.Height, m.Code)
}

// dryRunSensor builds a sensor over a recording mock bus and an all
// fixed supply, for commands that never touch hardware.
func dryRunSensor() *imx377.Sensor {
	supply := power.NewSupply(
		power.NewFixedRail("dvdd"),
		power.NewFixedRail("avdd"),
		power.NewFixedRail("dovdd"),
		power.NewFixedClock("xclk", 24_000_000),
		nil, nil,
	)
	return imx377.New(imx377.NewMockBus(), supply)
}
