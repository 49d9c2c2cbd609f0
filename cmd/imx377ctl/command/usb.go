package command

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"

	"github.com/Camemake/IMX377/adapter"
	"github.com/Camemake/IMX377/cmd/imx377ctl/console"
)

var UsbCmd = &cli.Command{
	Name:  "usb",
	Usage: "inspect USB bridge devices",
	Subcommands: []*cli.Command{
		usbLsCmd,
		usbDetectCmd,
	},
}

var usbLsCmd = &cli.Command{
	Name:  "ls",
	Usage: "list all HID devices",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(0, 0)

		w := tabwriter.NewWriter(os.Stdout, 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")

		for _, dev := range devices {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		_ = w.Flush()
		return nil
	},
}

var usbDetectCmd = &cli.Command{
	Name:  "detect",
	Usage: "list the bridges this tool can drive",
	Action: func(c *cli.Context) error {
		predefined := map[string][]uint16{
			"MCP2221": {adapter.VendorID, adapter.ProductID},
		}

		devices := hid.Enumerate(0, 0)

		w := tabwriter.NewWriter(os.Stdout, 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "VENDOR\tPRODUCT\tDEVICE\n")

		for _, dev := range devices {
			for descName, codes := range predefined {
				if codes[0] == dev.VendorID && codes[1] == dev.ProductID {
					_, _ = fmt.Fprintf(w, "%#x\t%#x\t%s\n", dev.VendorID, dev.ProductID, descName)
				}
			}
		}
		_ = w.Flush()
		return nil
	},
}

var AdapterCmd = &cli.Command{
	Name:  "adapter",
	Usage: "MCP2221 bridge maintenance",
	Subcommands: []*cli.Command{
		adapterStatusCmd,
		adapterReleaseCmd,
	},
}

var adapterStatusCmd = &cli.Command{
	Name:  "status",
	Usage: "dump the bridge's I2C engine status",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		status, err := a.Status(context.Background())
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		encodeYAML(status)
		return nil
	},
}

var adapterReleaseCmd = &cli.Command{
	Name:  "release",
	Usage: "recover a wedged I2C engine",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		status, err := a.ReleaseBus(context.Background())
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		encodeYAML(status)
		return nil
	},
}
