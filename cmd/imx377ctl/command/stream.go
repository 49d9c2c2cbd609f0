package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	imx377 "github.com/Camemake/IMX377"
	"github.com/Camemake/IMX377/cmd/imx377ctl/console"
)

var StreamCmd = &cli.Command{
	Name:  "stream",
	Usage: "drive the sensor's streaming state; streaming stops when the command exits",
	Subcommands: []*cli.Command{
		streamRunCmd,
		streamStartCmd,
	},
}

var streamRunCmd = &cli.Command{
	Name:  "run",
	Usage: "stream with an interactive console for controls and registers",
	Action: func(c *cli.Context) error {
		r, err := openRig(c)
		if err != nil {
			return console.Fail("could not assemble the rig", err)
		}
		defer r.close()
		ctx := context.Background()
		if err := r.sensor.Start(ctx); err != nil {
			return console.Fail("could not start streaming", err)
		}
		console.PInfof(console.PictoCamera, "streaming %s", describeMode(r.sensor.GetFormat()))
		defer func() {
			if err := r.sensor.Stop(ctx); err != nil {
				console.Errorf("stop error: %s", console.Red(err))
				return
			}
			console.PInfof(console.PictoPower, "sensor depowered")
		}()
		return runShell(ctx, r)
	},
}

var streamStartCmd = &cli.Command{
	Name:  "start",
	Usage: "stream until interrupted or until the hold time elapses",
	Flags: []cli.Flag{
		&cli.DurationFlag{Name: "for", Usage: "hold time, 0 streams until interrupt"},
	},
	Action: func(c *cli.Context) error {
		r, err := openRig(c)
		if err != nil {
			return console.Fail("could not assemble the rig", err)
		}
		defer r.close()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := r.sensor.Start(ctx); err != nil {
			return console.Fail("could not start streaming", err)
		}
		console.PInfof(console.PictoCamera, "streaming %s", describeMode(r.sensor.GetFormat()))
		hold := c.Duration("for")
		if hold > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(hold):
			}
		} else {
			<-ctx.Done()
		}
		if err := r.sensor.Stop(context.Background()); err != nil {
			return console.Fail("could not stop streaming", err)
		}
		console.PInfof(console.PictoStop, "streaming stopped")
		return nil
	},
}

func runShell(ctx context.Context, r *rig) error {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("gain"),
		readline.PcItem("exposure"),
		readline.PcItem("status"),
		readline.PcItem("format"),
		readline.PcItem("read"),
		readline.PcItem("write"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          console.Bold("imx377> "),
		HistoryFile:     filepath.Join(os.TempDir(), "imx377ctl.history"),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return console.Fail("could not open console", err)
	}
	defer func() { _ = rl.Close() }()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return console.Fail("console read error", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "exit", "quit", "stop":
			return nil
		case "help", "?":
			printShellHelp()
		case "status":
			console.Printf("state: %s\n", console.Green(r.sensor.State()))
		case "format":
			encodeYAML(r.sensor.GetFormat())
		case "gain":
			shellSetControl(ctx, r, imx377.AnalogGain, fields[1:])
		case "exposure", "exp":
			shellSetControl(ctx, r, imx377.Exposure, fields[1:])
		case "read":
			shellReadRegister(ctx, r, fields[1:])
		case "write":
			shellWriteRegister(ctx, r, fields[1:])
		default:
			console.Warnf("unknown command %q, try help", fields[0])
		}
	}
}

func shellSetControl(ctx context.Context, r *rig, ctrl imx377.Control, args []string) {
	if len(args) != 1 {
		console.Warnf("usage: %s <value>", ctrl)
		return
	}
	value, err := strconv.ParseInt(args[0], 0, 32)
	if err != nil {
		console.Errorf("bad value %q: %s", args[0], console.Red(err))
		return
	}
	if err := r.sensor.SetControl(ctx, ctrl, int(value)); err != nil {
		console.Errorf("set %s: %s", ctrl, console.Red(err))
		return
	}
	console.PInfof(console.PictoGauge, "%s set to %d", ctrl, value)
}

func shellReadRegister(ctx context.Context, r *rig, args []string) {
	if len(args) != 1 {
		console.Warn("usage: read <register>")
		return
	}
	reg, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		console.Errorf("bad register %q: %s", args[0], console.Red(err))
		return
	}
	val, err := r.sensor.ReadRegister(ctx, uint16(reg))
	if err != nil {
		console.Errorf("read: %s", console.Red(err))
		return
	}
	console.Printf("%s: %s\n", console.Cyan(fmt.Sprintf("%#06x", reg)), console.White(fmt.Sprintf("%#04x", val)))
}

func shellWriteRegister(ctx context.Context, r *rig, args []string) {
	if len(args) != 2 {
		console.Warn("usage: write <register> <value>")
		return
	}
	reg, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		console.Errorf("bad register %q: %s", args[0], console.Red(err))
		return
	}
	val, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		console.Errorf("bad value %q: %s", args[1], console.Red(err))
		return
	}
	if err := r.sensor.WriteRegister(ctx, uint16(reg), byte(val)); err != nil {
		console.Errorf("write: %s", console.Red(err))
		return
	}
	console.Printf("%s <- %s\n", console.Cyan(fmt.Sprintf("%#06x", reg)), console.White(fmt.Sprintf("%#04x", val)))
}

func printShellHelp() {
	console.Print("gain <value>       set analog gain")
	console.Print("exposure <value>   set coarse exposure time")
	console.Print("status             show the state machine position")
	console.Print("format             show the active mode")
	console.Print("read <reg>         read a register")
	console.Print("write <reg> <val>  write a register")
	console.Print("exit               stop streaming and leave")
}
