package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"github.com/valerio/gbcore/cartridge"
	"github.com/valerio/gbcore/mmu"
	"github.com/valerio/gbcore/mode"
	"github.com/valerio/gbcore/system"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbcore"
	app.Description = "Game Boy bus/timer/DMA core driver"
	app.Usage = "gbcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Path to a 256-byte boot ROM image (DMG only)",
		},
		cli.BoolFlag{
			Name:  "skip-boot",
			Usage: "Skip boot ROM execution and start from the post-boot register snapshot",
		},
		cli.StringFlag{
			Name:  "force-mode",
			Usage: "Force hardware mode instead of auto-detecting from the cartridge header (dmg or cgb)",
		},
		cli.IntFlag{
			Name:  "cycles",
			Usage: "Number of T-cycles to drive the bus for",
			Value: 4_194_304,
		},
		cli.BoolFlag{
			Name:  "trace-serial",
			Usage: "Log lines written to the serial port",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("gbcore exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	data, err := os.ReadFile(romPath)
	if err != nil {
		return err
	}
	cart := cartridge.New(data)

	hwMode, err := resolveMode(c.String("force-mode"), cart)
	if err != nil {
		return err
	}

	var opts []mmu.Option
	if c.Bool("trace-serial") {
		opts = append(opts, mmu.WithSerialLineLogging())
	}
	if bootPath := c.String("boot-rom"); bootPath != "" {
		boot, err := os.ReadFile(bootPath)
		if err != nil {
			return err
		}
		opts = append(opts, mmu.WithBootROM(boot))
	}

	sys := system.New(hwMode, cart, nil, opts...)

	if c.Bool("skip-boot") {
		sys.SkipBootROM()
	}

	cycles := c.Int("cycles")
	slog.Info("driving bus", "rom", romPath, "mode", hwMode, "cycles", cycles)

	const stride = 4 // one M-cycle per step, matching a CPU memory access
	for done := 0; done < cycles; done += stride {
		sys.Step(stride)
	}

	slog.Info("run complete", "cycles", cycles)
	return nil
}

func resolveMode(forced string, cart *cartridge.Cartridge) (mode.Mode, error) {
	switch forced {
	case "":
		return cart.PreferredMode(), nil
	case "dmg":
		return mode.DMG, nil
	case "cgb":
		return mode.CGB, nil
	default:
		return mode.DMG, errors.New("force-mode must be dmg or cgb")
	}
}
