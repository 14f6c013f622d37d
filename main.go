package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pmc-tools/pmcconf/cmd"
)

func main() {
	app := &cli.App{
		Name:  "pmcconf",
		Usage: "inspect and edit device configurations in a PMC file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Usage:   "path to the PMC file",
				EnvVars: []string{"PMC_FILE"},
			},
			&cli.StringFlag{
				Name:  "dev",
				Usage: "device name to operate on (matched against the <name> tag)",
			},
			&cli.BoolFlag{
				Name:    "no-backup",
				Usage:   "do not create a .backup copy when saving",
				EnvVars: []string{"PMC_NO_BACKUP"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list all devices in document order",
				Action: cmd.List,
			},
			{
				Name:      "get",
				Usage:     "print a configuration variable (raw and, for thresholds, real)",
				ArgsUsage: "VARIABLE",
				Action:    cmd.Get,
			},
			{
				Name:      "set",
				Usage:     "set a configuration variable and save",
				ArgsUsage: "VARIABLE VALUE",
				Action:    cmd.Set,
			},
			{
				Name:   "set-thres",
				Usage:  "interactively edit all threshold and mask parameters",
				Action: cmd.SetThresholds,
			},
			{
				Name:   "info",
				Usage:  "print the full report for one device",
				Action: cmd.Info,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
