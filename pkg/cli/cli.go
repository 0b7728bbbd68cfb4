// Package cli provides the command-line interface for bookqa.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to bookqa.yaml (default: look in the current directory)",
		EnvVars: []string{"BOOKQA_CONFIG"},
	},
	&cli.StringFlag{
		Name:  "env-file",
		Usage: "Load KEY=VALUE pairs from this file (default: .env if present)",
	},
	&cli.StringFlag{
		Name:    "driver",
		Aliases: []string{"d"},
		Usage:   "Browser backend (webdriver, playwright)",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"BOOKQA_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the application with all commands.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "bookqa",
		Usage:   "Resilient UI, API and file checks for the litres.ru book store",
		Version: Version,
		Description: `bookqa runs the store QA suite against a remote Selenoid grid or a local
browser and writes Allure results.

Examples:
  bookqa run
  bookqa run --kind api --include-tags smoke
  bookqa --driver playwright run --kind ui --headless=false
  bookqa list --kind ui
  bookqa audit --url https://www.litres.ru/`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			listCommand,
			auditCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
