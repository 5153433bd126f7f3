// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for modweave.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "modweave",
		Short: "Sort and check RimWorld mod lists",
		Long: TitleStyle.Render("modweave") + SubtitleStyle.Render(" - Sort and check RimWorld mod lists") + `

modweave scans the installed mods, reads the active list from the game's
ModsConfig.xml and computes a load order that honours every loadBefore,
loadAfter and dependency declaration. Problems such as missing dependencies,
incompatible pairs and contradictory rules are reported, never fatal.

` + SubtitleStyle.Render("Examples:") + `
  modweave scan                  List installed mods
  modweave check                 Validate the active mod list
  modweave sort                  Show the sorted load order
  modweave sort --write          Save the sorted order to ModsConfig.xml
  modweave config show           Show the resolved configuration`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/modweave/config.cue)")
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable debug logging and show file paths")
	flags.StringVar(&app.flags.gameDir, "game-dir", "", "RimWorld installation directory")
	flags.StringVar(&app.flags.modsConfig, "mods-config", "", "path to ModsConfig.xml")
	flags.StringVar(&app.flags.gameVersion, "game-version", "", "game version to check against (default: read Version.txt)")
	flags.StringVarP(&app.flags.format, "format", "o", string(FormatText), "output format: text, json, yaml, markdown")
	flags.StringVar(&app.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the command")

	root.AddCommand(newScanCommand(app))
	root.AddCommand(newCheckCommand(app))
	root.AddCommand(newSortCommand(app))
	root.AddCommand(newConfigCommand(app))

	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
