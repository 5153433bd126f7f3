// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modweave/modweave/internal/config"
)

// newConfigCommand creates the `modweave config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modweave configuration",
		Long: `Manage modweave configuration.

Configuration is stored in:
  - Linux: ~/.config/modweave/config.cue
  - macOS: ~/Library/Application Support/modweave/config.cue
  - Windows: %APPDATA%\modweave\config.cue

Every key can also be set through a MODWEAVE_<KEY> environment variable,
for example MODWEAVE_GAME_DIR or MODWEAVE_WORKERS.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.fail(cmd, showConfig(cmd.Context(), app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := app.configFilePath()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, created, err := config.CreateDefaultConfig(app.configDir)
			if err != nil {
				return err
			}
			if !created {
				_, _ = fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("Configuration already exists:"), path)
				return nil
			}
			_, _ = fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓ Created"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the resolved configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}
			_, _ = fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func (a *App) configFilePath() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	return config.ConfigFilePath(a.configDir)
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	w := app.stdout
	_, _ = fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	_, _ = fmt.Fprintln(w)

	path, err := app.configFilePath()
	if err == nil && fileExists(path) {
		_, _ = fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), path)
	} else {
		_, _ = fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	_, _ = fmt.Fprintln(w)

	show := func(key, value string) {
		if value == "" {
			value = SubtitleStyle.Render("(not set)")
		} else {
			value = SuccessStyle.Render(value)
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render(key), value)
	}
	showList := func(key string, values []string) {
		if len(values) == 0 {
			_, _ = fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render(key), SubtitleStyle.Render("(none configured)"))
			return
		}
		_, _ = fmt.Fprintf(w, "%s:\n", CmdStyle.Render(key))
		for _, v := range values {
			_, _ = fmt.Fprintf(w, "  - %s\n", SuccessStyle.Render(v))
		}
	}

	show("game_dir", cfg.GameDir)
	show("mods_config_path", cfg.ModsConfigPath)
	show("steam_dir", cfg.SteamDir)
	show("workshop_dir", cfg.WorkshopDir)
	showList("mod_dirs", cfg.ModDirs)
	showList("rule_files", cfg.RuleFiles)
	show("workers", fmt.Sprint(cfg.Workers))
	show("game_version", cfg.GameVersion)
	show("duplicate_policy", cfg.DuplicatePolicy.String())
	show("log_level", cfg.LogLevel.String())
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
