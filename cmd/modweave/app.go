// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/modweave/modweave/internal/config"
	"github.com/modweave/modweave/internal/engine"
	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/internal/metrics"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and reaches configuration and the engine through it.
	App struct {
		Config    ConfigProvider
		configDir string
		stdout    io.Writer
		stderr    io.Writer
		terminal  bool
		flags     globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// ConfigDir overrides the platform configuration directory.
		ConfigDir string
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	globalFlags struct {
		configPath  string
		verbose     bool
		gameDir     string
		modsConfig  string
		gameVersion string
		format      string
		metricsFile string
	}

	// session holds what one command invocation needs.
	session struct {
		cfg     *config.Config
		format  OutputFormat
		logger  *log.Logger
		metrics *metrics.Recorder
		engine  *engine.Engine
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	terminal := false
	if f, ok := deps.Stdout.(*os.File); ok {
		terminal = term.IsTerminal(int(f.Fd()))
	}

	return &App{
		Config:    deps.Config,
		configDir: deps.ConfigDir,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		terminal:  terminal,
		flags:     globalFlags{format: string(FormatText)},
	}, nil
}

// loadConfig loads configuration and applies command-line overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.flags.configPath,
		ConfigDirPath:  a.configDir,
	})
	if err != nil {
		return nil, err
	}
	if a.flags.gameDir != "" {
		cfg.GameDir = a.flags.gameDir
	}
	if a.flags.modsConfig != "" {
		cfg.ModsConfigPath = a.flags.modsConfig
	}
	if a.flags.gameVersion != "" {
		cfg.GameVersion = a.flags.gameVersion
	}
	return cfg, nil
}

// newSession validates the global flags, loads configuration and builds the
// engine for one command.
func (a *App) newSession(ctx context.Context) (*session, error) {
	format := OutputFormat(a.flags.format)
	if ok, errs := format.IsValid(); !ok {
		return nil, issue.NewErrorContext().
			WithOperation("select output format").
			WithResource(a.flags.format).
			WithSuggestion("Use one of: text, json, yaml, markdown").
			Wrap(errs[0]).
			BuildError()
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel.Level()
	if a.flags.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})

	var rec *metrics.Recorder
	if a.flags.metricsFile != "" {
		rec = metrics.New()
	}

	return &session{
		cfg:     cfg,
		format:  format,
		logger:  logger,
		metrics: rec,
		engine:  engine.New(cfg, engine.Options{Logger: logger, Metrics: rec}),
	}, nil
}

// finish exports metrics when --metrics-file is set.
func (a *App) finish(s *session) error {
	if a.flags.metricsFile == "" {
		return nil
	}
	if err := s.metrics.WriteTextfile(a.flags.metricsFile); err != nil {
		return err
	}
	s.logger.Debug("wrote metrics", "path", a.flags.metricsFile)
	return nil
}

// fail prints actionable errors with their suggestions and turns them into a
// plain exit status; other errors are returned unchanged.
func (a *App) fail(cmd *cobra.Command, err error) error {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return err
	}
	_, _ = fmt.Fprintln(a.stderr, ErrorStyle.Render("error: ")+ae.Format(a.flags.verbose))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: 1, Err: err}
}

// markdownStyle picks the glamour style for the current output.
func (a *App) markdownStyle() string {
	if a.terminal {
		return "dark"
	}
	return "notty"
}
