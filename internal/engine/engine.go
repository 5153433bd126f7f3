// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/modweave/modweave/internal/config"
	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/internal/metrics"
	"github.com/modweave/modweave/internal/registry"
	"github.com/modweave/modweave/internal/resolve"
	"github.com/modweave/modweave/internal/rules"
	"github.com/modweave/modweave/pkg/gameversion"
	"github.com/modweave/modweave/pkg/modmeta"
	"github.com/modweave/modweave/pkg/modsconfig"
)

const (
	// DataDirName holds the base game and official expansions.
	DataDirName = "Data"
	// ModsDirName holds manually installed mods.
	ModsDirName = "Mods"
)

type (
	// Options configures an Engine. The zero value is usable.
	Options struct {
		Logger  *log.Logger
		Metrics *metrics.Recorder
	}

	// Engine runs scans and resolutions for one configuration.
	Engine struct {
		cfg     *config.Config
		logger  *log.Logger
		metrics *metrics.Recorder
	}

	// Snapshot is the result of one scan.
	Snapshot struct {
		Registry *registry.Registry
		// Issues holds ParseFailure and DuplicatePackage diagnostics.
		Issues []issue.Issue
		Rules  *rules.DB
		// GameVersion is the detected or configured game version; zero when unknown.
		GameVersion gameversion.Version
		// Locations is the number of candidate mod folders inspected.
		Locations int
	}

	// Report is the result of resolving the active list against a snapshot.
	Report struct {
		Snapshot       *Snapshot
		ModsConfig     *modsconfig.Config
		ModsConfigPath string
		Result         resolve.Result
		// Issues merges scan and resolution diagnostics, sorted.
		Issues []issue.Issue
	}
)

// New creates an Engine for cfg.
func New(cfg *config.Config, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{cfg: cfg, logger: logger, metrics: opts.Metrics}
}

// Target returns the targeted game version's major.minor token.
func (s *Snapshot) Target() gameversion.Token { return s.GameVersion.Token() }

// Roots lists the scan roots in precedence-neutral order: official data,
// the game's Mods folder, extra local folders, then the workshop folder.
func (e *Engine) Roots() []registry.Root {
	roots := []registry.Root{
		{Path: filepath.Join(e.cfg.GameDir, DataDirName), Source: registry.SourceOfficial},
		{Path: filepath.Join(e.cfg.GameDir, ModsDirName), Source: registry.SourceLocal},
	}
	for _, dir := range e.cfg.ModDirs {
		roots = append(roots, registry.Root{Path: dir, Source: registry.SourceLocal})
	}
	if e.cfg.WorkshopDir != "" {
		roots = append(roots, registry.Root{Path: e.cfg.WorkshopDir, Source: registry.SourceSubscribed})
	}
	return roots
}

// GameVersion returns the configured game version, or the one read from the
// game's Version.txt. An unreadable Version.txt yields the zero Version.
func (e *Engine) GameVersion() (gameversion.Version, error) {
	if e.cfg.GameVersion != "" {
		v, err := gameversion.Parse(e.cfg.GameVersion)
		if err != nil {
			return gameversion.Version{}, issue.NewErrorContext().
				WithOperation("parse game version").
				WithResource(e.cfg.GameVersion).
				WithSuggestion("Use a version such as 1.5 or 1.5.4104").
				Wrap(err).
				BuildError()
		}
		return v, nil
	}

	path := filepath.Join(e.cfg.GameDir, gameversion.VersionFileName)
	v, err := gameversion.ReadFile(path)
	if err != nil {
		e.logger.Warn("cannot detect game version, version checks disabled", "path", path, "error", err)
		return gameversion.Version{}, nil
	}
	return v, nil
}

// Scan builds a fresh registry snapshot.
func (e *Engine) Scan(ctx context.Context) (*Snapshot, error) {
	if err := e.checkGameDir(); err != nil {
		return nil, err
	}

	db, err := rules.Load(e.cfg.RuleFiles...)
	if err != nil {
		return nil, err
	}
	version, err := e.GameVersion()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	locations := registry.Discover(e.Roots(), e.logger)
	reg, issues, err := registry.Build(ctx, locations, registry.Options{
		Workers:    e.cfg.Workers,
		Logger:     e.logger,
		Rules:      db,
		Precedence: e.precedence(),
		OnLoad:     e.metrics.ObserveLoad,
	})
	if err != nil {
		return nil, fmt.Errorf("scan canceled: %w", err)
	}

	e.metrics.ObserveRegistry(reg)
	e.metrics.ObserveIssues(issues)
	e.logger.Info("scan complete",
		"locations", len(locations), "mods", reg.Len(), "issues", len(issues),
		"rules", db.Len(), "elapsed", time.Since(start).Round(time.Millisecond))

	return &Snapshot{
		Registry:    reg,
		Issues:      issues,
		Rules:       db,
		GameVersion: version,
		Locations:   len(locations),
	}, nil
}

// ReadActiveList reads ModsConfig.xml from the configured location.
func (e *Engine) ReadActiveList() (*modsconfig.Config, error) {
	path := e.cfg.ModsConfigPath
	if path == "" {
		return nil, issue.NewErrorContext().
			WithOperation("locate active mod list").
			WithSuggestion("Set mods_config_path in the configuration or pass --mods-config").
			Wrap(errors.New("no ModsConfig.xml path configured")).
			BuildError()
	}

	mc, err := modsconfig.Read(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read active mod list").
			WithResource(path).
			WithSuggestion("Start the game once so it creates " + modsconfig.FileName).
			WithSuggestion("Pass --mods-config to point at the right file").
			Wrap(err).
			BuildError()
	}
	for _, raw := range mc.Repeated {
		e.logger.Debug("ignoring repeated active entry", "entry", raw)
	}
	return mc, nil
}

// Resolve scans, reads the active list and resolves it.
func (e *Engine) Resolve(ctx context.Context) (*Report, error) {
	snap, err := e.Scan(ctx)
	if err != nil {
		return nil, err
	}
	mc, err := e.ReadActiveList()
	if err != nil {
		return nil, err
	}
	return e.ResolveWith(snap, mc), nil
}

// ResolveWith resolves an already read active list against snap.
func (e *Engine) ResolveWith(snap *Snapshot, mc *modsconfig.Config) *Report {
	start := time.Now()
	res := resolve.Resolve(snap.Registry, mc.IDs(), resolve.Options{
		Target: snap.Target(),
		Logger: e.logger,
	})
	elapsed := time.Since(start)
	e.metrics.ObserveResolution(&res, elapsed)

	issues := make([]issue.Issue, 0, len(snap.Issues)+len(res.Issues))
	issues = append(issues, snap.Issues...)
	issues = append(issues, res.Issues...)
	issue.Sort(issues)

	e.logger.Info("resolution complete",
		"active", len(res.Order), "changed", res.Changed, "cycles", len(res.Cycles),
		"nodes", res.Nodes, "edges", res.Edges, "elapsed", elapsed.Round(time.Microsecond))

	return &Report{
		Snapshot:       snap,
		ModsConfig:     mc,
		ModsConfigPath: e.cfg.ModsConfigPath,
		Result:         res,
		Issues:         issues,
	}
}

// Write persists the resolved order of r to its ModsConfig.xml, keeping each
// entry's original spelling.
func (e *Engine) Write(r *Report, backup bool) error {
	byID := make(map[modmeta.PackageID]modsconfig.Entry, len(r.ModsConfig.Active))
	for _, entry := range r.ModsConfig.Active {
		byID[entry.ID] = entry
	}
	entries := make([]modsconfig.Entry, 0, len(r.Result.Order))
	for _, id := range r.Result.Order {
		entry, ok := byID[id]
		if !ok {
			entry = modsconfig.Entry{ID: id}
		}
		entries = append(entries, entry)
	}

	updated := r.ModsConfig.WithActive(entries)
	if err := modsconfig.Write(r.ModsConfigPath, updated, modsconfig.WriteOptions{Backup: backup}); err != nil {
		ec := issue.NewErrorContext().
			WithOperation("write active mod list").
			WithResource(r.ModsConfigPath)
		if errors.Is(err, modsconfig.ErrEmptyActiveList) {
			ec = ec.WithSuggestion("Enable at least one mod in the game before sorting")
		} else {
			ec = ec.WithSuggestion("Close the game before writing the load order")
		}
		return ec.Wrap(err).BuildError()
	}
	e.logger.Info("wrote load order", "path", r.ModsConfigPath, "mods", len(entries), "backup", backup)
	return nil
}

func (e *Engine) checkGameDir() error {
	if e.cfg.GameDir == "" {
		return issue.NewErrorContext().
			WithOperation("scan game directory").
			WithSuggestion("Set game_dir in the configuration or pass --game-dir").
			Wrap(errors.New("no game directory configured")).
			BuildError()
	}
	info, err := os.Stat(e.cfg.GameDir)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", e.cfg.GameDir)
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("scan game directory").
			WithResource(e.cfg.GameDir).
			WithSuggestion("Set game_dir in the configuration or pass --game-dir").
			WithSuggestion("Run 'modweave config show' to see the resolved paths").
			Wrap(err).
			BuildError()
	}
	return nil
}

func (e *Engine) precedence() registry.Precedence {
	if e.cfg.DuplicatePolicy == config.DuplicatePreferSubscribed {
		return registry.PreferSubscribed
	}
	return registry.PreferLocal
}

// ActiveIDs returns the ids of mods that are both active and installed, in
// active-list order.
func (r *Report) ActiveIDs() []modmeta.PackageID {
	return slices.DeleteFunc(slices.Clone(r.Result.Order), func(id modmeta.PackageID) bool {
		return !r.Snapshot.Registry.Contains(id)
	})
}
