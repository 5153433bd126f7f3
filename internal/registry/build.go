// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/internal/rules"
	"github.com/modweave/modweave/pkg/modmeta"
)

// DefaultWorkers is the loader pool size used when Options.Workers is unset.
const DefaultWorkers = 8

type (
	// Options configures Build. The zero value is usable.
	Options struct {
		// Workers bounds the number of descriptors parsed concurrently.
		Workers int
		// Logger receives parse failures (warn) and duplicate decisions (info).
		Logger *log.Logger
		// Rules are overlaid on every loaded descriptor.
		Rules *rules.DB
		// Precedence decides which duplicate installation is kept. Defaults to
		// PreferLocal.
		Precedence Precedence
		// OnLoad, if set, is called from worker goroutines after each location
		// is loaded. It must be safe for concurrent use.
		OnLoad func(loc Location, elapsed time.Duration, err error)
	}

	loadResult struct {
		desc *modmeta.Descriptor
		err  error
	}
)

// Build loads every location and assembles a Registry. A location that fails
// to load contributes a ParseFailure issue and nothing else; a package id found
// more than once contributes one DuplicatePackage issue per discarded copy.
// The returned registry and issues depend only on the locations and their
// contents, never on worker scheduling. The error is non-nil only when ctx is
// cancelled.
func Build(ctx context.Context, locations []Location, opts Options) (*Registry, []issue.Issue, error) {
	logger := orDiscard(opts.Logger)
	precedence := opts.Precedence
	if precedence == nil {
		precedence = PreferLocal
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	// Each worker owns one slot, so results merge in location order.
	results := make([]loadResult, len(locations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, loc := range locations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			desc, err := modmeta.Load(loc.Path)
			if opts.OnLoad != nil {
				opts.OnLoad(loc, time.Since(start), err)
			}
			results[i] = loadResult{desc: desc, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var issues []issue.Issue
	candidates := make(map[modmeta.PackageID][]*InstalledMod)
	for i, res := range results {
		loc := locations[i]
		if res.err != nil {
			logger.Warn("skipping unreadable mod", "path", loc.Path, "error", res.err)
			issues = append(issues, issue.Issue{
				Kind:    issue.KindParseFailure,
				Message: res.err.Error(),
				Path:    loc.Path,
			})
			continue
		}
		desc := opts.Rules.Apply(res.desc)
		anchor := rules.AnchorNone
		if opts.Rules != nil {
			anchor = opts.Rules.Anchor(desc.ID)
		}
		if anchor == rules.AnchorNone && loc.Source == SourceOfficial {
			anchor = rules.AnchorStart
		}
		candidates[desc.ID] = append(candidates[desc.ID], &InstalledMod{
			Descriptor: desc,
			Path:       loc.Path,
			Source:     loc.Source,
			Anchor:     anchor,
		})
	}

	kept := make([]*InstalledMod, 0, len(candidates))
	for id, mods := range candidates {
		slices.SortFunc(mods, precedence)
		winner := mods[0]
		kept = append(kept, winner)
		for _, loser := range mods[1:] {
			logger.Info("duplicate mod ignored", "package", id, "kept", winner.Path, "ignored", loser.Path)
			issues = append(issues, issue.Issue{
				Kind:     issue.KindDuplicatePackage,
				Packages: []modmeta.PackageID{id},
				Message: fmt.Sprintf("%s is installed more than once; using %s copy at %s, ignoring %s copy",
					id, winner.Source, winner.Path, loser.Source),
				Path: loser.Path,
			})
		}
	}

	issue.Sort(issues)
	return New(kept...), issues, nil
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard)
	}
	return logger
}
