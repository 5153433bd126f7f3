// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/internal/registry"
	"github.com/modweave/modweave/pkg/gameversion"
	"github.com/modweave/modweave/pkg/modmeta"
)

type (
	// Options configures Resolve.
	Options struct {
		// Target is the game version being played. The zero value disables
		// version checks and version-specific relations.
		Target gameversion.Token
		// Logger receives cycle warnings and debug details. Optional.
		Logger *log.Logger
	}

	// Result is the outcome of one resolution.
	Result struct {
		// Order is the complete active list after resolution. Ids unknown to the
		// registry stay in the slots they had.
		Order []modmeta.PackageID
		// Changed reports whether Order differs from the input.
		Changed bool
		// Cycles lists the members of each cycle that prevented a full sort.
		Cycles [][]modmeta.PackageID
		// Issues holds every diagnostic, sorted.
		Issues []issue.Issue
		// Nodes and Edges describe the ordering graph.
		Nodes int
		Edges int
	}
)

// Resolve orders the active list and validates it. It never fails: cycles
// and validation problems are returned as issues alongside the best order
// available. Repeated active ids are reduced to their first occurrence.
func Resolve(reg *registry.Registry, active []modmeta.PackageID, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	list := make([]modmeta.PackageID, 0, len(active))
	seen := make(map[modmeta.PackageID]bool, len(active))
	for _, id := range active {
		if seen[id] {
			logger.Debug("dropping repeated active entry", "package", id)
			continue
		}
		seen[id] = true
		list = append(list, id)
	}

	g := BuildGraph(reg, list, opts.Target)
	res := Result{
		Issues: Validate(reg, list, opts.Target),
		Nodes:  g.Len(),
		Edges:  g.EdgeCount(),
	}

	sorted, report := g.Arrange()
	if report != nil {
		res.Cycles = report.Cycles
		for _, members := range report.Cycles {
			logger.Warn("load order cycle", "packages", members)
			res.Issues = append(res.Issues, cycleIssue(members))
		}
		issue.Sort(res.Issues)
	}

	res.Order = fillSlots(reg, list, sorted)
	res.Changed = !slices.Equal(res.Order, active)
	return res
}

// fillSlots writes sorted into the positions of list held by installed mods
// and keeps every other entry where it was.
func fillSlots(reg *registry.Registry, list, sorted []modmeta.PackageID) []modmeta.PackageID {
	out := slices.Clone(list)
	next := 0
	for i, id := range out {
		if reg.Contains(id) {
			out[i] = sorted[next]
			next++
		}
	}
	return out
}

func cycleIssue(members []modmeta.PackageID) issue.Issue {
	sorted := slices.Clone(members)
	modmeta.SortPackageIDs(sorted)
	names := make([]string, len(members))
	for i, id := range members {
		names[i] = id.String()
	}
	return issue.Issue{
		Kind:     issue.KindCycleDetected,
		Packages: sorted,
		Message: fmt.Sprintf("load order rules of %s contradict each other; keeping their current order",
			strings.Join(names, ", ")),
	}
}
