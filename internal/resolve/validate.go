// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/internal/registry"
	"github.com/modweave/modweave/pkg/gameversion"
	"github.com/modweave/modweave/pkg/modmeta"
)

// Validate checks the active list against the registry, ignoring order:
//
//   - NotInstalled for every active id missing from the registry,
//   - MissingDependency for every dependency of an active mod that is not
//     installed, or installed but not active,
//   - IncompatiblePair once per unordered pair of active mods where either
//     side declares the other incompatible,
//   - VersionUnsupported for every active mod not declaring target. Skipped
//     when target is unknown.
//
// The result is sorted and depends only on the inputs.
func Validate(reg *registry.Registry, active []modmeta.PackageID, target gameversion.Token) []issue.Issue {
	var issues []issue.Issue
	activeSet := make(map[modmeta.PackageID]bool, len(active))
	var mods []*registry.InstalledMod
	for _, id := range active {
		if activeSet[id] {
			continue
		}
		activeSet[id] = true
		m, ok := reg.Get(id)
		if !ok {
			issues = append(issues, issue.Issue{
				Kind:     issue.KindNotInstalled,
				Packages: []modmeta.PackageID{id},
				Message:  fmt.Sprintf("%s is active but not installed", id) + suggest(reg, id),
			})
			continue
		}
		mods = append(mods, m)
	}

	pairs := make(map[[2]modmeta.PackageID]bool)
	for _, m := range mods {
		id := m.ID()
		rel := m.Descriptor.RelationsFor(target)

		for _, dep := range rel.Dependencies {
			if activeSet[dep.ID] && reg.Contains(dep.ID) {
				continue
			}
			issues = append(issues, issue.Issue{
				Kind:     issue.KindMissingDependency,
				Packages: []modmeta.PackageID{id, dep.ID},
				Message:  missingDependencyMessage(reg, m, dep),
				Path:     m.Path,
			})
		}

		for _, other := range rel.Incompatible {
			if other == id || !activeSet[other] || !reg.Contains(other) {
				continue
			}
			key := [2]modmeta.PackageID{min(id, other), max(id, other)}
			if pairs[key] {
				continue
			}
			pairs[key] = true
			issues = append(issues, issue.Issue{
				Kind:     issue.KindIncompatiblePair,
				Packages: key[:],
				Message:  fmt.Sprintf("%s and %s cannot be used together", key[0], key[1]),
			})
		}

		if !m.Descriptor.Supports(target) {
			issues = append(issues, issue.Issue{
				Kind:     issue.KindVersionUnsupported,
				Packages: []modmeta.PackageID{id},
				Message: fmt.Sprintf("%s does not support game version %s (supports %s)",
					id, target, joinTokens(m.Descriptor.SupportedVersions)),
				Path: m.Path,
			})
		}
	}

	issue.Sort(issues)
	return issues
}

func missingDependencyMessage(reg *registry.Registry, m *registry.InstalledMod, dep modmeta.Dependency) string {
	name := dep.ID.String()
	if dep.DisplayName != "" {
		name = fmt.Sprintf("%s (%s)", dep.DisplayName, dep.ID)
	}
	if reg.Contains(dep.ID) {
		return fmt.Sprintf("%s requires %s, which is installed but not active", m.ID(), name)
	}
	msg := fmt.Sprintf("%s requires %s, which is not installed", m.ID(), name)
	if dep.WorkshopURL != "" {
		msg += "; get it from " + dep.WorkshopURL
	}
	return msg + suggest(reg, dep.ID)
}

// suggest names the installed id closest to a missing one, if any.
func suggest(reg *registry.Registry, missing modmeta.PackageID) string {
	ids := reg.IDs()
	if len(ids) == 0 {
		return ""
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	matches := fuzzy.Find(missing.String(), names)
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf(" (did you mean %s?)", matches[0].Str)
}

func joinTokens(tokens []gameversion.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
