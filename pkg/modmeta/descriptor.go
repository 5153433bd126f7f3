// SPDX-License-Identifier: MPL-2.0

package modmeta

import (
	"maps"
	"slices"

	"github.com/modweave/modweave/pkg/gameversion"
)

type (
	// Dependency is one declared hard dependency.
	Dependency struct {
		// ID is the required mod.
		ID PackageID
		// DisplayName is the name the declaring author gave the dependency (optional).
		DisplayName string
		// WorkshopURL points at the dependency's workshop page (optional, validated).
		WorkshopURL string
	}

	// Relations groups the ordering and compatibility constraints a mod declares
	// about other mods. Every list is free of duplicates.
	Relations struct {
		LoadBefore   []PackageID
		LoadAfter    []PackageID
		Dependencies []Dependency
		Incompatible []PackageID
	}

	// Descriptor is the parsed content of one About.xml. A Descriptor is never
	// mutated after construction; derived variants are built with WithRelations.
	Descriptor struct {
		// ID is the canonical package identifier.
		ID PackageID
		// RawID is the identifier exactly as written in the file.
		RawID string
		// Name is the display name, defaulting to RawID.
		Name        string
		Description string
		Authors     []string
		// SupportedVersions lists the major.minor tokens the mod declares, sorted.
		// Empty means the mod does not restrict versions (base game data).
		SupportedVersions []gameversion.Token
		// Relations holds version-independent relations, force variants included.
		Relations Relations
		// ByVersion holds relations that apply only to one game version.
		ByVersion map[gameversion.Token]Relations
	}
)

// DependencyIDs returns the ids of the declared dependencies in declaration order.
func (r Relations) DependencyIDs() []PackageID {
	ids := make([]PackageID, 0, len(r.Dependencies))
	for _, d := range r.Dependencies {
		ids = append(ids, d.ID)
	}
	return ids
}

// IsEmpty reports whether no relation is declared.
func (r Relations) IsEmpty() bool {
	return len(r.LoadBefore) == 0 && len(r.LoadAfter) == 0 &&
		len(r.Dependencies) == 0 && len(r.Incompatible) == 0
}

// Merge returns the union of r and other. Entries from r come first; duplicates
// are dropped. Neither input is modified.
func (r Relations) Merge(other Relations) Relations {
	out := Relations{
		LoadBefore:   slices.Clone(r.LoadBefore),
		LoadAfter:    slices.Clone(r.LoadAfter),
		Dependencies: slices.Clone(r.Dependencies),
		Incompatible: slices.Clone(r.Incompatible),
	}
	for _, id := range other.LoadBefore {
		out.LoadBefore = appendUnique(out.LoadBefore, id)
	}
	for _, id := range other.LoadAfter {
		out.LoadAfter = appendUnique(out.LoadAfter, id)
	}
	for _, id := range other.Incompatible {
		out.Incompatible = appendUnique(out.Incompatible, id)
	}
	for _, dep := range other.Dependencies {
		out.Dependencies = appendDependency(out.Dependencies, dep)
	}
	return out
}

// Supports reports whether the mod declares support for the given version.
// An unknown target, or a mod that declares no versions at all, always matches.
func (d *Descriptor) Supports(target gameversion.Token) bool {
	if target.IsZero() || len(d.SupportedVersions) == 0 {
		return true
	}
	return slices.Contains(d.SupportedVersions, target)
}

// RelationsFor returns the relations in effect for a target game version: the
// version-independent set plus any version-specific additions.
func (d *Descriptor) RelationsFor(target gameversion.Token) Relations {
	if target.IsZero() {
		return d.Relations
	}
	extra, ok := d.ByVersion[target]
	if !ok {
		return d.Relations
	}
	return d.Relations.Merge(extra)
}

// WithRelations returns a copy of d whose version-independent relations also
// include extra. d itself is left untouched.
func (d *Descriptor) WithRelations(extra Relations) *Descriptor {
	clone := *d
	clone.Authors = slices.Clone(d.Authors)
	clone.SupportedVersions = slices.Clone(d.SupportedVersions)
	clone.ByVersion = maps.Clone(d.ByVersion)
	clone.Relations = d.Relations.Merge(extra)
	return &clone
}

func appendDependency(deps []Dependency, dep Dependency) []Dependency {
	for _, existing := range deps {
		if existing.ID == dep.ID {
			return deps
		}
	}
	return append(deps, dep)
}
