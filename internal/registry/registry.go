// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"slices"

	"github.com/modweave/modweave/internal/rules"
	"github.com/modweave/modweave/pkg/modmeta"
)

type (
	// InstalledMod is a descriptor bound to where it was found. It is created by
	// a scan and never modified afterwards.
	InstalledMod struct {
		Descriptor *modmeta.Descriptor
		Path       string
		Source     Source
		// Anchor pins the mod to the start or end of the load order.
		Anchor rules.Anchor
	}

	// Registry is an immutable snapshot of installed mods keyed by package id.
	Registry struct {
		mods map[modmeta.PackageID]*InstalledMod
		ids  []modmeta.PackageID
	}
)

// ID returns the package id of the mod.
func (m *InstalledMod) ID() modmeta.PackageID { return m.Descriptor.ID }

// New builds a Registry from already resolved mods. When two mods share an id
// the first one is kept; use Build to apply a Precedence policy instead.
func New(mods ...*InstalledMod) *Registry {
	r := &Registry{mods: make(map[modmeta.PackageID]*InstalledMod, len(mods))}
	for _, m := range mods {
		if _, dup := r.mods[m.ID()]; dup {
			continue
		}
		r.mods[m.ID()] = m
		r.ids = append(r.ids, m.ID())
	}
	modmeta.SortPackageIDs(r.ids)
	return r
}

// Get returns the mod installed under id.
func (r *Registry) Get(id modmeta.PackageID) (*InstalledMod, bool) {
	m, ok := r.mods[id]
	return m, ok
}

// Contains reports whether id is installed.
func (r *Registry) Contains(id modmeta.PackageID) bool {
	_, ok := r.mods[id]
	return ok
}

// Len returns the number of installed mods.
func (r *Registry) Len() int { return len(r.ids) }

// IDs returns all package ids in ascending order.
func (r *Registry) IDs() []modmeta.PackageID { return slices.Clone(r.ids) }

// All returns all mods ordered by package id.
func (r *Registry) All() []*InstalledMod {
	out := make([]*InstalledMod, len(r.ids))
	for i, id := range r.ids {
		out[i] = r.mods[id]
	}
	return out
}
