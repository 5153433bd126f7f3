// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"github.com/modweave/modweave/internal/registry"
	"github.com/modweave/modweave/internal/rules"
	"github.com/modweave/modweave/pkg/gameversion"
	"github.com/modweave/modweave/pkg/modmeta"
)

type modOption func(*registry.InstalledMod)

func before(ids ...modmeta.PackageID) modOption {
	return func(m *registry.InstalledMod) {
		m.Descriptor.Relations.LoadBefore = append(m.Descriptor.Relations.LoadBefore, ids...)
	}
}

func after(ids ...modmeta.PackageID) modOption {
	return func(m *registry.InstalledMod) {
		m.Descriptor.Relations.LoadAfter = append(m.Descriptor.Relations.LoadAfter, ids...)
	}
}

func dependsOn(ids ...modmeta.PackageID) modOption {
	return func(m *registry.InstalledMod) {
		for _, id := range ids {
			m.Descriptor.Relations.Dependencies = append(m.Descriptor.Relations.Dependencies, modmeta.Dependency{ID: id})
		}
	}
}

func incompatible(ids ...modmeta.PackageID) modOption {
	return func(m *registry.InstalledMod) {
		m.Descriptor.Relations.Incompatible = append(m.Descriptor.Relations.Incompatible, ids...)
	}
}

func supports(tokens ...gameversion.Token) modOption {
	return func(m *registry.InstalledMod) {
		m.Descriptor.SupportedVersions = tokens
	}
}

func byVersion(token gameversion.Token, rel modmeta.Relations) modOption {
	return func(m *registry.InstalledMod) {
		if m.Descriptor.ByVersion == nil {
			m.Descriptor.ByVersion = make(map[gameversion.Token]modmeta.Relations)
		}
		m.Descriptor.ByVersion[token] = rel
	}
}

func anchored(a rules.Anchor) modOption {
	return func(m *registry.InstalledMod) { m.Anchor = a }
}

func mod(id modmeta.PackageID, opts ...modOption) *registry.InstalledMod {
	m := &registry.InstalledMod{
		Descriptor: &modmeta.Descriptor{ID: id, RawID: id.String(), Name: id.String()},
		Path:       "/mods/" + id.String(),
		Source:     registry.SourceLocal,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func ids(s ...string) []modmeta.PackageID {
	out := make([]modmeta.PackageID, len(s))
	for i, v := range s {
		out[i] = modmeta.MustPackageID(v)
	}
	return out
}
