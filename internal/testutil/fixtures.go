// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// ModFixture describes a mod descriptor to write. When Raw is set it is written
// verbatim and every other field is ignored.
type ModFixture struct {
	PackageID         string
	Name              string
	SupportedVersions []string
	LoadBefore        []string
	LoadAfter         []string
	Dependencies      []string
	Incompatible      []string
	Raw               string
}

// AboutXML renders the fixture as an About.xml document.
func AboutXML(m ModFixture) string {
	if m.Raw != "" {
		return m.Raw
	}

	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<ModMetaData>\n")
	fmt.Fprintf(&sb, "  <packageId>%s</packageId>\n", m.PackageID)
	if m.Name != "" {
		fmt.Fprintf(&sb, "  <name>%s</name>\n", m.Name)
	}
	writeList(&sb, "supportedVersions", m.SupportedVersions)
	writeList(&sb, "loadBefore", m.LoadBefore)
	writeList(&sb, "loadAfter", m.LoadAfter)
	if len(m.Dependencies) > 0 {
		sb.WriteString("  <modDependencies>\n")
		for _, dep := range m.Dependencies {
			fmt.Fprintf(&sb, "    <li>\n      <packageId>%s</packageId>\n      <displayName>%s</displayName>\n    </li>\n", dep, dep)
		}
		sb.WriteString("  </modDependencies>\n")
	}
	writeList(&sb, "incompatibleWith", m.Incompatible)
	sb.WriteString("</ModMetaData>\n")
	return sb.String()
}

func writeList(sb *strings.Builder, element string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "  <%s>\n", element)
	for _, item := range items {
		fmt.Fprintf(sb, "    <li>%s</li>\n", item)
	}
	fmt.Fprintf(sb, "  </%s>\n", element)
}

// WriteMod writes root/folder/About/About.xml and returns the mod folder.
func WriteMod(t testing.TB, root, folder string, m ModFixture) string {
	t.Helper()
	dir := filepath.Join(root, folder)
	MustWriteFile(t, filepath.Join(dir, "About", "About.xml"), AboutXML(m))
	return dir
}

// ModsConfigXML renders a ModsConfig.xml document.
func ModsConfigXML(version string, active, expansions []string) string {
	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<ModsConfigData>\n")
	fmt.Fprintf(&sb, "  <version>%s</version>\n", version)
	sb.WriteString("  <activeMods>\n")
	for _, id := range active {
		fmt.Fprintf(&sb, "    <li>%s</li>\n", id)
	}
	sb.WriteString("  </activeMods>\n  <knownExpansions>\n")
	for _, id := range expansions {
		fmt.Fprintf(&sb, "    <li>%s</li>\n", id)
	}
	sb.WriteString("  </knownExpansions>\n</ModsConfigData>\n")
	return sb.String()
}

// WriteModsConfig writes a ModsConfig.xml to path.
func WriteModsConfig(t testing.TB, path, version string, active, expansions []string) {
	t.Helper()
	MustWriteFile(t, path, ModsConfigXML(version, active, expansions))
}

// WriteGame creates a minimal game installation (Version.txt, Data/Core and an
// empty Mods folder) under dir and returns dir.
func WriteGame(t testing.TB, dir, version string) string {
	t.Helper()
	MustWriteFile(t, filepath.Join(dir, "Version.txt"), version+"\n")
	WriteMod(t, filepath.Join(dir, "Data"), "Core", ModFixture{
		PackageID: "Ludeon.RimWorld",
		Name:      "Core",
	})
	MustMkdirAll(t, filepath.Join(dir, "Mods"), 0o755)
	return dir
}
