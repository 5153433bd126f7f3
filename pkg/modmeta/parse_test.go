// SPDX-License-Identifier: MPL-2.0

package modmeta

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/modweave/modweave/internal/testutil"
	"github.com/modweave/modweave/pkg/gameversion"
)

const fullAbout = `<?xml version="1.0" encoding="utf-8"?>
<ModMetaData>
  <name>Combat Extended</name>
  <author>N7Huntsman, Ilyaki</author>
  <authors><li>NIA</li><li>Ilyaki</li></authors>
  <packageId>CETeam.CombatExtended</packageId>
  <description>Overhaul &amp; more&nbsp;stuff</description>
  <supportedVersions>
    <li>1.4</li>
    <li>1.5</li>
    <li>1.5</li>
  </supportedVersions>
  <modDependencies>
    <li>
      <packageId>brrainz.harmony</packageId>
      <displayName>Harmony</displayName>
      <steamWorkshopUrl>steam://url/CommunityFilePage/2009463077</steamWorkshopUrl>
    </li>
    <li>
      <packageId>Brrainz.Harmony</packageId>
      <displayName>Harmony again</displayName>
    </li>
  </modDependencies>
  <modDependenciesByVersion>
    <v1.5>
      <li><packageId>ceteam.ce.guns</packageId><displayName>CE Guns</displayName><steamWorkshopUrl>https://steamcommunity.com/x</steamWorkshopUrl></li>
    </v1.5>
  </modDependenciesByVersion>
  <loadBefore><li>Ludeon.RimWorld.Ideology</li></loadBefore>
  <forceLoadBefore><li>some.mod</li><li>ludeon.rimworld.ideology</li></forceLoadBefore>
  <loadAfter>
    <li>brrainz.harmony</li>
    <li>BRRAINZ.HARMONY</li>
    <li>  </li>
  </loadAfter>
  <forceLoadAfter><li>ludeon.rimworld</li></forceLoadAfter>
  <loadAfterByVersion>
    <v1.4><li>old.mod</li></v1.4>
    <vNext><li>ignored.mod</li></vNext>
  </loadAfterByVersion>
  <incompatibleWith><li>Other.CombatMod</li></incompatibleWith>
  <incompatibleWithByVersion><v1.5><li>legacy.mod</li></v1.5></incompatibleWithByVersion>
  <somethingUnknown><deep>value</deep></somethingUnknown>
</ModMetaData>`

func TestParse_FullDescriptor(t *testing.T) {
	t.Parallel()

	desc, err := Parse([]byte(fullAbout))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if desc.ID != "ceteam.combatextended" {
		t.Errorf("ID = %q", desc.ID)
	}
	if desc.RawID != "CETeam.CombatExtended" {
		t.Errorf("RawID = %q", desc.RawID)
	}
	if desc.Name != "Combat Extended" {
		t.Errorf("Name = %q", desc.Name)
	}
	if desc.Description != "Overhaul & more\u00a0stuff" {
		t.Errorf("Description = %q", desc.Description)
	}
	if diff := cmp.Diff([]string{"Ilyaki", "N7Huntsman", "NIA"}, desc.Authors); diff != "" {
		t.Errorf("Authors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]gameversion.Token{"1.4", "1.5"}, desc.SupportedVersions); diff != "" {
		t.Errorf("SupportedVersions mismatch (-want +got):\n%s", diff)
	}

	wantBase := Relations{
		LoadBefore: []PackageID{"ludeon.rimworld.ideology", "some.mod"},
		LoadAfter:  []PackageID{"brrainz.harmony", "ludeon.rimworld"},
		Dependencies: []Dependency{
			{ID: "brrainz.harmony", DisplayName: "Harmony"},
		},
		Incompatible: []PackageID{"other.combatmod"},
	}
	if diff := cmp.Diff(wantBase, desc.Relations); diff != "" {
		t.Errorf("Relations mismatch (-want +got):\n%s", diff)
	}

	want15 := Relations{
		LoadBefore: wantBase.LoadBefore,
		LoadAfter:  wantBase.LoadAfter,
		Dependencies: []Dependency{
			{ID: "brrainz.harmony", DisplayName: "Harmony"},
			{ID: "ceteam.ce.guns", DisplayName: "CE Guns", WorkshopURL: "https://steamcommunity.com/x"},
		},
		Incompatible: []PackageID{"other.combatmod", "legacy.mod"},
	}
	if diff := cmp.Diff(want15, desc.RelationsFor("1.5")); diff != "" {
		t.Errorf("RelationsFor(1.5) mismatch (-want +got):\n%s", diff)
	}

	got14 := desc.RelationsFor("1.4")
	if diff := cmp.Diff([]PackageID{"brrainz.harmony", "ludeon.rimworld", "old.mod"}, got14.LoadAfter); diff != "" {
		t.Errorf("RelationsFor(1.4).LoadAfter mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantBase, desc.RelationsFor("")); diff != "" {
		t.Errorf("RelationsFor(unknown) mismatch (-want +got):\n%s", diff)
	}
	if len(desc.ByVersion) != 2 {
		t.Errorf("ByVersion has %d entries, want 2 (invalid version elements ignored)", len(desc.ByVersion))
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	desc, err := Parse([]byte(`<ModMetaData><packageId>Ludeon.RimWorld</packageId></ModMetaData>`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if desc.Name != "Ludeon.RimWorld" {
		t.Errorf("Name should default to the raw package id, got %q", desc.Name)
	}
	if len(desc.SupportedVersions) != 0 || !desc.Relations.IsEmpty() || desc.ByVersion != nil {
		t.Errorf("expected empty optional fields, got %+v", desc)
	}
	if !desc.Supports("1.5") {
		t.Error("a descriptor without supportedVersions must support every version")
	}
}

func TestParse_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"missing package id", `<ModMetaData><name>x</name></ModMetaData>`, ErrMissingPackageID},
		{"blank package id", `<ModMetaData><packageId>  </packageId></ModMetaData>`, ErrMissingPackageID},
		{"unclosed element", `<ModMetaData><packageId>a.b</packageId>`, nil},
		{"wrong root", `<Defs><packageId>a.b</packageId></Defs>`, nil},
		{"not xml", `{"packageId": "a.b"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() returned nil error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_ByteOrderMarkAndCharset(t *testing.T) {
	t.Parallel()

	bom := "\xef\xbb\xbf<?xml version=\"1.0\" encoding=\"utf-8\"?><ModMetaData><packageId>a.b</packageId></ModMetaData>"
	if _, err := Parse([]byte(bom)); err != nil {
		t.Errorf("Parse() with BOM error: %v", err)
	}

	latin1 := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><ModMetaData><packageId>a.b</packageId><name>Caf\xe9</name></ModMetaData>"
	desc, err := Parse([]byte(latin1))
	if err != nil {
		t.Fatalf("Parse() latin-1 error: %v", err)
	}
	if desc.Name != "Café" {
		t.Errorf("Name = %q, want Café", desc.Name)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := testutil.WriteMod(t, root, "harmony", testutil.ModFixture{
		PackageID: "Brrainz.Harmony",
		Name:      "Harmony",
	})

	desc, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if desc.ID != "brrainz.harmony" {
		t.Errorf("ID = %q", desc.ID)
	}
}

func TestLoad_CaseInsensitiveLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "mod", "about", "about.XML"),
		`<ModMetaData><packageId>lower.case</packageId></ModMetaData>`)

	desc, err := Load(filepath.Join(root, "mod"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if desc.ID != "lower.case" {
		t.Errorf("ID = %q", desc.ID)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(root, "empty"), 0o755)
	testutil.WriteMod(t, root, "broken", testutil.ModFixture{Raw: "<ModMetaData><packageId>x"})

	_, err := Load(filepath.Join(root, "empty"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Load(empty) error = %T %v, want *ParseError", err, err)
	}
	if !errors.Is(err, ErrNoDescriptor) && !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(empty) error = %v, want missing descriptor", err)
	}

	_, err = Load(filepath.Join(root, "broken"))
	if !errors.As(err, &pe) {
		t.Fatalf("Load(broken) error = %T %v, want *ParseError", err, err)
	}
	if filepath.Base(pe.Path) != "About.xml" {
		t.Errorf("ParseError.Path = %q, want the descriptor file", pe.Path)
	}
}

func TestDescriptor_WithRelationsDoesNotMutate(t *testing.T) {
	t.Parallel()

	desc, err := Parse([]byte(`<ModMetaData><packageId>a.b</packageId><loadAfter><li>c.d</li></loadAfter></ModMetaData>`))
	if err != nil {
		t.Fatal(err)
	}
	merged := desc.WithRelations(Relations{LoadAfter: []PackageID{"e.f", "c.d"}, Incompatible: []PackageID{"x.y"}})

	if diff := cmp.Diff([]PackageID{"c.d", "e.f"}, merged.Relations.LoadAfter); diff != "" {
		t.Errorf("merged LoadAfter mismatch (-want +got):\n%s", diff)
	}
	if len(desc.Relations.LoadAfter) != 1 || len(desc.Relations.Incompatible) != 0 {
		t.Errorf("original descriptor was mutated: %+v", desc.Relations)
	}
}
