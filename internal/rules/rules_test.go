// SPDX-License-Identifier: MPL-2.0

package rules

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/internal/testutil"
	"github.com/modweave/modweave/pkg/modmeta"
)

func id(s string) modmeta.PackageID { return modmeta.MustPackageID(s) }

func TestParseRelation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Relation
		wantErr bool
	}{
		{raw: "before", want: RelationBefore},
		{raw: "After", want: RelationAfter},
		{raw: " DEPENDENCY ", want: RelationDependency},
		{raw: "incompatible", want: RelationIncompatible},
		{raw: "Incompatibility", want: RelationIncompatible},
		{raw: "sideways", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, err := ParseRelation(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRelation) {
					t.Fatalf("ParseRelation(%q) error = %v, want ErrInvalidRelation", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRelation(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseRelation(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	db, err := Parse([]byte(`
["Brrainz.Harmony"]
start_anchor = true

["late.mod"]
end_anchor = true

["some.mod".rules]
"Other.Mod" = "after"
"first.mod" = "before"
"lib.mod" = "dependency"
"bad.mod" = "incompatibility"
"some.mod" = "before"
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if db.Len() != 3 {
		t.Errorf("Len() = %d, want 3", db.Len())
	}

	if got := db.Anchor(id("brrainz.harmony")); got != AnchorStart {
		t.Errorf("Anchor(harmony) = %v, want start", got)
	}
	if got := db.Anchor(id("late.mod")); got != AnchorEnd {
		t.Errorf("Anchor(late.mod) = %v, want end", got)
	}
	if got := db.Anchor(id("unknown.mod")); got != AnchorNone {
		t.Errorf("Anchor(unknown.mod) = %v, want none", got)
	}

	want := modmeta.Relations{
		LoadBefore:   []modmeta.PackageID{id("first.mod")},
		LoadAfter:    []modmeta.PackageID{id("other.mod")},
		Dependencies: []modmeta.Dependency{{ID: id("lib.mod")}},
		Incompatible: []modmeta.PackageID{id("bad.mod")},
	}
	if diff := cmp.Diff(want, db.Relations(id("some.mod"))); diff != "" {
		t.Errorf("Relations() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		is   error
	}{
		{name: "syntax", doc: "[\"a.mod\"\nstart_anchor = true"},
		{name: "unknown field", doc: "[\"a.mod\"]\nmiddle_anchor = true"},
		{name: "bad relation", doc: "[\"a.mod\".rules]\n\"b.mod\" = \"near\"", is: ErrInvalidRelation},
		{name: "blank package", doc: "[\" \"]\nstart_anchor = true", is: modmeta.ErrInvalidPackageID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Parse() expected an error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Parse() error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestLoad_LaterFilesWin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "community.toml")
	second := filepath.Join(dir, "mine.toml")
	testutil.MustWriteFile(t, first, `
["a.mod"]
start_anchor = true

["a.mod".rules]
"b.mod" = "before"
"c.mod" = "after"
`)
	testutil.MustWriteFile(t, second, `
["a.mod".rules]
"b.mod" = "after"
`)

	db, err := Load(first, second)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]string{first, second}, db.Files()); diff != "" {
		t.Errorf("Files() mismatch (-want +got):\n%s", diff)
	}
	// The second file redefines the table without start_anchor.
	if got := db.Anchor(id("a.mod")); got != AnchorNone {
		t.Errorf("Anchor() = %v, want none", got)
	}
	rel := db.Relations(id("a.mod"))
	if diff := cmp.Diff([]modmeta.PackageID{id("b.mod"), id("c.mod")}, rel.LoadAfter); diff != "" {
		t.Errorf("LoadAfter mismatch (-want +got):\n%s", diff)
	}
	if len(rel.LoadBefore) != 0 {
		t.Errorf("LoadBefore = %v, want empty", rel.LoadBefore)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	testutil.MustWriteFile(t, bad, "[\"a.mod\".rules]\n\"b.mod\" = \"near\"\n")

	_, err := Load(bad)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load() error = %T, want *issue.ActionableError", err)
	}
	if ae.Resource != bad || len(ae.Suggestions) == 0 {
		t.Errorf("unexpected actionable error: %+v", ae)
	}

	_, err = Load(filepath.Join(dir, "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "read rule file") {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	db, err := Parse([]byte("[\"a.mod\".rules]\n\"b.mod\" = \"after\"\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	d := &modmeta.Descriptor{ID: id("a.mod"), Relations: modmeta.Relations{LoadAfter: []modmeta.PackageID{id("z.mod")}}}
	got := db.Apply(d)
	if diff := cmp.Diff([]modmeta.PackageID{id("z.mod"), id("b.mod")}, got.Relations.LoadAfter); diff != "" {
		t.Errorf("Apply() LoadAfter mismatch (-want +got):\n%s", diff)
	}
	if len(d.Relations.LoadAfter) != 1 {
		t.Error("Apply() modified its input")
	}

	other := &modmeta.Descriptor{ID: id("other.mod")}
	if db.Apply(other) != other {
		t.Error("Apply() should return the input when no rule applies")
	}
	var nilDB *DB
	if nilDB.Apply(other) != other {
		t.Error("nil DB Apply() should return the input")
	}
}

func TestAnchor_ZeroValueIsNone(t *testing.T) {
	t.Parallel()

	var zero Anchor
	if zero != AnchorNone {
		t.Errorf("zero Anchor = %d, want AnchorNone (%d)", zero, AnchorNone)
	}
	tests := []struct {
		anchor Anchor
		want   string
	}{
		{zero, "none"},
		{AnchorStart, "start"},
		{AnchorEnd, "end"},
	}
	for _, tt := range tests {
		if got := tt.anchor.String(); got != tt.want {
			t.Errorf("Anchor(%d).String() = %q, want %q", tt.anchor, got, tt.want)
		}
	}
}
