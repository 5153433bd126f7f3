// SPDX-License-Identifier: MPL-2.0

package modsconfig

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/modweave/modweave/internal/testutil"
	"github.com/modweave/modweave/pkg/modmeta"
)

func TestParse(t *testing.T) {
	t.Parallel()

	doc := testutil.ModsConfigXML("1.5.4104 rev435",
		[]string{"ludeon.rimworld", "Brrainz.Harmony", "  ", "brrainz.harmony", "unknown.mod"},
		[]string{"ludeon.rimworld.royalty"})

	cfg, err := Parse([]byte("\xef\xbb\xbf" + doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Version != "1.5.4104 rev435" {
		t.Errorf("Version = %q", cfg.Version)
	}
	wantActive := []Entry{
		{Raw: "ludeon.rimworld", ID: "ludeon.rimworld"},
		{Raw: "Brrainz.Harmony", ID: "brrainz.harmony"},
		{Raw: "unknown.mod", ID: "unknown.mod"},
	}
	if diff := cmp.Diff(wantActive, cfg.Active); diff != "" {
		t.Errorf("Active mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"brrainz.harmony"}, cfg.Repeated); diff != "" {
		t.Errorf("Repeated mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ludeon.rimworld.royalty"}, cfg.KnownExpansions); diff != "" {
		t.Errorf("KnownExpansions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]modmeta.PackageID{"ludeon.rimworld", "brrainz.harmony", "unknown.mod"}, cfg.IDs()); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("<ModsConfigData><activeMods>")); err == nil {
		t.Error("Parse(truncated) expected an error")
	}
	if _, err := Parse([]byte("<ModMetaData/>")); !errors.Is(err, ErrNotModsConfig) {
		t.Errorf("Parse(wrong root) error = %v, want ErrNotModsConfig", err)
	}
}

func TestRead_Missing(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read() error = %v, want os.ErrNotExist", err)
	}
}

func TestWrite_RoundTripAndBackup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), FileName)
	original := testutil.ModsConfigXML("1.5.4104 rev435", []string{"b.mod", "A.Mod"}, []string{"ludeon.rimworld.ideology"})
	testutil.MustWriteFile(t, path, original)

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	reordered := cfg.WithActive([]Entry{cfg.Active[1], cfg.Active[0], {ID: "c.mod"}})
	if err := Write(path, reordered, WriteOptions{Backup: true}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if got := testutil.MustReadFile(t, path+".bak"); got != original {
		t.Errorf("backup content changed:\n%s", got)
	}
	written := testutil.MustReadFile(t, path)
	if !strings.HasPrefix(written, "<?xml") {
		t.Errorf("missing XML declaration:\n%s", written)
	}

	again, err := Read(path)
	if err != nil {
		t.Fatalf("Read() after Write error = %v", err)
	}
	if diff := cmp.Diff([]string{"A.Mod", "b.mod", "c.mod"}, raws(again.Active)); diff != "" {
		t.Errorf("active order mismatch (-want +got):\n%s", diff)
	}
	if again.Version != "1.5.4104 rev435" || len(again.KnownExpansions) != 1 {
		t.Errorf("metadata not preserved: %+v", again)
	}
	if len(cfg.Active) != 2 || cfg.Active[0].Raw != "b.mod" {
		t.Error("WithActive modified the original config")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected only the file and its backup, found %d entries", len(entries))
	}
}

func TestWrite_KeepsPermissions(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}

	path := filepath.Join(t.TempDir(), FileName)
	testutil.MustWriteFile(t, path, testutil.ModsConfigXML("1.5", []string{"a"}, nil))
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(path, cfg, WriteOptions{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".bak"); !errors.Is(err, os.ErrNotExist) {
		t.Error("backup written without Backup option")
	}
}

func TestWrite_RefusesEmptyList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), FileName)
	err := Write(path, &Config{Version: "1.5"}, WriteOptions{})
	if !errors.Is(err, ErrEmptyActiveList) {
		t.Fatalf("Write() error = %v, want ErrEmptyActiveList", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("file created despite the error")
	}
}

func raws(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Raw
	}
	return out
}
