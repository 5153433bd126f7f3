// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
)

const (
	// SourceOfficial is content shipped with the game (Data folder).
	SourceOfficial Source = iota
	// SourceLocal is a mod copied into a local mods folder.
	SourceLocal
	// SourceSubscribed is a mod downloaded from a workshop subscription.
	SourceSubscribed
)

type (
	// Source is the installation origin of a mod.
	Source int

	// Root is a directory whose immediate subdirectories are mods.
	Root struct {
		Path   string
		Source Source
	}

	// Location is one directory believed to contain a single mod.
	Location struct {
		Path   string
		Source Source
	}
)

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceOfficial:
		return "official"
	case SourceLocal:
		return "local"
	case SourceSubscribed:
		return "subscribed"
	default:
		return "unknown"
	}
}

// MarshalText renders the source name for JSON and YAML output.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Discover lists the candidate locations under roots. Roots are visited in the
// given order and subdirectories sorted by name; hidden directories are
// skipped. A missing root is skipped with a debug log, any other read error is
// logged at warn level. A root listed twice is visited once.
func Discover(roots []Root, logger *log.Logger) []Location {
	logger = orDiscard(logger)

	var locations []Location
	seen := make(map[string]bool)
	for _, root := range roots {
		if root.Path == "" {
			continue
		}
		clean := filepath.Clean(root.Path)
		if seen[clean] {
			continue
		}
		seen[clean] = true

		entries, err := os.ReadDir(clean)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("skipping missing mod root", "path", clean, "source", root.Source)
			} else {
				logger.Warn("cannot read mod root", "path", clean, "error", err)
			}
			continue
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() && e.Name()[0] != '.' {
				names = append(names, e.Name())
			}
		}
		slices.Sort(names)
		for _, name := range names {
			locations = append(locations, Location{Path: filepath.Join(clean, name), Source: root.Source})
		}
	}
	return locations
}
