// SPDX-License-Identifier: MPL-2.0

// Package rules loads user-maintained rule databases that add ordering and
// compatibility constraints on top of what mod authors declare.
//
// A rule file is TOML keyed by package id:
//
//	["brrainz.harmony"]
//	start_anchor = true
//
//	["some.mod".rules]
//	"other.mod" = "after"
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/pkg/modmeta"
)

const (
	// RelationBefore makes the rule owner load before the other mod.
	RelationBefore Relation = "before"
	// RelationAfter makes the rule owner load after the other mod.
	RelationAfter Relation = "after"
	// RelationDependency makes the other mod a hard dependency of the rule owner.
	RelationDependency Relation = "dependency"
	// RelationIncompatible marks the two mods as unusable together.
	RelationIncompatible Relation = "incompatible"
)

const (
	// AnchorNone leaves placement to the declared relations. It is the zero
	// value.
	AnchorNone Anchor = iota
	// AnchorStart places a mod ahead of every mod that is not start-anchored.
	AnchorStart
	// AnchorEnd places a mod behind every mod that is not end-anchored.
	AnchorEnd
)

// ErrInvalidRelation is the sentinel error wrapped by InvalidRelationError.
var ErrInvalidRelation = errors.New("invalid relation")

type (
	// Relation is the kind of constraint a rule expresses.
	Relation string

	// InvalidRelationError is returned when a rule uses an unknown relation.
	InvalidRelationError struct {
		Value string
	}

	// Anchor pins a mod to one end of the load order.
	Anchor int

	// Entry is the merged rule set for one package.
	Entry struct {
		StartAnchor bool
		EndAnchor   bool
		Rules       map[modmeta.PackageID]Relation
	}

	// DB is a merged, read-only view over any number of rule files.
	DB struct {
		entries map[modmeta.PackageID]Entry
		files   []string
	}

	fileEntry struct {
		StartAnchor bool              `toml:"start_anchor"`
		EndAnchor   bool              `toml:"end_anchor"`
		Rules       map[string]string `toml:"rules"`
	}
)

// Error implements the error interface.
func (e *InvalidRelationError) Error() string {
	return fmt.Sprintf("invalid relation %q (expected before, after, dependency or incompatible)", e.Value)
}

// Unwrap returns ErrInvalidRelation for errors.Is() compatibility.
func (e *InvalidRelationError) Unwrap() error { return ErrInvalidRelation }

// ParseRelation parses a relation name case-insensitively. "incompatibility" is
// accepted as an alias of "incompatible".
func ParseRelation(raw string) (Relation, error) {
	switch r := Relation(strings.ToLower(strings.TrimSpace(raw))); r {
	case RelationBefore, RelationAfter, RelationDependency, RelationIncompatible:
		return r, nil
	case "incompatibility":
		return RelationIncompatible, nil
	default:
		return "", &InvalidRelationError{Value: raw}
	}
}

// String returns the string representation of the Anchor.
func (a Anchor) String() string {
	switch a {
	case AnchorStart:
		return "start"
	case AnchorEnd:
		return "end"
	default:
		return "none"
	}
}

// Empty returns a DB without rules.
func Empty() *DB {
	return &DB{entries: make(map[modmeta.PackageID]Entry)}
}

// Load reads and merges rule files in order. For the same package, later files
// override anchors and individual rules of earlier ones. Any unreadable or
// malformed file fails the whole load.
func Load(paths ...string) (*DB, error) {
	db := Empty()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("read rule file").
				WithResource(path).
				WithSuggestion("Check the rule_files entries in your configuration").
				Wrap(err).
				BuildError()
		}
		if err := db.merge(data); err != nil {
			return nil, ruleFileError(path, err)
		}
		db.files = append(db.files, path)
	}
	return db, nil
}

// Parse builds a DB from a single TOML document.
func Parse(data []byte) (*DB, error) {
	db := Empty()
	if err := db.merge(data); err != nil {
		return nil, err
	}
	return db, nil
}

// Files returns the rule files that were loaded, in order.
func (db *DB) Files() []string { return slices.Clone(db.files) }

// Len returns the number of packages with rules.
func (db *DB) Len() int { return len(db.entries) }

// Lookup returns the merged rules for a package.
func (db *DB) Lookup(id modmeta.PackageID) (Entry, bool) {
	e, ok := db.entries[id]
	return e, ok
}

// Anchor returns the anchor configured for a package. Start wins when a
// package is marked as both.
func (db *DB) Anchor(id modmeta.PackageID) Anchor {
	e := db.entries[id]
	switch {
	case e.StartAnchor:
		return AnchorStart
	case e.EndAnchor:
		return AnchorEnd
	default:
		return AnchorNone
	}
}

// Relations converts the rules of a package into descriptor relations. Ids are
// emitted in sorted order.
func (db *DB) Relations(id modmeta.PackageID) modmeta.Relations {
	var rel modmeta.Relations
	e, ok := db.entries[id]
	if !ok {
		return rel
	}
	others := make([]modmeta.PackageID, 0, len(e.Rules))
	for other := range e.Rules {
		others = append(others, other)
	}
	modmeta.SortPackageIDs(others)
	for _, other := range others {
		switch e.Rules[other] {
		case RelationBefore:
			rel.LoadBefore = append(rel.LoadBefore, other)
		case RelationAfter:
			rel.LoadAfter = append(rel.LoadAfter, other)
		case RelationDependency:
			rel.Dependencies = append(rel.Dependencies, modmeta.Dependency{ID: other})
		case RelationIncompatible:
			rel.Incompatible = append(rel.Incompatible, other)
		}
	}
	return rel
}

// Apply returns d with the rule relations for its package merged in. d is
// returned unchanged when no rule names it.
func (db *DB) Apply(d *modmeta.Descriptor) *modmeta.Descriptor {
	if db == nil {
		return d
	}
	rel := db.Relations(d.ID)
	if rel.IsEmpty() {
		return d
	}
	return d.WithRelations(rel)
}

func (db *DB) merge(data []byte) error {
	var doc map[string]fileEntry
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return err
	}

	// Validate everything before touching db so a bad file leaves it intact.
	parsed := make(map[modmeta.PackageID]Entry, len(doc))
	for _, rawID := range slices.Sorted(maps.Keys(doc)) {
		fe := doc[rawID]
		id, err := modmeta.NewPackageID(rawID)
		if err != nil {
			return err
		}
		entry := parsed[id]
		entry.StartAnchor = entry.StartAnchor || fe.StartAnchor
		entry.EndAnchor = entry.EndAnchor || fe.EndAnchor
		if entry.Rules == nil {
			entry.Rules = make(map[modmeta.PackageID]Relation, len(fe.Rules))
		}
		for rawOther, rawRel := range fe.Rules {
			other, err := modmeta.NewPackageID(rawOther)
			if err != nil {
				return fmt.Errorf("%s: %w", rawID, err)
			}
			rel, err := ParseRelation(rawRel)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", rawID, rawOther, err)
			}
			if other != id {
				entry.Rules[other] = rel
			}
		}
		parsed[id] = entry
	}

	for id, entry := range parsed {
		current, ok := db.entries[id]
		if !ok {
			db.entries[id] = entry
			continue
		}
		current.StartAnchor = entry.StartAnchor
		current.EndAnchor = entry.EndAnchor
		for other, rel := range entry.Rules {
			current.Rules[other] = rel
		}
		db.entries[id] = current
	}
	return nil
}

func ruleFileError(path string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("parse rule file").
		WithResource(path).
		Wrap(err)

	var decErr *toml.DecodeError
	var strictErr *toml.StrictMissingError
	switch {
	case errors.As(err, &decErr):
		row, col := decErr.Position()
		ctx.WithSuggestion(fmt.Sprintf("Fix the TOML syntax near line %d, column %d", row, col))
	case errors.As(err, &strictErr):
		ctx.WithSuggestion("Only start_anchor, end_anchor and rules are allowed under a package table")
	case errors.Is(err, ErrInvalidRelation):
		ctx.WithSuggestion("Use one of: before, after, dependency, incompatible")
	case errors.Is(err, modmeta.ErrInvalidPackageID):
		ctx.WithSuggestion("Package ids must be non-empty")
	}
	return ctx.BuildError()
}
