// SPDX-License-Identifier: MPL-2.0

package modmeta

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// ErrInvalidPackageID is the sentinel error wrapped by InvalidPackageIDError.
var ErrInvalidPackageID = errors.New("invalid package id")

type (
	// PackageID is the canonical, case-folded key of a mod. Two identifiers that
	// differ only in letter case produce the same PackageID.
	PackageID string

	// InvalidPackageIDError is returned when a raw identifier is empty, or when
	// a PackageID value was not produced by NewPackageID.
	InvalidPackageIDError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidPackageIDError) Error() string {
	return fmt.Sprintf("invalid package id %q: must be non-empty and canonical", e.Value)
}

// Unwrap returns ErrInvalidPackageID for errors.Is() compatibility.
func (e *InvalidPackageIDError) Unwrap() error { return ErrInvalidPackageID }

// NewPackageID canonicalizes a raw identifier.
func NewPackageID(raw string) (PackageID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &InvalidPackageIDError{Value: raw}
	}
	// cases.Caser is stateful, so each call gets its own.
	return PackageID(cases.Fold().String(trimmed)), nil
}

// MustPackageID is like NewPackageID but panics on error.
func MustPackageID(raw string) PackageID {
	id, err := NewPackageID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation of the PackageID.
func (p PackageID) String() string { return string(p) }

// IsValid returns whether the PackageID is non-empty and already canonical.
func (p PackageID) IsValid() (bool, []error) {
	canonical, err := NewPackageID(string(p))
	if err != nil || canonical != p {
		return false, []error{&InvalidPackageIDError{Value: string(p)}}
	}
	return true, nil
}

// SortPackageIDs sorts ids in place in ascending order.
func SortPackageIDs(ids []PackageID) {
	slices.Sort(ids)
}

// appendUnique appends id to ids unless it is already present.
func appendUnique(ids []PackageID, id PackageID) []PackageID {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// normalizeIDs converts raw identifiers into canonical, de-duplicated ids,
// keeping first-occurrence order and dropping blanks.
func normalizeIDs(raw []string) []PackageID {
	var out []PackageID
	for _, r := range raw {
		id, err := NewPackageID(r)
		if err != nil {
			continue
		}
		out = appendUnique(out, id)
	}
	return out
}
