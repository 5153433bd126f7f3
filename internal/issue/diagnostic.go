// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/modweave/modweave/pkg/modmeta"
)

const (
	// KindParseFailure marks a mod location whose descriptor could not be read.
	KindParseFailure Kind = "ParseFailure"
	// KindDuplicatePackage marks two installations sharing a package id.
	KindDuplicatePackage Kind = "DuplicatePackage"
	// KindNotInstalled marks an active-list entry that is not in the registry.
	KindNotInstalled Kind = "NotInstalled"
	// KindMissingDependency marks a hard dependency that is not active.
	KindMissingDependency Kind = "MissingDependency"
	// KindIncompatiblePair marks two active mods that declare an incompatibility.
	KindIncompatiblePair Kind = "IncompatiblePair"
	// KindVersionUnsupported marks an active mod that does not declare the target version.
	KindVersionUnsupported Kind = "VersionUnsupported"
	// KindCycleDetected marks a set of mods whose ordering constraints form a cycle.
	KindCycleDetected Kind = "CycleDetected"

	// SeverityWarning indicates the mod list is usable but suspicious.
	SeverityWarning Severity = "warning"
	// SeverityError indicates the mod list will misbehave in game.
	SeverityError Severity = "error"
)

// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
var ErrInvalidKind = errors.New("invalid issue kind")

// kindOrder fixes the reporting order of kinds.
var kindOrder = []Kind{
	KindParseFailure,
	KindDuplicatePackage,
	KindNotInstalled,
	KindMissingDependency,
	KindIncompatiblePair,
	KindVersionUnsupported,
	KindCycleDetected,
}

type (
	// Kind classifies an Issue.
	Kind string

	// InvalidKindError is returned when a Kind value is not recognized.
	InvalidKindError struct {
		Value Kind
	}

	// Severity is the level of an Issue.
	Severity string

	// Issue is one diagnostic about the catalog or the active list.
	Issue struct {
		Kind Kind `json:"kind" yaml:"kind"`
		// Packages are the implicated package ids, sorted unless the order carries
		// meaning (a dependency issue lists the dependent mod first).
		Packages []modmeta.PackageID `json:"packages,omitempty" yaml:"packages,omitempty"`
		// Message is a human-readable explanation.
		Message string `json:"message" yaml:"message"`
		// Path is the filesystem location involved (optional).
		Path string `json:"path,omitempty" yaml:"path,omitempty"`
	}
)

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid issue kind %q", e.Value)
}

// Unwrap returns ErrInvalidKind for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// IsValid returns whether the Kind is one of the defined kinds.
func (k Kind) IsValid() (bool, []error) {
	if slices.Contains(kindOrder, k) {
		return true, nil
	}
	return false, []error{&InvalidKindError{Value: k}}
}

// Severity returns the severity every issue of this kind carries.
func (k Kind) Severity() Severity {
	switch k {
	case KindDuplicatePackage, KindVersionUnsupported, KindNotInstalled:
		return SeverityWarning
	default:
		return SeverityError
	}
}

func (k Kind) rank() int {
	if i := slices.Index(kindOrder, k); i >= 0 {
		return i
	}
	return len(kindOrder)
}

// Severity returns the severity of the issue.
func (i Issue) Severity() Severity { return i.Kind.Severity() }

// Compare orders issues by kind, then implicated packages, then path and message.
func Compare(a, b Issue) int {
	return cmp.Or(
		cmp.Compare(a.Kind.rank(), b.Kind.rank()),
		slices.Compare(a.Packages, b.Packages),
		cmp.Compare(a.Path, b.Path),
		cmp.Compare(a.Message, b.Message),
	)
}

// Sort sorts issues in place into reporting order.
func Sort(issues []Issue) {
	slices.SortStableFunc(issues, Compare)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	return slices.ContainsFunc(issues, func(i Issue) bool {
		return i.Severity() == SeverityError
	})
}

// CountByKind tallies issues per kind.
func CountByKind(issues []Issue) map[Kind]int {
	counts := make(map[Kind]int)
	for _, i := range issues {
		counts[i.Kind]++
	}
	return counts
}

// Kinds returns every defined kind in reporting order.
func Kinds() []Kind {
	return slices.Clone(kindOrder)
}
