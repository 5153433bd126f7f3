// SPDX-License-Identifier: MPL-2.0

// Package gameversion parses game version strings and the major.minor tokens that
// mods use to declare which game releases they support.
//
// The game ships a Version.txt whose first field is a full build version
// ("1.5.4104 rev435"); mod descriptors list coarse tokens ("1.5"). Only the
// major.minor pair takes part in matching.
package gameversion

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionFileName is the file in the game directory that carries the build version.
const VersionFileName = "Version.txt"

var (
	// ErrInvalidToken is the sentinel error wrapped by InvalidTokenError.
	ErrInvalidToken = errors.New("invalid game version token")
	// ErrInvalidVersion is returned when a build version string cannot be parsed.
	ErrInvalidVersion = errors.New("invalid game version")
)

type (
	// Token is a normalized major.minor version key such as "1.5".
	// The zero value means "unknown".
	Token string

	// InvalidTokenError is returned when a Token is not in major.minor form.
	InvalidTokenError struct {
		Value Token
	}

	// Version is a parsed game build version.
	Version struct {
		v   *semver.Version
		raw string
	}
)

// Error implements the error interface.
func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid game version token %q: expected major.minor", e.Value)
}

// Unwrap returns ErrInvalidToken for errors.Is() compatibility.
func (e *InvalidTokenError) Unwrap() error { return ErrInvalidToken }

// String returns the string representation of the Token.
func (t Token) String() string { return string(t) }

// IsZero reports whether the token is unknown.
func (t Token) IsZero() bool { return t == "" }

// IsValid returns whether the Token is a canonical major.minor pair.
// The zero value is valid and means "unknown".
func (t Token) IsValid() (bool, []error) {
	if t == "" {
		return true, nil
	}
	parsed, err := ParseToken(string(t))
	if err != nil || parsed != t {
		return false, []error{&InvalidTokenError{Value: t}}
	}
	return true, nil
}

// ParseToken normalizes a declared version token. "1.5", "v1.5", " 1.5.4104 "
// all yield "1.5".
func ParseToken(raw string) (Token, error) {
	v, err := Parse(raw)
	if err != nil {
		return "", &InvalidTokenError{Value: Token(strings.TrimSpace(raw))}
	}
	return v.Token(), nil
}

// Parse parses a build version. Only the first whitespace-separated field is
// considered, so trailing revision markers are ignored.
func Parse(raw string) (Version, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Version{}, fmt.Errorf("%w: empty string", ErrInvalidVersion)
	}
	v, err := semver.NewVersion(fields[0])
	if err != nil {
		return Version{}, fmt.Errorf("%w %q: %w", ErrInvalidVersion, fields[0], err)
	}
	return Version{v: v, raw: fields[0]}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ReadFile reads and parses a Version.txt file.
func ReadFile(path string) (Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Version{}, fmt.Errorf("failed to read game version file: %w", err)
	}
	return Parse(string(data))
}

// IsZero reports whether the version is unset.
func (v Version) IsZero() bool { return v.v == nil }

// Token returns the major.minor key used for supported-version matching.
func (v Version) Token() Token {
	if v.v == nil {
		return ""
	}
	return Token(fmt.Sprintf("%d.%d", v.v.Major(), v.v.Minor()))
}

// String returns the version as it was written.
func (v Version) String() string { return v.raw }

// Compare compares a and b, returning -1, 0 or 1. An unset version sorts first.
func Compare(a, b Version) int {
	switch {
	case a.v == nil && b.v == nil:
		return 0
	case a.v == nil:
		return -1
	case b.v == nil:
		return 1
	}
	return a.v.Compare(b.v)
}
