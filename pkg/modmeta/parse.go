// SPDX-License-Identifier: MPL-2.0

package modmeta

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/modweave/modweave/pkg/gameversion"
)

const (
	// AboutDirName is the descriptor directory inside a mod folder.
	AboutDirName = "About"
	// AboutFileName is the descriptor file inside AboutDirName.
	AboutFileName = "About.xml"

	// MaxDescriptorSize bounds the size of a descriptor read from disk.
	MaxDescriptorSize = 4 << 20
)

var (
	// ErrNoDescriptor is returned when a mod folder has no About/About.xml.
	ErrNoDescriptor = errors.New("no About/About.xml descriptor")
	// ErrMissingPackageID is returned when a descriptor has no usable packageId.
	ErrMissingPackageID = errors.New("descriptor has no packageId")
	// ErrDescriptorTooLarge is returned when a descriptor exceeds MaxDescriptorSize.
	ErrDescriptorTooLarge = errors.New("descriptor too large")
)

// ParseError reports why one mod location could not be turned into a Descriptor.
type ParseError struct {
	// Path is the mod folder (or descriptor file) that failed.
	Path string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse mod metadata %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Err }

type (
	xmlList struct {
		Items []string `xml:"li"`
	}

	xmlDependency struct {
		PackageID        string `xml:"packageId"`
		DisplayName      string `xml:"displayName"`
		SteamWorkshopURL string `xml:"steamWorkshopUrl"`
	}

	xmlDependencyList struct {
		Items []xmlDependency `xml:"li"`
	}

	// xmlVersionedLists captures <v1.5><li>..</li></v1.5> children of *ByVersion elements.
	xmlVersionedLists struct {
		Entries []struct {
			XMLName xml.Name
			Items   []string `xml:"li"`
		} `xml:",any"`
	}

	xmlVersionedDependencies struct {
		Entries []struct {
			XMLName xml.Name
			Items   []xmlDependency `xml:"li"`
		} `xml:",any"`
	}

	xmlModMetaData struct {
		XMLName     xml.Name `xml:"ModMetaData"`
		PackageID   string   `xml:"packageId"`
		Name        string   `xml:"name"`
		Description string   `xml:"description"`
		Author      string   `xml:"author"`
		Authors     xmlList  `xml:"authors"`

		SupportedVersions xmlList `xml:"supportedVersions"`

		LoadBefore          xmlList           `xml:"loadBefore"`
		ForceLoadBefore     xmlList           `xml:"forceLoadBefore"`
		LoadBeforeByVersion xmlVersionedLists `xml:"loadBeforeByVersion"`

		LoadAfter          xmlList           `xml:"loadAfter"`
		ForceLoadAfter     xmlList           `xml:"forceLoadAfter"`
		LoadAfterByVersion xmlVersionedLists `xml:"loadAfterByVersion"`

		ModDependencies          xmlDependencyList        `xml:"modDependencies"`
		ModDependenciesByVersion xmlVersionedDependencies `xml:"modDependenciesByVersion"`

		IncompatibleWith          xmlList           `xml:"incompatibleWith"`
		IncompatibleWithByVersion xmlVersionedLists `xml:"incompatibleWithByVersion"`
	}
)

// Load reads the descriptor of the mod stored in modDir. Every failure is
// returned as a *ParseError.
func Load(modDir string) (*Descriptor, error) {
	path, err := FindDescriptor(modDir)
	if err != nil {
		return nil, &ParseError{Path: modDir, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, MaxDescriptorSize+1))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(data) > MaxDescriptorSize {
		return nil, &ParseError{Path: path, Err: ErrDescriptorTooLarge}
	}

	desc, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return desc, nil
}

// FindDescriptor locates About/About.xml inside modDir. Directory and file names
// are matched case-insensitively because mods are authored on case-insensitive
// filesystems.
func FindDescriptor(modDir string) (string, error) {
	aboutDir, err := findEntry(modDir, AboutDirName, true)
	if err != nil {
		return "", err
	}
	return findEntry(aboutDir, AboutFileName, false)
}

func findEntry(dir, name string, wantDir bool) (string, error) {
	exact := filepath.Join(dir, name)
	if info, err := os.Stat(exact); err == nil && info.IsDir() == wantDir {
		return exact, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() == wantDir && strings.EqualFold(entry.Name(), name) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", ErrNoDescriptor
}

// Parse decodes descriptor XML.
func Parse(data []byte) (*Descriptor, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity

	var raw xmlModMetaData
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("malformed XML: %w", err)
	}
	return raw.toDescriptor()
}

func (m *xmlModMetaData) toDescriptor() (*Descriptor, error) {
	rawID := strings.TrimSpace(m.PackageID)
	id, err := NewPackageID(rawID)
	if err != nil {
		return nil, ErrMissingPackageID
	}

	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = rawID
	}

	desc := &Descriptor{
		ID:          id,
		RawID:       rawID,
		Name:        name,
		Description: strings.TrimSpace(m.Description),
		Authors:     m.authors(),
		Relations: Relations{
			LoadBefore:   normalizeIDs(slices.Concat(m.LoadBefore.Items, m.ForceLoadBefore.Items)),
			LoadAfter:    normalizeIDs(slices.Concat(m.LoadAfter.Items, m.ForceLoadAfter.Items)),
			Dependencies: normalizeDependencies(m.ModDependencies.Items),
			Incompatible: normalizeIDs(m.IncompatibleWith.Items),
		},
	}

	for _, raw := range m.SupportedVersions.Items {
		token, err := gameversion.ParseToken(raw)
		if err != nil {
			// Kept verbatim so an unparsable declaration never matches anything.
			token = gameversion.Token(strings.ToLower(strings.TrimSpace(raw)))
		}
		if token != "" && !slices.Contains(desc.SupportedVersions, token) {
			desc.SupportedVersions = append(desc.SupportedVersions, token)
		}
	}
	slices.Sort(desc.SupportedVersions)

	byVersion := make(map[gameversion.Token]Relations)
	merge := func(element string, add Relations) {
		token, err := gameversion.ParseToken(element)
		if err != nil || add.IsEmpty() {
			return
		}
		byVersion[token] = byVersion[token].Merge(add)
	}
	for _, e := range m.LoadBeforeByVersion.Entries {
		merge(e.XMLName.Local, Relations{LoadBefore: normalizeIDs(e.Items)})
	}
	for _, e := range m.LoadAfterByVersion.Entries {
		merge(e.XMLName.Local, Relations{LoadAfter: normalizeIDs(e.Items)})
	}
	for _, e := range m.ModDependenciesByVersion.Entries {
		merge(e.XMLName.Local, Relations{Dependencies: normalizeDependencies(e.Items)})
	}
	for _, e := range m.IncompatibleWithByVersion.Entries {
		merge(e.XMLName.Local, Relations{Incompatible: normalizeIDs(e.Items)})
	}
	if len(byVersion) > 0 {
		desc.ByVersion = byVersion
	}

	return desc, nil
}

func (m *xmlModMetaData) authors() []string {
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	for name := range strings.SplitSeq(m.Author, ",") {
		add(name)
	}
	for _, name := range m.Authors.Items {
		add(name)
	}
	slices.Sort(out)
	return out
}

func normalizeDependencies(raw []xmlDependency) []Dependency {
	var out []Dependency
	for _, r := range raw {
		id, err := NewPackageID(r.PackageID)
		if err != nil {
			continue
		}
		out = appendDependency(out, Dependency{
			ID:          id,
			DisplayName: strings.TrimSpace(r.DisplayName),
			WorkshopURL: validWorkshopURL(r.SteamWorkshopURL),
		})
	}
	return out
}

// validWorkshopURL returns raw when it is an absolute http(s) URL and "" otherwise.
func validWorkshopURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return raw
}
