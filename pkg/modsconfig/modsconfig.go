// SPDX-License-Identifier: MPL-2.0

// Package modsconfig reads and writes the game's ModsConfig.xml, which holds
// the ordered list of active mods.
package modsconfig

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/net/html/charset"

	"github.com/modweave/modweave/pkg/modmeta"
)

// FileName is the name the game gives the active list file.
const FileName = "ModsConfig.xml"

var (
	// ErrEmptyActiveList is returned when writing a list without active mods,
	// which the game refuses to load.
	ErrEmptyActiveList = errors.New("active mod list is empty")
	// ErrNotModsConfig is returned when the document root is not ModsConfigData.
	ErrNotModsConfig = errors.New("not a ModsConfigData document")
)

type (
	// Entry is one active-list item: the text as written and its canonical key.
	Entry struct {
		Raw string
		ID  modmeta.PackageID
	}

	// Config is the content of ModsConfig.xml.
	Config struct {
		// Version is the game version that last wrote the file.
		Version string
		// Active is the ordered active list without repeated ids.
		Active []Entry
		// KnownExpansions is preserved verbatim.
		KnownExpansions []string
		// Repeated holds active entries dropped because an earlier entry had the
		// same id.
		Repeated []string
	}

	// WriteOptions configures Write.
	WriteOptions struct {
		// Backup copies an existing file to <path>.bak before replacing it.
		Backup bool
	}

	xmlList struct {
		Items []string `xml:"li"`
	}

	xmlModsConfig struct {
		XMLName         xml.Name
		Version         string  `xml:"version"`
		ActiveMods      xmlList `xml:"activeMods"`
		KnownExpansions xmlList `xml:"knownExpansions"`
	}
)

// NewEntry builds an Entry from raw text.
func NewEntry(raw string) (Entry, error) {
	id, err := modmeta.NewPackageID(raw)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Raw: raw, ID: id}, nil
}

// Read parses the file at path.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a ModsConfig.xml document. Blank active entries are skipped
// and repeated ones are moved to Config.Repeated.
func Parse(data []byte) (*Config, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var raw xmlModsConfig
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("malformed XML: %w", err)
	}
	if raw.XMLName.Local != "ModsConfigData" {
		return nil, fmt.Errorf("%w: root element is <%s>", ErrNotModsConfig, raw.XMLName.Local)
	}

	cfg := &Config{
		Version:         raw.Version,
		KnownExpansions: raw.KnownExpansions.Items,
	}
	seen := make(map[modmeta.PackageID]bool, len(raw.ActiveMods.Items))
	for _, item := range raw.ActiveMods.Items {
		e, err := NewEntry(item)
		if err != nil {
			continue
		}
		if seen[e.ID] {
			cfg.Repeated = append(cfg.Repeated, item)
			continue
		}
		seen[e.ID] = true
		cfg.Active = append(cfg.Active, e)
	}
	return cfg, nil
}

// IDs returns the canonical ids of the active list in order.
func (c *Config) IDs() []modmeta.PackageID {
	ids := make([]modmeta.PackageID, len(c.Active))
	for i, e := range c.Active {
		ids[i] = e.ID
	}
	return ids
}

// WithActive returns a copy of c with a different active list.
func (c *Config) WithActive(active []Entry) *Config {
	out := *c
	out.Active = slices.Clone(active)
	out.KnownExpansions = slices.Clone(c.KnownExpansions)
	out.Repeated = nil
	return &out
}

// Marshal renders c as a ModsConfig.xml document. Entries are written as Raw
// when present.
func Marshal(c *Config) ([]byte, error) {
	if len(c.Active) == 0 {
		return nil, ErrEmptyActiveList
	}
	doc := xmlModsConfig{
		XMLName:         xml.Name{Local: "ModsConfigData"},
		Version:         c.Version,
		KnownExpansions: xmlList{Items: c.KnownExpansions},
	}
	for _, e := range c.Active {
		text := e.Raw
		if text == "" {
			text = e.ID.String()
		}
		doc.ActiveMods.Items = append(doc.ActiveMods.Items, text)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Write replaces the file at path atomically: the document is written to a
// temporary file in the same directory and renamed over the target. File
// permissions of an existing target are kept.
func Write(path string, c *Config, opts WriteOptions) (err error) {
	data, err := Marshal(c)
	if err != nil {
		return err
	}

	perm := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
		if opts.Backup {
			if err := copyFile(path, path+".bak", perm); err != nil {
				return fmt.Errorf("backup %s: %w", path, err)
			}
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func copyFile(src, dst string, perm os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
