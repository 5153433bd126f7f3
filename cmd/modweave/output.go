// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"gopkg.in/yaml.v3"

	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/internal/registry"
	"github.com/modweave/modweave/internal/rules"
	"github.com/modweave/modweave/pkg/modmeta"
)

const (
	// FormatText is styled terminal output.
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatYAML is a YAML document.
	FormatYAML OutputFormat = "yaml"
	// FormatMarkdown is a markdown report rendered for the terminal.
	FormatMarkdown OutputFormat = "markdown"
)

// ErrInvalidOutputFormat is the sentinel error wrapped by InvalidOutputFormatError.
var ErrInvalidOutputFormat = errors.New("invalid output format")

type (
	// OutputFormat selects how command results are printed.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	modView struct {
		ID                string   `json:"id" yaml:"id"`
		Name              string   `json:"name" yaml:"name"`
		Source            string   `json:"source" yaml:"source"`
		Anchor            string   `json:"anchor,omitempty" yaml:"anchor,omitempty"`
		SupportedVersions []string `json:"supported_versions,omitempty" yaml:"supported_versions,omitempty"`
		Path              string   `json:"path" yaml:"path"`
	}

	scanView struct {
		GameVersion string        `json:"game_version,omitempty" yaml:"game_version,omitempty"`
		Locations   int           `json:"locations" yaml:"locations"`
		Mods        []modView     `json:"mods" yaml:"mods"`
		Issues      []issue.Issue `json:"issues" yaml:"issues"`
	}

	checkView struct {
		GameVersion string        `json:"game_version,omitempty" yaml:"game_version,omitempty"`
		Active      int           `json:"active" yaml:"active"`
		Installed   int           `json:"installed" yaml:"installed"`
		Errors      int           `json:"errors" yaml:"errors"`
		Warnings    int           `json:"warnings" yaml:"warnings"`
		Issues      []issue.Issue `json:"issues" yaml:"issues"`
	}

	sortView struct {
		Order   []string      `json:"order" yaml:"order"`
		Changed bool          `json:"changed" yaml:"changed"`
		Written bool          `json:"written" yaml:"written"`
		Cycles  [][]string    `json:"cycles,omitempty" yaml:"cycles,omitempty"`
		Issues  []issue.Issue `json:"issues" yaml:"issues"`
	}
)

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json, yaml, markdown)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the supported formats.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case FormatText, FormatJSON, FormatYAML, FormatMarkdown:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format OutputFormat, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%s is not a structured format", format)
	}
}

// writeMarkdown renders md through glamour.
func (a *App) writeMarkdown(md string) error {
	out, err := glamour.Render(md, a.markdownStyle())
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(a.stdout, out)
	return err
}

// writeIssuesText prints one line per issue followed by a summary.
func writeIssuesText(w io.Writer, issues []issue.Issue, verbose bool) {
	for _, is := range issues {
		label := WarningStyle.Render("warning")
		if is.Severity() == issue.SeverityError {
			label = ErrorStyle.Render("error")
		}
		line := fmt.Sprintf("%s %s %s", label, SubtitleStyle.Render("["+string(is.Kind)+"]"), is.Message)
		if verbose && is.Path != "" {
			line += " " + VerboseStyle.Render("("+is.Path+")")
		}
		_, _ = fmt.Fprintln(w, line)
	}

	errs, warns := countSeverities(issues)
	switch {
	case errs == 0 && warns == 0:
		_, _ = fmt.Fprintln(w, SuccessStyle.Render("✓ no issues found"))
	default:
		_, _ = fmt.Fprintf(w, "%s, %s\n",
			ErrorStyle.Render(plural(errs, "error")), WarningStyle.Render(plural(warns, "warning")))
	}
}

func countSeverities(issues []issue.Issue) (errs, warns int) {
	for _, is := range issues {
		if is.Severity() == issue.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	return errs, warns
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func toModView(m *registry.InstalledMod) modView {
	v := modView{
		ID:     m.ID().String(),
		Name:   m.Descriptor.Name,
		Source: m.Source.String(),
		Path:   m.Path,
	}
	if m.Anchor != rules.AnchorNone {
		v.Anchor = m.Anchor.String()
	}
	for _, tok := range m.Descriptor.SupportedVersions {
		v.SupportedVersions = append(v.SupportedVersions, tok.String())
	}
	return v
}

func idStrings(ids []modmeta.PackageID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// markdownList renders a numbered markdown list.
func markdownList(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\n")
}
