// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modweave/modweave/internal/engine"
	"github.com/modweave/modweave/internal/issue"
)

func newScanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List installed mods",
		Long: `Scan the game's Data and Mods folders, extra mod_dirs and the workshop
folder, and list every installed mod. Unreadable descriptors and duplicate
installations are reported as issues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.fail(cmd, runScan(cmd, app))
		},
	}
}

func runScan(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd.Context())
	if err != nil {
		return err
	}
	snap, err := s.engine.Scan(cmd.Context())
	if err != nil {
		return err
	}

	view := scanView{
		GameVersion: snap.GameVersion.String(),
		Locations:   snap.Locations,
		Mods:        make([]modView, 0, snap.Registry.Len()),
		Issues:      snap.Issues,
	}
	for _, m := range snap.Registry.All() {
		view.Mods = append(view.Mods, toModView(m))
	}

	switch s.format {
	case FormatJSON, FormatYAML:
		err = writeStructured(app.stdout, s.format, view)
	case FormatMarkdown:
		err = app.writeMarkdown(scanMarkdown(view))
	default:
		writeScanText(app, snap, view)
	}
	if err != nil {
		return err
	}
	return app.finish(s)
}

func writeScanText(app *App, snap *engine.Snapshot, view scanView) {
	w := app.stdout
	version := view.GameVersion
	if version == "" {
		version = "unknown"
	}
	_, _ = fmt.Fprintf(w, "%s %s\n\n",
		TitleStyle.Render("Installed mods"),
		SubtitleStyle.Render(fmt.Sprintf("(%d mods, %d folders scanned, game %s)", len(view.Mods), view.Locations, version)))

	width := 0
	for _, m := range view.Mods {
		width = max(width, len(m.ID))
	}
	for _, m := range view.Mods {
		line := fmt.Sprintf("  %s  %s %s",
			CmdStyle.Render(fmt.Sprintf("%-*s", width, m.ID)),
			m.Name,
			SubtitleStyle.Render("["+m.Source+"]"))
		if m.Anchor != "" {
			line += " " + WarningStyle.Render(m.Anchor+" anchor")
		}
		if app.flags.verbose {
			line += "\n    " + VerboseStyle.Render(m.Path)
		}
		_, _ = fmt.Fprintln(w, line)
	}
	if len(view.Mods) == 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(no mods found)"))
	}
	if rules := snap.Rules.Files(); len(rules) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s %s\n", SubtitleStyle.Render("rule files:"), strings.Join(rules, ", "))
	}
	_, _ = fmt.Fprintln(w)
	writeIssuesText(w, view.Issues, app.flags.verbose)
}

func scanMarkdown(view scanView) string {
	var b strings.Builder
	b.WriteString("# Installed mods\n\n")
	b.WriteString("| Package | Name | Source |\n|---|---|---|\n")
	for _, m := range view.Mods {
		fmt.Fprintf(&b, "| `%s` | %s | %s |\n", m.ID, m.Name, m.Source)
	}
	b.WriteString("\n")
	b.WriteString(issue.Markdown(view.Issues))
	return b.String()
}
