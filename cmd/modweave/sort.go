// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modweave/modweave/internal/engine"
	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/pkg/modmeta"
)

func newSortCommand(app *App) *cobra.Command {
	var (
		write  bool
		backup bool
	)

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Compute the load order of the active mods",
		Long: `Sort the active mod list so that every mod loads after the mods it depends
on or declares loadAfter for, and before the ones it declares loadBefore for.
Mods already in a valid position keep it; only the mods that must move do.

Mods that are listed but not installed keep their slots. When the rules of
some mods contradict each other, those mods keep their current relative
order and a CycleDetected issue is reported.

The new order is printed; use --write to save it to ModsConfig.xml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.fail(cmd, runSort(cmd, app, write, backup))
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "save the sorted order to ModsConfig.xml")
	cmd.Flags().BoolVar(&backup, "backup", true, "keep a ModsConfig.xml.bak copy when writing")
	return cmd
}

func runSort(cmd *cobra.Command, app *App, write, backup bool) error {
	s, err := app.newSession(cmd.Context())
	if err != nil {
		return err
	}
	report, err := s.engine.Resolve(cmd.Context())
	if err != nil {
		return err
	}

	written := false
	if write && report.Result.Changed {
		if err := s.engine.Write(report, backup); err != nil {
			return err
		}
		written = true
	}

	view := sortView{
		Order:   idStrings(report.Result.Order),
		Changed: report.Result.Changed,
		Written: written,
		Issues:  report.Issues,
	}
	for _, members := range report.Result.Cycles {
		view.Cycles = append(view.Cycles, idStrings(members))
	}

	switch s.format {
	case FormatJSON, FormatYAML:
		err = writeStructured(app.stdout, s.format, view)
	case FormatMarkdown:
		err = app.writeMarkdown(sortMarkdown(view))
	default:
		writeSortText(app, report, view, write)
	}
	if err != nil {
		return err
	}
	return app.finish(s)
}

func writeSortText(app *App, report *engine.Report, view sortView, write bool) {
	w := app.stdout
	_, _ = fmt.Fprintf(w, "%s %s\n\n", TitleStyle.Render("Load order"),
		SubtitleStyle.Render(fmt.Sprintf("(%d active)", len(view.Order))))

	before := report.ModsConfig.IDs()
	reg := report.Snapshot.Registry
	for i, id := range report.Result.Order {
		marker := " "
		if i >= len(before) || before[i] != id {
			marker = movedStyle.Render("*")
		}
		line := fmt.Sprintf("%s %3d. %s", marker, i+1, CmdStyle.Render(id.String()))
		if m, ok := reg.Get(id); ok {
			if m.Descriptor.Name != "" && m.Descriptor.Name != m.Descriptor.RawID {
				line += " " + m.Descriptor.Name
			}
		} else {
			line += " " + SubtitleStyle.Render("(not installed)")
		}
		_, _ = fmt.Fprintln(w, line)
	}
	_, _ = fmt.Fprintln(w)

	for _, members := range report.Result.Cycles {
		_, _ = fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("cycle:"), joinIDs(members))
	}
	writeIssuesText(w, view.Issues, app.flags.verbose)
	_, _ = fmt.Fprintln(w)

	switch {
	case !view.Changed:
		_, _ = fmt.Fprintln(w, SuccessStyle.Render("✓ load order is already sorted"))
	case view.Written:
		_, _ = fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("✓ wrote"), report.ModsConfigPath)
	case !write:
		_, _ = fmt.Fprintf(w, "%s run %s to save it\n",
			WarningStyle.Render("load order changed;"), CmdStyle.Render("modweave sort --write"))
	}
}

func sortMarkdown(view sortView) string {
	var b strings.Builder
	b.WriteString("# Load order\n\n")
	items := make([]string, len(view.Order))
	for i, id := range view.Order {
		items[i] = "`" + id + "`"
	}
	markdownList(&b, items)
	if !view.Changed {
		b.WriteString("The load order is already sorted.\n\n")
	}
	b.WriteString(issue.Markdown(view.Issues))
	return b.String()
}

func joinIDs(ids []modmeta.PackageID) string {
	return "{" + strings.Join(idStrings(ids), ", ") + "}"
}
