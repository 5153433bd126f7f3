// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modweave/modweave/internal/issue"
)

func newCheckCommand(app *App) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the active mod list",
		Long: `Check the active mod list for missing dependencies, incompatible pairs,
unsupported game versions, mods that are not installed and contradictory
load order rules. The list itself is not modified.

With --strict the command exits with status 1 when any error-level issue
is found, which makes it usable in scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.fail(cmd, runCheck(cmd, app, strict))
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 1 when error-level issues are found")
	return cmd
}

func runCheck(cmd *cobra.Command, app *App, strict bool) error {
	s, err := app.newSession(cmd.Context())
	if err != nil {
		return err
	}
	report, err := s.engine.Resolve(cmd.Context())
	if err != nil {
		return err
	}

	errs, warns := countSeverities(report.Issues)
	view := checkView{
		GameVersion: report.Snapshot.GameVersion.String(),
		Active:      len(report.Result.Order),
		Installed:   len(report.ActiveIDs()),
		Errors:      errs,
		Warnings:    warns,
		Issues:      report.Issues,
	}

	switch s.format {
	case FormatJSON, FormatYAML:
		err = writeStructured(app.stdout, s.format, view)
	case FormatMarkdown:
		err = app.writeMarkdown(issue.Markdown(view.Issues))
	default:
		_, _ = fmt.Fprintf(app.stdout, "%s %s\n\n",
			TitleStyle.Render("Mod list check"),
			SubtitleStyle.Render(fmt.Sprintf("(%d active, %d installed)", view.Active, view.Installed)))
		writeIssuesText(app.stdout, view.Issues, app.flags.verbose)
	}
	if err != nil {
		return err
	}
	if err := app.finish(s); err != nil {
		return err
	}

	if strict && issue.HasErrors(report.Issues) {
		return strictFailure(report.Issues, errs)
	}
	return nil
}

// strictFailure names the mods behind every error-level issue and suggests a
// fix per issue kind.
func strictFailure(issues []issue.Issue, errs int) error {
	ec := issue.NewErrorContext().WithOperation("validate active mod list")
	kinds := make(map[issue.Kind]bool)
	for _, is := range issues {
		if is.Severity() != issue.SeverityError {
			continue
		}
		ec.WithPackages(is.Packages...)
		kinds[is.Kind] = true
	}
	if kinds[issue.KindMissingDependency] {
		ec.WithSuggestion("Install and activate the missing dependencies")
	}
	if kinds[issue.KindIncompatiblePair] {
		ec.WithSuggestion("Deactivate one mod of each incompatible pair")
	}
	if kinds[issue.KindCycleDetected] {
		ec.WithSuggestion("Override one of the contradicting load order rules in a rule file")
	}
	if kinds[issue.KindParseFailure] {
		ec.WithSuggestion("Fix or remove the mods whose About.xml cannot be read")
	}
	return ec.Wrap(fmt.Errorf("%s found", plural(errs, "error"))).BuildError()
}
