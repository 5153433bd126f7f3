// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownMsg is markdown text meant for glamour rendering.
type MarkdownMsg string

var (
	render = glamour.Render

	guidance = map[Kind]MarkdownMsg{
		KindParseFailure: `The mod folder has no readable **About/About.xml**, or the file has no
` + "`packageId`" + `. The folder is ignored until the descriptor is fixed.
Re-download the mod or remove the stray folder.`,

		KindDuplicatePackage: `The same package id is installed more than once. Only one copy is used:
official content wins, then local mods, then workshop subscriptions.
Delete or unsubscribe the copy you do not want.`,

		KindNotInstalled: `The mod list names a package that is not installed. The game skips it.
It keeps its position in the list so re-installing it restores the old order.`,

		KindMissingDependency: `A mod requires another mod that is not active. Enable the dependency
(subscribe to it on the workshop if needed) or disable the dependent mod.`,

		KindIncompatiblePair: `Two active mods declare that they cannot be used together.
Disable one of them.`,

		KindVersionUnsupported: `The mod does not list the current game version under
` + "`supportedVersions`" + `. It may still work, but expect errors on load.`,

		KindCycleDetected: `The load-order rules of these mods contradict each other, so no order
satisfies all of them. The mods keep their previous relative order.
Add an override in a rule file to break the tie.`,
	}
)

// Guidance returns the markdown help text for a kind.
func (k Kind) Guidance() MarkdownMsg {
	return guidance[k]
}

// Markdown renders issues as a markdown report grouped by kind, each group
// followed by its guidance text.
func Markdown(issues []Issue) string {
	var b strings.Builder
	b.WriteString("# Mod list report\n\n")
	if len(issues) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	sorted := append([]Issue(nil), issues...)
	Sort(sorted)
	counts := CountByKind(sorted)

	var current Kind
	for _, is := range sorted {
		if is.Kind != current {
			if current != "" {
				writeGuidance(&b, current)
			}
			current = is.Kind
			fmt.Fprintf(&b, "## %s (%s, %d)\n\n", current, current.Severity(), counts[current])
		}
		b.WriteString("- ")
		b.WriteString(is.Message)
		if is.Path != "" {
			fmt.Fprintf(&b, " (`%s`)", is.Path)
		}
		b.WriteString("\n")
	}
	writeGuidance(&b, current)
	return b.String()
}

// Render renders the markdown report for issues through glamour with the
// given style ("dark", "light", "notty", or a path to a style file).
func Render(issues []Issue, stylePath string) (string, error) {
	return render(Markdown(issues), stylePath)
}

func writeGuidance(b *strings.Builder, k Kind) {
	if msg := k.Guidance(); msg != "" {
		b.WriteString("\n")
		for line := range strings.SplitSeq(string(msg), "\n") {
			b.WriteString("> ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}
