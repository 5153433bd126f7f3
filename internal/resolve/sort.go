// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"strings"

	"github.com/modweave/modweave/pkg/modmeta"
)

// CycleReport is returned by Sort when the constraints cannot all be met.
type CycleReport struct {
	// Cycles lists the members of each strongly connected component with more
	// than one mod, in preferred order.
	Cycles [][]modmeta.PackageID
}

// Error implements the error interface.
func (r *CycleReport) Error() string {
	parts := make([]string, len(r.Cycles))
	for i, c := range r.Cycles {
		names := make([]string, len(c))
		for j, id := range c {
			names[j] = id.String()
		}
		parts[i] = "{" + strings.Join(names, ", ") + "}"
	}
	return fmt.Sprintf("%d load order cycle(s): %s", len(r.Cycles), strings.Join(parts, " "))
}

// Sort returns the graph's nodes in an order that respects every edge. When
// several mods are free to go next the one earliest in the preferred order
// goes first, so an order that is already valid comes back unchanged. If the
// graph has cycles Sort returns a *CycleReport and no order.
func Sort(g *Graph) ([]modmeta.PackageID, error) {
	order, report := g.Arrange()
	if report != nil {
		return nil, report
	}
	return order, nil
}

// Arrange orders the graph even when it has cycles, in one pass. Inside a
// cycle only the rules pointing back to an earlier mod in the preferred order
// are ignored, so the cycle members keep their previous relative order where
// the remaining rules allow it and mods outside cycles are not moved toward
// them. The report is nil when the graph is acyclic.
func (g *Graph) Arrange() ([]modmeta.PackageID, *CycleReport) {
	order, cycles := g.g.Order()
	if len(cycles) > 0 {
		return toIDs(order), newCycleReport(cycles)
	}
	return toIDs(order), nil
}

func newCycleReport(cycles [][]string) *CycleReport {
	r := &CycleReport{Cycles: make([][]modmeta.PackageID, len(cycles))}
	for i, c := range cycles {
		r.Cycles[i] = toIDs(c)
	}
	return r
}
