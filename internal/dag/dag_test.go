// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTopologicalSort_EmptyGraph(t *testing.T) {
	t.Parallel()
	order, err := New().TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Errorf("expected nil, got %v", order)
	}
}

func TestTopologicalSort_LinearChain(t *testing.T) {
	t.Parallel()
	g := New()
	// Inserted backwards so the edges, not insertion order, decide.
	g.AddNode("C")
	g.AddNode("B")
	g.AddNode("A")
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"A", "B", "C"}; !slices.Equal(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestTopologicalSort_Diamond(t *testing.T) {
	t.Parallel()
	g := New()
	for _, n := range []string{"D", "C", "B", "A"} {
		g.AddNode(n)
	}
	g.AddEdge("A", "B")
	g.AddEdge("A", "C")
	g.AddEdge("B", "D")
	g.AddEdge("C", "D")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// C was inserted before B, so it wins the tie.
	if want := []string{"A", "C", "B", "D"}; !slices.Equal(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestTopologicalSort_ValidOrderIsStable(t *testing.T) {
	t.Parallel()
	g := New()
	names := make([]string, 50)
	for i := range names {
		names[i] = fmt.Sprintf("mod%02d", i)
		g.AddNode(names[i])
	}
	// Every edge points forward in insertion order.
	for i := range names {
		for j := i + 3; j < len(names); j += 7 {
			g.AddEdge(names[i], names[j])
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(names, order); diff != "" {
		t.Errorf("valid order was changed (-want +got):\n%s", diff)
	}
}

func TestTopologicalSort_SimpleCycle(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("B", "A")

	_, err := g.TopologicalSort()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if diff := cmp.Diff([][]string{{"A", "B"}}, cycleErr.Cycles); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}
}

func TestAddEdge_SelfAndDuplicate(t *testing.T) {
	t.Parallel()
	g := New()
	if g.AddEdge("A", "A") {
		t.Error("self-edge should be ignored")
	}
	if !g.AddEdge("A", "B") {
		t.Error("first edge should be recorded")
	}
	if g.AddEdge("A", "B") {
		t.Error("duplicate edge should be ignored")
	}
	if diff := cmp.Diff([][2]string{{"A", "B"}}, g.Edges()); diff != "" {
		t.Errorf("Edges() mismatch (-want +got):\n%s", diff)
	}
	if g.EdgeCount() != 1 || !g.HasEdge("A", "B") || g.HasEdge("B", "A") || g.HasEdge("A", "Z") {
		t.Errorf("unexpected edges: count=%d", g.EdgeCount())
	}

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A", "B"}) {
		t.Errorf("expected [A B], got %v", order)
	}
}

func TestOrder_CycleWithDependent(t *testing.T) {
	t.Parallel()
	g := New()
	// Preferred order D, A, B, C; A -> B -> C -> A and C -> D.
	for _, n := range []string{"D", "A", "B", "C"} {
		g.AddNode(n)
	}
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")
	g.AddEdge("C", "A")
	g.AddEdge("C", "D")

	order, cycles := g.Order()
	if diff := cmp.Diff([][]string{{"A", "B", "C"}}, cycles); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}
	// The cycle keeps its relative order and D still follows it.
	if want := []string{"A", "B", "C", "D"}; !slices.Equal(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestOrder_CycleLeavesFreeNodesInPlace(t *testing.T) {
	t.Parallel()
	g := New()
	// Preferred order A, X, B, Y, C; A -> B -> C -> A, X and Y unconstrained.
	for _, n := range []string{"A", "X", "B", "Y", "C"} {
		g.AddNode(n)
	}
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")
	g.AddEdge("C", "A")

	order, cycles := g.Order()
	if diff := cmp.Diff([][]string{{"A", "B", "C"}}, cycles); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}
	if want := []string{"A", "X", "B", "Y", "C"}; !slices.Equal(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestOrder_MultipleCycles(t *testing.T) {
	t.Parallel()
	g := New()
	for _, n := range []string{"X", "Y", "P", "Q", "R", "S"} {
		g.AddNode(n)
	}
	g.AddEdge("P", "Q")
	g.AddEdge("Q", "P")
	g.AddEdge("S", "R")
	g.AddEdge("R", "S")
	g.AddEdge("Y", "X")

	order, cycles := g.Order()
	if diff := cmp.Diff([][]string{{"P", "Q"}, {"R", "S"}}, cycles); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}
	if want := []string{"Y", "X", "P", "Q", "R", "S"}; !slices.Equal(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
	if diff := cmp.Diff(cycles, g.Cycles()); diff != "" {
		t.Errorf("Cycles() disagrees with Order() (-want +got):\n%s", diff)
	}
}

func TestOrder_DeepChainDoesNotRecurse(t *testing.T) {
	t.Parallel()
	g := New()
	const n = 20000
	for i := range n - 1 {
		g.AddEdge(fmt.Sprint(i), fmt.Sprint(i+1))
	}
	g.AddEdge(fmt.Sprint(n-1), "0")

	order, cycles := g.Order()
	if len(order) != n {
		t.Fatalf("expected %d nodes, got %d", n, len(order))
	}
	if len(cycles) != 1 || len(cycles[0]) != n {
		t.Errorf("expected one cycle of %d nodes, got %d cycles", n, len(cycles))
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()
	err := &CycleError{Cycles: [][]string{{"A", "B"}, {"C", "D", "E"}}}
	expected := "ordering cycle detected: A -> B; C -> D -> E"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
	if !strings.Contains(err.Error(), "C -> D -> E") {
		t.Error("message should name every cycle")
	}
}
