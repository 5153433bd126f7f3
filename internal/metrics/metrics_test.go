// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/internal/registry"
	"github.com/modweave/modweave/internal/resolve"
	mwtestutil "github.com/modweave/modweave/internal/testutil"
	"github.com/modweave/modweave/pkg/modmeta"
)

func TestObserveLoad(t *testing.T) {
	t.Parallel()

	r := New()
	local := registry.Location{Path: "/mods/a", Source: registry.SourceLocal}
	subscribed := registry.Location{Path: "/ws/b", Source: registry.SourceSubscribed}

	r.ObserveLoad(local, time.Millisecond, nil)
	r.ObserveLoad(local, time.Millisecond, nil)
	r.ObserveLoad(subscribed, 2*time.Millisecond, errors.New("bad xml"))

	if got := testutil.ToFloat64(r.descriptorLoads.WithLabelValues("local", "ok")); got != 2 {
		t.Errorf("local ok loads = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.descriptorLoads.WithLabelValues("subscribed", "error")); got != 1 {
		t.Errorf("subscribed error loads = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(r.descriptorDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestObserveResolution(t *testing.T) {
	t.Parallel()

	r := New()
	res := &resolve.Result{
		Nodes:  5,
		Edges:  7,
		Cycles: [][]modmeta.PackageID{{modmeta.MustPackageID("a"), modmeta.MustPackageID("b")}},
		Issues: []issue.Issue{
			{Kind: issue.KindCycleDetected},
			{Kind: issue.KindNotInstalled},
			{Kind: issue.KindNotInstalled},
		},
	}
	r.ObserveResolution(res, 3*time.Millisecond)
	r.ObserveRegistry(registry.New(&registry.InstalledMod{Descriptor: &modmeta.Descriptor{ID: modmeta.MustPackageID("a")}}))

	checks := map[string]float64{
		"nodes":         testutil.ToFloat64(r.graphNodes),
		"edges":         testutil.ToFloat64(r.graphEdges),
		"cycles":        testutil.ToFloat64(r.cycles),
		"not installed": testutil.ToFloat64(r.issues.WithLabelValues(string(issue.KindNotInstalled))),
		"installed":     testutil.ToFloat64(r.modsInstalled),
	}
	want := map[string]float64{"nodes": 5, "edges": 7, "cycles": 1, "not installed": 2, "installed": 1}
	for name, got := range checks {
		if got != want[name] {
			t.Errorf("%s = %v, want %v", name, got, want[name])
		}
	}
}

func TestNilRecorder(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.ObserveLoad(registry.Location{}, time.Second, nil)
	r.ObserveIssues([]issue.Issue{{Kind: issue.KindParseFailure}})
	r.ObserveResolution(&resolve.Result{}, time.Second)
	r.ObserveRegistry(registry.New())
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("WriteTextfile() on nil = %v", err)
	}
	if n, err := testutil.GatherAndCount(r.Gatherer()); err != nil || n != 0 {
		t.Errorf("nil Gatherer() = %d metrics, %v", n, err)
	}
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveIssues([]issue.Issue{{Kind: issue.KindMissingDependency}})
	path := filepath.Join(t.TempDir(), "modweave.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	content := mwtestutil.MustReadFile(t, path)
	for _, want := range []string{
		"# TYPE modweave_issues_total counter",
		`modweave_issues_total{kind="` + string(issue.KindMissingDependency) + `"} 1`,
		"modweave_graph_nodes 0",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("textfile missing %q:\n%s", want, content)
		}
	}
}
