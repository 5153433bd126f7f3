// SPDX-License-Identifier: MPL-2.0

// Package metrics records scan and resolution statistics in a private
// Prometheus registry that can be exported as a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/modweave/modweave/internal/issue"
	"github.com/modweave/modweave/internal/registry"
	"github.com/modweave/modweave/internal/resolve"
)

// Recorder owns one set of modweave metrics. All methods are safe on a nil
// receiver, which records nothing.
type Recorder struct {
	registry *prometheus.Registry

	descriptorLoads    *prometheus.CounterVec
	descriptorDuration prometheus.Histogram
	modsInstalled      prometheus.Gauge
	issues             *prometheus.CounterVec
	graphNodes         prometheus.Gauge
	graphEdges         prometheus.Gauge
	cycles             prometheus.Gauge
	resolveDuration    prometheus.Histogram
}

// New creates a Recorder with its metrics registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		descriptorLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modweave_descriptor_loads_total",
				Help: "Number of mod descriptors loaded, by source and result.",
			},
			[]string{"source", "result"},
		),
		descriptorDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "modweave_descriptor_load_duration_seconds",
				Help:    "Time taken to read and parse one mod descriptor.",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		modsInstalled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modweave_mods_installed",
				Help: "Number of distinct mods in the last scanned registry.",
			},
		),
		issues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modweave_issues_total",
				Help: "Number of diagnostics reported, by kind.",
			},
			[]string{"kind"},
		),
		graphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modweave_graph_nodes",
				Help: "Number of nodes in the last ordering graph.",
			},
		),
		graphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modweave_graph_edges",
				Help: "Number of edges in the last ordering graph.",
			},
		),
		cycles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modweave_graph_cycles",
				Help: "Number of cycles found in the last ordering graph.",
			},
		),
		resolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "modweave_resolve_duration_seconds",
				Help:    "Time taken to order and validate the active list.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	r.registry.MustRegister(
		r.descriptorLoads,
		r.descriptorDuration,
		r.modsInstalled,
		r.issues,
		r.graphNodes,
		r.graphEdges,
		r.cycles,
		r.resolveDuration,
	)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// ObserveLoad matches registry.Options.OnLoad.
func (r *Recorder) ObserveLoad(loc registry.Location, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.descriptorLoads.WithLabelValues(loc.Source.String(), result).Inc()
	r.descriptorDuration.Observe(elapsed.Seconds())
}

// ObserveRegistry records the size of a freshly built registry.
func (r *Recorder) ObserveRegistry(reg *registry.Registry) {
	if r == nil || reg == nil {
		return
	}
	r.modsInstalled.Set(float64(reg.Len()))
}

// ObserveIssues counts issues by kind.
func (r *Recorder) ObserveIssues(issues []issue.Issue) {
	if r == nil {
		return
	}
	for kind, n := range issue.CountByKind(issues) {
		r.issues.WithLabelValues(kind.String()).Add(float64(n))
	}
}

// ObserveResolution records graph size, cycles, issues and timing of one
// resolution.
func (r *Recorder) ObserveResolution(res *resolve.Result, elapsed time.Duration) {
	if r == nil || res == nil {
		return
	}
	r.graphNodes.Set(float64(res.Nodes))
	r.graphEdges.Set(float64(res.Edges))
	r.cycles.Set(float64(len(res.Cycles)))
	r.resolveDuration.Observe(elapsed.Seconds())
	r.ObserveIssues(res.Issues)
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
