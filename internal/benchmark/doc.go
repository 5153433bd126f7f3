// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation.
// They cover the hot paths of a modweave run:
//   - About.xml parsing
//   - rule file and configuration parsing
//   - registry construction with the parallel loader
//   - graph building, sorting and validation of large active lists
//   - the full scan then resolve pipeline
//
// To generate a profile, run:
//
//	go test -run=^$ -bench=. -cpuprofile=default.pgo ./internal/benchmark
package benchmark
