// SPDX-License-Identifier: MPL-2.0

// Package resolve turns a registry and an active list into a load order and a
// list of diagnostics.
//
// BuildGraph derives "loads before" edges between active, installed mods.
// Sort orders that graph, preferring the current active order whenever the
// constraints leave a choice, and reports cycles instead of guessing. Validate
// checks dependencies, incompatibilities and game versions without looking at
// order. Resolve combines the three and falls back to the previous relative
// order for mods caught in a cycle.
//
// Nothing in this package performs I/O or runs concurrently.
package resolve
