// SPDX-License-Identifier: MPL-2.0

// Package issue defines the diagnostics produced while scanning and resolving a
// mod list, and the actionable error type used for failures at the boundary
// (configuration, ModsConfig.xml, game directory).
//
// Diagnostics (Issue) are pure output: producing one never changes state and
// never aborts a scan or a resolution. ActionableError is reserved for the few
// conditions that stop a command outright.
package issue
