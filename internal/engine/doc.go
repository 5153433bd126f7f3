// SPDX-License-Identifier: MPL-2.0

// Package engine runs the scan then resolve pipeline behind every modweave
// command.
//
// An Engine turns a loaded configuration into scan roots, builds a fresh
// registry snapshot for each invocation, reads the active list from
// ModsConfig.xml and hands both to the resolver. Failures of the inputs
// themselves (missing game directory, unreadable active list, broken rule
// file) are returned as *issue.ActionableError; everything else is reported
// as issues inside the returned Report.
package engine
