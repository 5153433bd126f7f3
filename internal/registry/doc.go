// SPDX-License-Identifier: MPL-2.0

// Package registry builds the catalog of installed mods.
//
// A scan starts from a list of roots (the game's Data folder, local mod folders,
// the workshop content folder). Every immediate subdirectory of a root is a
// candidate Location. Build loads all locations with a bounded worker pool,
// records one ParseFailure per unreadable location, resolves duplicate package
// ids with a Precedence policy, and returns an immutable Registry.
package registry
