// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv, SetHomeDir),
// file operations (MustMkdirAll, MustWriteFile, MustReadFile), and fixture
// writers for mod folders, ModsConfig.xml and game installations (WriteMod,
// WriteModsConfig, WriteGame).
package testutil
