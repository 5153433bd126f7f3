// SPDX-License-Identifier: MPL-2.0

// Package config handles modweave configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/modweave/config.cue (or $XDG_CONFIG_HOME on Linux,
// ~/Library/Application Support/modweave/config.cue on macOS, %APPDATA%\modweave\config.cue
// on Windows), or from modweave.cue in the working directory. MODWEAVE_* environment
// variables override file values (MODWEAVE_GAME_DIR, MODWEAVE_WORKERS, ...).
//
// Files are validated against an embedded CUE schema (config_schema.cue) before being
// merged into Viper, so type errors are reported with the offending field path.
package config
