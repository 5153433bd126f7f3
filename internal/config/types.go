// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

const (
	// DuplicatePreferLocal keeps local copies over workshop subscriptions.
	DuplicatePreferLocal DuplicatePolicy = "prefer_local"
	// DuplicatePreferSubscribed keeps workshop subscriptions over local copies.
	DuplicatePreferSubscribed DuplicatePolicy = "prefer_subscribed"

	// LogLevelDebug logs scan and resolution details.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs progress and duplicate decisions.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs skipped mods and cycles only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"

	// DefaultWorkers is the default loader pool size.
	DefaultWorkers = 8

	// WorkshopAppID is the game's Steam application id.
	WorkshopAppID = "294100"
)

var (
	// ErrInvalidDuplicatePolicy is the sentinel error wrapped by InvalidDuplicatePolicyError.
	ErrInvalidDuplicatePolicy = errors.New("invalid duplicate policy")
	// ErrInvalidLogLevel is the sentinel error wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// DuplicatePolicy selects which installation wins when a package id is found twice.
	DuplicatePolicy string

	// InvalidDuplicatePolicyError is returned when a DuplicatePolicy value is not recognized.
	InvalidDuplicatePolicyError struct {
		Value DuplicatePolicy
	}

	// LogLevel is the minimum level written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects field-level validation errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the effective modweave configuration.
	Config struct {
		// GameDir is the game installation folder. Defaults to
		// <steam_dir>/steamapps/common/RimWorld.
		GameDir string `json:"game_dir" mapstructure:"game_dir"`
		// ModsConfigPath is the path of ModsConfig.xml.
		ModsConfigPath string `json:"mods_config_path" mapstructure:"mods_config_path"`
		// SteamDir is the Steam installation folder.
		SteamDir string `json:"steam_dir" mapstructure:"steam_dir"`
		// WorkshopDir holds subscribed mods. Defaults to
		// <steam_dir>/steamapps/workshop/content/294100.
		WorkshopDir string `json:"workshop_dir" mapstructure:"workshop_dir"`
		// ModDirs are extra local mod folders.
		ModDirs []string `json:"mod_dirs" mapstructure:"mod_dirs"`
		// RuleFiles are TOML rule databases applied in order.
		RuleFiles []string `json:"rule_files" mapstructure:"rule_files"`
		// Workers bounds concurrent descriptor parsing.
		Workers int `json:"workers" mapstructure:"workers"`
		// GameVersion overrides Version.txt when set.
		GameVersion string `json:"game_version" mapstructure:"game_version"`
		// DuplicatePolicy chooses between local and subscribed copies.
		DuplicatePolicy DuplicatePolicy `json:"duplicate_policy" mapstructure:"duplicate_policy"`
		// LogLevel is the minimum log level.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
	}
)

// Error implements the error interface.
func (e *InvalidDuplicatePolicyError) Error() string {
	return fmt.Sprintf("invalid duplicate policy %q (valid: prefer_local, prefer_subscribed)", e.Value)
}

// Unwrap returns ErrInvalidDuplicatePolicy for errors.Is() compatibility.
func (e *InvalidDuplicatePolicyError) Unwrap() error { return ErrInvalidDuplicatePolicy }

// String returns the string representation of the DuplicatePolicy.
func (p DuplicatePolicy) String() string { return string(p) }

// IsValid returns whether the DuplicatePolicy is one of the defined policies.
func (p DuplicatePolicy) IsValid() (bool, []error) {
	switch p {
	case DuplicatePreferLocal, DuplicatePreferSubscribed:
		return true, nil
	default:
		return false, []error{&InvalidDuplicatePolicyError{Value: p}}
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts the LogLevel to a charmbracelet/log level. Unknown values map
// to warn.
func (l LogLevel) Level() log.Level {
	switch l {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelInfo:
		return log.InfoLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid checks the constraints of every field.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.DuplicatePolicy.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.LogLevel.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the configuration used when no file is present.
// GameDir and WorkshopDir are left empty and derived from SteamDir at load time.
func DefaultConfig() *Config {
	return &Config{
		ModsConfigPath:  DefaultModsConfigPath(),
		SteamDir:        DefaultSteamDir(),
		ModDirs:         []string{},
		RuleFiles:       []string{},
		Workers:         DefaultWorkers,
		DuplicatePolicy: DuplicatePreferLocal,
		LogLevel:        LogLevelWarn,
	}
}

// DefaultModsConfigPath returns where the game keeps ModsConfig.xml on this platform.
func DefaultModsConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "LocalLow", "Ludeon Studios", "RimWorld by Ludeon Studios", "Config", "ModsConfig.xml")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "RimWorld", "Config", "ModsConfig.xml")
	default:
		return filepath.Join(home, ".config", "unity3d", "Ludeon Studios", "RimWorld by Ludeon Studios", "Config", "ModsConfig.xml")
	}
}

// DefaultSteamDir returns the usual Steam installation folder on this platform.
func DefaultSteamDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join("C:\\", "Program Files (x86)", "Steam")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "Steam")
	}
	return filepath.Join(home, ".local", "share", "Steam")
}

// deriveSteamPaths fills GameDir and WorkshopDir from SteamDir when unset.
func (c *Config) deriveSteamPaths() {
	if c.SteamDir == "" {
		return
	}
	if c.GameDir == "" {
		c.GameDir = filepath.Join(c.SteamDir, "steamapps", "common", "RimWorld")
	}
	if c.WorkshopDir == "" {
		c.WorkshopDir = filepath.Join(c.SteamDir, "steamapps", "workshop", "content", WorkshopAppID)
	}
}
