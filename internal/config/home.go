package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// appDirName is the directory under the user config dir holding builder state
const appDirName = "personal-cli-builder"

// GetBuilderHome returns the builder home directory
// Priority order:
//  1. BUILDER_HOME environment variable (if set)
//  2. <user config dir>/personal-cli-builder
//
// The directory is created if it doesn't exist
func GetBuilderHome() (string, error) {
	home := os.Getenv("BUILDER_HOME")
	if home == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("locate user config directory: %w", err)
		}
		home = filepath.Join(configDir, appDirName)
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create builder home directory: %w", err)
	}
	return home, nil
}

// GetConfigPath returns the config file location inside home
func GetConfigPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetLogDir returns the run log directory. A relative log_dir is resolved
// against home; an empty one means <home>/logs.
func GetLogDir(home string, cfg *Config) string {
	if cfg == nil || cfg.LogDir == "" {
		return filepath.Join(home, "logs")
	}
	if filepath.IsAbs(cfg.LogDir) {
		return cfg.LogDir
	}
	return filepath.Join(home, cfg.LogDir)
}

// GetStorePath returns the data file for the configured store backend.
// An explicit store.path wins; relative paths are resolved against home.
func GetStorePath(home string, store StoreConfig) string {
	if store.Path != "" {
		if filepath.IsAbs(store.Path) {
			return store.Path
		}
		return filepath.Join(home, store.Path)
	}
	if store.Backend == BackendSQLite {
		return filepath.Join(home, "builds.db")
	}
	return filepath.Join(home, "builds.yaml")
}
