package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// StoreConfig selects where saved builds are persisted
type StoreConfig struct {
	// Backend is the persistence engine: "yaml" or "sqlite"
	Backend string `yaml:"backend"`

	// Path overrides the default data file inside the builder home
	Path string `yaml:"path"`
}

// Config represents builder configuration options
type Config struct {
	// LogLevel sets the file logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (empty = <home>/logs)
	LogDir string `yaml:"log_dir"`

	// ShowProgress enables the progress bar while copying
	ShowProgress bool `yaml:"show_progress"`

	// Store contains build store configuration
	Store StoreConfig `yaml:"store"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		LogDir:       "",
		ShowProgress: true,
		Store: StoreConfig{
			Backend: BackendYAML,
			Path:    "",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointer for show_progress so an explicit false is distinguishable
	type yamlConfig struct {
		LogLevel     string      `yaml:"log_level"`
		LogDir       string      `yaml:"log_dir"`
		ShowProgress *bool       `yaml:"show_progress"`
		Store        StoreConfig `yaml:"store"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.ShowProgress != nil {
		cfg.ShowProgress = *yamlCfg.ShowProgress
	}
	if yamlCfg.Store.Backend != "" {
		cfg.Store.Backend = yamlCfg.Store.Backend
	}
	if yamlCfg.Store.Path != "" {
		cfg.Store.Path = yamlCfg.Store.Path
	}

	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, storeBackend *string, noProgress *bool) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if storeBackend != nil {
		c.Store.Backend = *storeBackend
	}
	if noProgress != nil && *noProgress {
		c.ShowProgress = false
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	switch c.Store.Backend {
	case BackendYAML, BackendSQLite:
	default:
		return fmt.Errorf("invalid store.backend %q, must be one of: %s, %s", c.Store.Backend, BackendYAML, BackendSQLite)
	}

	return nil
}
