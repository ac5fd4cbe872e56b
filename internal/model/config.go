package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// RemoteConfig holds settings for the remote document sync.
type RemoteConfig struct {
	// DocumentName is the display name of the remote spreadsheet document.
	DocumentName string `mapstructure:"document_name" yaml:"document_name"`

	// Enabled controls whether sync operations run at all.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DatabaseConfig holds the local persistence settings.
type DatabaseConfig struct {
	// Path is the SQLite database file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// DisplayConfig holds pure display toggles consumed by the presentation
// layer. The core only loads and saves these.
type DisplayConfig struct {
	// ShowInsights toggles the statistics summary printed after
	// mutation commands.
	ShowInsights bool `mapstructure:"show_insights" yaml:"show_insights"`

	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Remote   RemoteConfig   `mapstructure:"remote" yaml:"remote"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// ConfigDir returns the application configuration directory,
// ~/.config/habitlog.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "habitlog")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Remote: RemoteConfig{
			DocumentName: "Habit Log Data",
			Enabled:      true,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(ConfigDir(), "habitlog.db"),
		},
		Display: DisplayConfig{},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("remote.document_name", "Habit Log Data")
	v.SetDefault("remote.enabled", true)
	v.SetDefault("database.path", filepath.Join(ConfigDir(), "habitlog.db"))
	v.SetDefault("display.show_insights", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("remote", cfg.Remote)
	v.Set("database", cfg.Database)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
