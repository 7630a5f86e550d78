package config

import "time"

// Config represents the complete fabctl configuration.
type Config struct {
	Service      ServiceConfig       `yaml:"service"`
	Fabric       FabricConfig        `yaml:"fabric"`
	Environments []EnvironmentConfig `yaml:"environments,omitempty"`
	Settings     SettingsConfig      `yaml:"settings"`
	Sync         SyncConfig          `yaml:"sync"`
}

// ServiceConfig defines core client settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// FabricConfig defines how to reach the Fabric REST API.
type FabricConfig struct {
	BaseURL string            `yaml:"base_url"`
	Timeout time.Duration     `yaml:"timeout"`
	Token   TokenSourceConfig `yaml:"token"`
}

// TokenSourceConfig defines where the bearer token comes from. Token
// acquisition itself is out of scope; fabctl only reads an opaque string.
type TokenSourceConfig struct {
	// Kind is one of "env", "file", "command", "static".
	Kind    string `yaml:"kind"`
	Env     string `yaml:"env,omitempty"`
	File    string `yaml:"file,omitempty"`
	Command string `yaml:"command,omitempty"`
	Static  string `yaml:"static,omitempty"`
}

// EnvironmentConfig names a Fabric environment (tenant) shown at the tree
// root. At most one environment is marked default.
type EnvironmentConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url,omitempty"`
	Default bool   `yaml:"default,omitempty"`
}

// SettingsConfig defines where persisted UI settings live.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// SyncConfig defines local definition sync settings.
type SyncConfig struct {
	// Root is the default directory under which item definitions are
	// materialized. Per-item overrides live in the settings store.
	Root string `yaml:"root"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "fabctl",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Fabric: FabricConfig{
			BaseURL: "https://api.fabric.microsoft.com",
			Timeout: 100 * time.Second,
			Token: TokenSourceConfig{
				Kind: "env",
				Env:  "FABRIC_TOKEN",
			},
		},
		Environments: []EnvironmentConfig{
			{Name: "default", Default: true},
		},
		Settings: SettingsConfig{
			Path: "./data/fabctl.db",
		},
		Sync: SyncConfig{
			Root: "./fabric",
		},
	}
}
