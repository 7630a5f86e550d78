package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file. Missing fields fall back
// to Defaults(); ${VAR} references in the file are expanded from the
// environment before parsing.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", absPath, err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DiscoverConfigPath finds the config file by checking standard locations.
// Priority order: $FABCTL_CONFIG, ~/.config/fabctl/config.yaml, ./fabctl.yaml.
func DiscoverConfigPath() (string, error) {
	if p := os.Getenv("FABCTL_CONFIG"); p != "" {
		return p, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "fabctl", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if _, err := os.Stat("fabctl.yaml"); err == nil {
		return "fabctl.yaml", nil
	}

	return "", fmt.Errorf("no config file found\n" +
		"Hint: Set FABCTL_CONFIG or create ~/.config/fabctl/config.yaml")
}

// expandEnvVars replaces ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// applyDefaults backfills zero values left by partial config files.
func applyDefaults(cfg *Config) {
	def := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = def.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = def.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = def.Service.LogFormat
	}
	if cfg.Fabric.BaseURL == "" {
		cfg.Fabric.BaseURL = def.Fabric.BaseURL
	}
	if cfg.Fabric.Timeout <= 0 {
		cfg.Fabric.Timeout = def.Fabric.Timeout
	}
	if cfg.Fabric.Token.Kind == "" {
		cfg.Fabric.Token = def.Fabric.Token
	}
	if len(cfg.Environments) == 0 {
		cfg.Environments = def.Environments
	}
	if cfg.Settings.Path == "" {
		cfg.Settings.Path = def.Settings.Path
	}
	if cfg.Sync.Root == "" {
		cfg.Sync.Root = def.Sync.Root
	}
}

// validate checks structural invariants of the merged config.
func validate(cfg *Config) error {
	if !strings.HasPrefix(cfg.Fabric.BaseURL, "http://") && !strings.HasPrefix(cfg.Fabric.BaseURL, "https://") {
		return fmt.Errorf("fabric.base_url must be an http(s) URL, got %q", cfg.Fabric.BaseURL)
	}
	if cfg.Fabric.Timeout < time.Second {
		return fmt.Errorf("fabric.timeout must be at least 1s, got %s", cfg.Fabric.Timeout)
	}

	switch cfg.Fabric.Token.Kind {
	case "env":
		if cfg.Fabric.Token.Env == "" {
			return fmt.Errorf("fabric.token.env is required when kind is %q", "env")
		}
	case "file":
		if cfg.Fabric.Token.File == "" {
			return fmt.Errorf("fabric.token.file is required when kind is %q", "file")
		}
	case "command":
		if cfg.Fabric.Token.Command == "" {
			return fmt.Errorf("fabric.token.command is required when kind is %q", "command")
		}
	case "static":
		if cfg.Fabric.Token.Static == "" {
			return fmt.Errorf("fabric.token.static is required when kind is %q", "static")
		}
	default:
		return fmt.Errorf("fabric.token.kind must be one of env, file, command, static; got %q", cfg.Fabric.Token.Kind)
	}

	defaults := 0
	seen := make(map[string]bool, len(cfg.Environments))
	for i, env := range cfg.Environments {
		if env.Name == "" {
			return fmt.Errorf("environments[%d]: name is required", i)
		}
		if seen[env.Name] {
			return fmt.Errorf("environments[%d]: duplicate name %q", i, env.Name)
		}
		seen[env.Name] = true
		if env.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("at most one environment may be marked default, got %d", defaults)
	}

	return nil
}

// DefaultEnvironment returns the environment marked default, or the first one.
func (c *Config) DefaultEnvironment() EnvironmentConfig {
	for _, env := range c.Environments {
		if env.Default {
			return env
		}
	}
	if len(c.Environments) > 0 {
		return c.Environments[0]
	}
	return EnvironmentConfig{Name: "default", Default: true}
}

// EnvironmentBaseURL resolves the API base URL for env, falling back to the
// top-level fabric.base_url.
func (c *Config) EnvironmentBaseURL(env EnvironmentConfig) string {
	if env.BaseURL != "" {
		return env.BaseURL
	}
	return c.Fabric.BaseURL
}
