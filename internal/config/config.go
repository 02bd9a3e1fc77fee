// Package config handles global configuration for depgraph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the depgraph configuration, stored in
// $XDG_CONFIG_HOME/depgraph/config.yml. Environment variables override
// file values for the API credentials.
type Config struct {
	S2APIKey       string `yaml:"s2_api_key,omitempty"`
	GeminiAPIKey   string `yaml:"gemini_api_key,omitempty"`
	CoreAPIKey     string `yaml:"core_api_key,omitempty"`
	UnpaywallEmail string `yaml:"unpaywall_email,omitempty"`
	CachePath      string `yaml:"cache_path,omitempty"`
	MaxDepth       int    `yaml:"max_depth,omitempty"`
	ListenAddr     string `yaml:"listen_addr,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "depgraph"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	// DefaultMaxDepth bounds graph expansion (root = 0).
	DefaultMaxDepth = 2
	// DefaultListenAddr is the default HTTP listen address.
	DefaultListenAddr = ":8080"
	// DefaultUnpaywallEmail is the contact address sent to Unpaywall
	// when none is configured.
	DefaultUnpaywallEmail = "research@example.com"
)

// Path returns the path to the config file. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/depgraph/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// DefaultCachePath returns the default content cache location,
// ~/.cache/depgraph/content.db (respecting XDG_CACHE_HOME).
func DefaultCachePath() string {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(ConfigDir, "content.db")
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, ConfigDir, "content.db")
}

// Load reads the configuration file, applies defaults, and lets
// environment variables override credentials. A missing file is not an
// error; it yields the defaults.
func Load() (*Config, error) {
	cfg := &Config{
		MaxDepth:       DefaultMaxDepth,
		ListenAddr:     DefaultListenAddr,
		UnpaywallEmail: DefaultUnpaywallEmail,
		CachePath:      DefaultCachePath(),
	}

	path := Path()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.CachePath != "" {
		cfg.CachePath = ExpandTilde(cfg.CachePath)
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}

	return cfg, nil
}

// applyEnv overrides credentials from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("S2_API_KEY"); v != "" {
		cfg.S2APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("CORE_API_KEY"); v != "" {
		cfg.CoreAPIKey = v
	}
	if v := os.Getenv("UNPAYWALL_EMAIL"); v != "" {
		cfg.UnpaywallEmail = v
	}
}

// Save writes the configuration file, creating its directory if needed.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ExpandTilde expands a leading ~ in a path to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
