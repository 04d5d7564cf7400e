// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for crashcache with
// a well-defined precedence order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sirseerhq/crashcache/internal/crashpath"
	"github.com/sirseerhq/crashcache/internal/logging"
)

// maxBufferBytes mirrors the cache frame size limit.
const maxBufferBytes = 1 << 20

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .crashcache.yaml (current directory)
//   - .crashcache.yml (current directory)
//   - ~/.crashcache/config.yaml
//   - ~/.crashcache/config.yml
//
// Environment variables are applied after loading the config file. Path
// expansion (~ and environment variables) is performed on the cache path.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".crashcache.yaml",
			".crashcache.yml",
			filepath.Join(os.Getenv("HOME"), ".crashcache", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".crashcache", "config.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Cache.Path = expandPath(cfg.Cache.Path)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
// Malformed numeric and duration values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	if path := os.Getenv("CRASHCACHE_PATH"); path != "" {
		cfg.Cache.Path = path
	}
	if crumbs := os.Getenv("CRASHCACHE_MAX_BREADCRUMBS"); crumbs != "" {
		n, err := parseNonNegativeInt(crumbs)
		if err != nil {
			return fmt.Errorf("CRASHCACHE_MAX_BREADCRUMBS: %w", err)
		}
		cfg.Cache.MaxBreadcrumbs = n
	}
	if size := os.Getenv("CRASHCACHE_BUFFER_BYTES"); size != "" {
		n, err := parsePositiveInt(size)
		if err != nil {
			return fmt.Errorf("CRASHCACHE_BUFFER_BYTES: %w", err)
		}
		cfg.Cache.BufferBytes = n
	}
	if locked := os.Getenv("CRASHCACHE_LOCKED_MEMORY"); locked != "" {
		cfg.Cache.LockedMemory = parseBool(locked)
	}
	if interval := os.Getenv("CRASHCACHE_CHECKPOINT_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("CRASHCACHE_CHECKPOINT_INTERVAL: %w", err)
		}
		cfg.Checkpoint.Interval = d
	}
	if level := os.Getenv("CRASHCACHE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	i, err := parseNonNegativeInt(s)
	if err != nil {
		return 0, err
	}
	if i == 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// parseNonNegativeInt parses a string to an integer >= 0
func parseNonNegativeInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i < 0 {
		return 0, fmt.Errorf("value must not be negative, got: %d", i)
	}
	return i, nil
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// Signals returns the configured crash signals, or the default set when
// none are configured.
func (c *Config) Signals() ([]os.Signal, error) {
	return crashpath.ParseSignals(c.Crash.Signals)
}

// Validate checks if the configuration contains valid values. It should be
// called after loading configuration and applying flags to catch invalid
// settings before the cache is installed.
func (c *Config) Validate() error {
	if c.Cache.Path == "" {
		return fmt.Errorf("cache path cannot be empty")
	}
	if c.Cache.MaxBreadcrumbs < 0 || c.Cache.MaxBreadcrumbs > 255 {
		return fmt.Errorf("max breadcrumbs must be between 0 and 255, got: %d", c.Cache.MaxBreadcrumbs)
	}
	if c.Cache.BufferBytes <= 0 || c.Cache.BufferBytes > maxBufferBytes {
		return fmt.Errorf("buffer bytes must be between 1 and %d, got: %d", maxBufferBytes, c.Cache.BufferBytes)
	}
	if c.Checkpoint.Interval < 0 {
		return fmt.Errorf("checkpoint interval must not be negative, got: %s", c.Checkpoint.Interval)
	}
	if _, err := c.Signals(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
