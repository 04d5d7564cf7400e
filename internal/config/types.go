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

// Package config types define the configuration structures used by
// crashcache. They can be loaded from YAML configuration files, environment
// variables, or command-line flags.
package config

import "time"

// Config represents the complete configuration for crashcache.
type Config struct {
	Cache      CacheConfig      `yaml:"cache"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Crash      CrashConfig      `yaml:"crash"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CacheConfig controls the cached document and where it is persisted.
type CacheConfig struct {
	// Path is the file written on checkpoint and on crash.
	Path string `yaml:"path"`

	// MaxBreadcrumbs bounds the breadcrumb list (0-255).
	MaxBreadcrumbs int `yaml:"max_breadcrumbs"`

	// BufferBytes is the serialization capacity. The document can never
	// grow beyond it.
	BufferBytes int `yaml:"buffer_bytes"`

	// LockedMemory keeps the serialization frames in mlocked memory when
	// the memlock limit allows it.
	LockedMemory bool `yaml:"locked_memory"`
}

// CheckpointConfig controls periodic synchronous writes.
type CheckpointConfig struct {
	// Interval between checkpoints. Zero disables periodic checkpoints.
	Interval time.Duration `yaml:"interval"`
}

// CrashConfig controls the crash persistence path.
type CrashConfig struct {
	// Signals lists the fatal signals to persist on, e.g. "SIGSEGV" or
	// "abrt". Empty means the default set.
	Signals []string `yaml:"signals"`

	// PanicOnFault turns memory faults in the running goroutine into
	// recoverable panics so the panic guard can persist them.
	PanicOnFault bool `yaml:"panic_on_fault"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Path:           "~/.crashcache/state.json",
			MaxBreadcrumbs: 25,
			BufferBytes:    1 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
