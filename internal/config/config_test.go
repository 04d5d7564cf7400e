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

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"
	"testing"
	"time"
)

// clearEnv unsets every override for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CRASHCACHE_PATH",
		"CRASHCACHE_MAX_BREADCRUMBS",
		"CRASHCACHE_BUFFER_BYTES",
		"CRASHCACHE_LOCKED_MEMORY",
		"CRASHCACHE_CHECKPOINT_INTERVAL",
		"CRASHCACHE_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Cache.Path != "~/.crashcache/state.json" {
		t.Errorf("Path = %s, want ~/.crashcache/state.json", cfg.Cache.Path)
	}
	if cfg.Cache.MaxBreadcrumbs != 25 {
		t.Errorf("MaxBreadcrumbs = %d, want 25", cfg.Cache.MaxBreadcrumbs)
	}
	if cfg.Cache.BufferBytes != 1<<20 {
		t.Errorf("BufferBytes = %d, want %d", cfg.Cache.BufferBytes, 1<<20)
	}
	if cfg.Cache.LockedMemory {
		t.Error("LockedMemory = true, want false")
	}
	if cfg.Checkpoint.Interval != 0 {
		t.Errorf("Interval = %s, want 0", cfg.Checkpoint.Interval)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %s, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
cache:
  path: /var/lib/app/crash.json
  max_breadcrumbs: 50
  buffer_bytes: 65536
  locked_memory: true

checkpoint:
  interval: 30s

crash:
  signals: [SIGSEGV, abrt]
  panic_on_fault: true

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Cache.Path != "/var/lib/app/crash.json" {
		t.Errorf("Path = %s, want /var/lib/app/crash.json", cfg.Cache.Path)
	}
	if cfg.Cache.MaxBreadcrumbs != 50 {
		t.Errorf("MaxBreadcrumbs = %d, want 50", cfg.Cache.MaxBreadcrumbs)
	}
	if cfg.Cache.BufferBytes != 65536 {
		t.Errorf("BufferBytes = %d, want 65536", cfg.Cache.BufferBytes)
	}
	if !cfg.Cache.LockedMemory {
		t.Error("LockedMemory = false, want true")
	}
	if cfg.Checkpoint.Interval != 30*time.Second {
		t.Errorf("Interval = %s, want 30s", cfg.Checkpoint.Interval)
	}
	if !cfg.Crash.PanicOnFault {
		t.Error("PanicOnFault = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %s, want debug", cfg.Logging.Level)
	}

	signals, err := cfg.Signals()
	if err != nil {
		t.Fatalf("Signals failed: %v", err)
	}
	want := []os.Signal{syscall.SIGSEGV, syscall.SIGABRT}
	if !reflect.DeepEqual(signals, want) {
		t.Errorf("Signals() = %v, want %v", signals, want)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("LoadConfig should fail for a missing explicit file")
	}

	bad := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("cache: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("LoadConfig should fail for malformed YAML")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CRASHCACHE_PATH", "/env/state.json")
	t.Setenv("CRASHCACHE_MAX_BREADCRUMBS", "0")
	t.Setenv("CRASHCACHE_BUFFER_BYTES", "4096")
	t.Setenv("CRASHCACHE_LOCKED_MEMORY", "yes")
	t.Setenv("CRASHCACHE_CHECKPOINT_INTERVAL", "250ms")
	t.Setenv("CRASHCACHE_LOG_LEVEL", "warn")

	// An explicit empty file keeps discovery from picking up stray configs.
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Cache.Path != "/env/state.json" {
		t.Errorf("Path = %s, want /env/state.json", cfg.Cache.Path)
	}
	if cfg.Cache.MaxBreadcrumbs != 0 {
		t.Errorf("MaxBreadcrumbs = %d, want 0", cfg.Cache.MaxBreadcrumbs)
	}
	if cfg.Cache.BufferBytes != 4096 {
		t.Errorf("BufferBytes = %d, want 4096", cfg.Cache.BufferBytes)
	}
	if !cfg.Cache.LockedMemory {
		t.Error("LockedMemory = false, want true")
	}
	if cfg.Checkpoint.Interval != 250*time.Millisecond {
		t.Errorf("Interval = %s, want 250ms", cfg.Checkpoint.Interval)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %s, want warn", cfg.Logging.Level)
	}
}

func TestEnvironmentOverrides_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"CRASHCACHE_MAX_BREADCRUMBS", "-3"},
		{"CRASHCACHE_MAX_BREADCRUMBS", "many"},
		{"CRASHCACHE_BUFFER_BYTES", "0"},
		{"CRASHCACHE_CHECKPOINT_INTERVAL", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.name, tt.value)
			configPath := filepath.Join(t.TempDir(), "empty.yaml")
			if err := os.WriteFile(configPath, nil, 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(configPath)
			if err == nil || !strings.Contains(err.Error(), tt.name) {
				t.Errorf("LoadConfig error = %v, want error naming %s", err, tt.name)
			}
		})
	}
}

func TestLoadConfig_ExpandsPath(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CRASHCACHE_PATH", "~/crash/state.json")

	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "crash", "state.json"); cfg.Cache.Path != want {
		t.Errorf("Path = %s, want %s", cfg.Cache.Path, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			modify:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "zero breadcrumbs",
			modify:  func(c *Config) { c.Cache.MaxBreadcrumbs = 0 },
			wantErr: "",
		},
		{
			name:    "empty path",
			modify:  func(c *Config) { c.Cache.Path = "" },
			wantErr: "cache path cannot be empty",
		},
		{
			name:    "too many breadcrumbs",
			modify:  func(c *Config) { c.Cache.MaxBreadcrumbs = 256 },
			wantErr: "between 0 and 255",
		},
		{
			name:    "negative breadcrumbs",
			modify:  func(c *Config) { c.Cache.MaxBreadcrumbs = -1 },
			wantErr: "between 0 and 255",
		},
		{
			name:    "buffer too large",
			modify:  func(c *Config) { c.Cache.BufferBytes = 1<<20 + 1 },
			wantErr: "buffer bytes must be between",
		},
		{
			name:    "zero buffer",
			modify:  func(c *Config) { c.Cache.BufferBytes = 0 },
			wantErr: "buffer bytes must be between",
		},
		{
			name:    "negative interval",
			modify:  func(c *Config) { c.Checkpoint.Interval = -time.Second },
			wantErr: "checkpoint interval",
		},
		{
			name:    "unknown signal",
			modify:  func(c *Config) { c.Crash.Signals = []string{"SIGNOPE"} },
			wantErr: "SIGNOPE",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Logging.Level = "chatty" },
			wantErr: "unknown log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() error = nil, want %s", tt.wantErr)
				} else if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Validate() error = %v, want containing %s", err, tt.wantErr)
				}
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%s) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"1", true},
		{"on", true},
		{"false", false},
		{"no", false},
		{"0", false},
		{"off", false},
		{"", false},
		{"random", false},
	}

	for _, tt := range tests {
		if got := parseBool(tt.input); got != tt.want {
			t.Errorf("parseBool(%s) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseInts(t *testing.T) {
	tests := []struct {
		input       string
		positive    int
		positiveErr bool
		nonNeg      int
		nonNegErr   bool
	}{
		{"50", 50, false, 50, false},
		{" 7 ", 7, false, 7, false},
		{"0", 0, true, 0, false},
		{"-1", 0, true, 0, true},
		{"abc", 0, true, 0, true},
		{"", 0, true, 0, true},
	}

	for _, tt := range tests {
		got, err := parsePositiveInt(tt.input)
		if (err != nil) != tt.positiveErr || got != tt.positive {
			t.Errorf("parsePositiveInt(%q) = %d, %v", tt.input, got, err)
		}
		got, err = parseNonNegativeInt(tt.input)
		if (err != nil) != tt.nonNegErr || got != tt.nonNeg {
			t.Errorf("parseNonNegativeInt(%q) = %d, %v", tt.input, got, err)
		}
	}
}
