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

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/crashcache/internal/config"
	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
	"github.com/sirseerhq/crashcache/internal/logging"
)

var version = "dev"

func main() {
	rootCmd := newRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "crashcache",
		Short: "Keep client state ready to persist when the process crashes",
		Long: `crashcache keeps a small JSON document of client state (breadcrumbs,
context, metadata and user) serialized in a fixed buffer at all times, so a
fatal signal can write it to disk without allocating. The next launch can
inspect or recover what the crashed process left behind.`,
		Version:       version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Configuration file (default: .crashcache.yaml or ~/.crashcache/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", cacheerrors.ErrInvalidConfig, err)
	})

	rootCmd.AddCommand(
		newRunCommand(g),
		newInspectCommand(g),
		newWatchCommand(g),
		newRecoverCommand(g),
	)
	return rootCmd
}

// setup loads and validates the configuration, applies command-specific
// overrides, and installs the logger as the slog default.
func (g *globalOptions) setup(cmd *cobra.Command, override func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cacheerrors.ErrInvalidConfig, err)
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cacheerrors.ErrInvalidConfig, err)
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := newLogger(cmd.ErrOrStderr(), level)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	if f, ok := w.(*os.File); ok {
		return logging.New(f, level)
	}
	return logging.NewWriter(w, level)
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", cacheerrors.ErrInvalidConfig, err)
		}
		return nil
	}
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, cacheerrors.ErrInvalidConfig) {
		return 2 // Configuration/usage errors
	}

	if errors.Is(err, cacheerrors.ErrSnapshotNotFound) ||
		errors.Is(err, cacheerrors.ErrSnapshotCorrupt) {
		return 3 // Snapshot errors
	}

	return 1 // General error
}
