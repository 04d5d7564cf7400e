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
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
	"github.com/sirseerhq/crashcache/test/testutil"
)

// execute runs the root command in-process with an empty config file.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(context.Background(), t, stdin, args...)
}

func executeContext(ctx context.Context, t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	rootCmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", testutil.EmptyConfig(t)}, args...))

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"config error", fmt.Errorf("%w: bad", cacheerrors.ErrInvalidConfig), 2},
		{"snapshot missing", fmt.Errorf("load: %w", cacheerrors.ErrSnapshotNotFound), 3},
		{"snapshot corrupt", fmt.Errorf("load: %w", cacheerrors.ErrSnapshotCorrupt), 3},
		{"not installed", cacheerrors.ErrNotInstalled, 1},
		{"generic error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorToExitCode(tt.err); got != tt.want {
				t.Errorf("mapErrorToExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"run", "--bogus"}},
		{"unexpected argument", []string{"run", "extra"}},
		{"too many breadcrumbs", []string{"run", "--max-breadcrumbs", "300"}},
		{"buffer too large", []string{"run", "--buffer-bytes", "2000000"}},
		{"unknown signal", []string{"run", "--signal", "SIGNOPE"}},
		{"bad log level", []string{"--log-level", "chatty", "inspect", "x.json"}},
		{"inspect without file", []string{"inspect"}},
		{"recover with two files", []string{"recover", "a.json", "b.json"}},
		{"bad duration", []string{"run", "--checkpoint-interval", "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := mapErrorToExitCode(err); code != 2 {
				t.Errorf("exit code = %d, want 2 (err: %v)", code, err)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "", "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(stdout, version) {
		t.Errorf("version output = %q, want it to contain %q", stdout, version)
	}
}
