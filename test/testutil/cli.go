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


package testutil

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
)

var (
	buildOnce sync.Once
	binary    string
	buildErr  error
)

// BuildBinary compiles cmd/crashcache once per test run and returns its path.
func BuildBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		// Outlives any single test's TempDir.
		dir, err := os.MkdirTemp("", "crashcache-test")
		if err != nil {
			buildErr = err
			return
		}
		root, err := moduleRoot()
		if err != nil {
			buildErr = err
			return
		}
		binary = filepath.Join(dir, "crashcache")
		cmd := exec.Command("go", "build", "-o", binary, "./cmd/crashcache")
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = errors.New(err.Error() + ": " + string(out))
		}
	})

	if buildErr != nil {
		t.Fatalf("build crashcache: %v", buildErr)
	}
	return binary
}

// CLIResult is the outcome of one crashcache invocation. Signal is set when
// the process was killed by a signal; ExitCode is then -1.
type CLIResult struct {
	ExitCode int
	Signal   syscall.Signal
	Stdout   string
	Stderr   string
	Err      error
}

// waitStatus is implemented by syscall.WaitStatus on every platform.
type waitStatus interface {
	Signaled() bool
	Signal() syscall.Signal
}

// RunCLI runs the crashcache binary with args, feeding stdin to it.
func RunCLI(t *testing.T, stdin string, args ...string) CLIResult {
	t.Helper()

	cmd := exec.Command(BuildBinary(t), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := CLIResult{Err: cmd.Run()}
	res.Stdout, res.Stderr = stdout.String(), stderr.String()

	var exitErr *exec.ExitError
	switch {
	case errors.As(res.Err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(waitStatus); ok && ws.Signaled() {
			res.Signal = ws.Signal()
		}
	case res.Err != nil:
		res.ExitCode = -1
	}
	return res
}

// AssertCLISuccess fails the test unless the command exited 0.
func AssertCLISuccess(t *testing.T, res CLIResult) {
	t.Helper()
	if res.Err != nil {
		t.Fatalf("command failed: %v\nstderr: %s", res.Err, res.Stderr)
	}
}

// AssertCLIError fails the test unless the command failed with msg on stderr.
func AssertCLIError(t *testing.T, res CLIResult, msg string) {
	t.Helper()
	if res.Err == nil {
		t.Fatal("command succeeded, want failure")
	}
	if msg != "" && !strings.Contains(res.Stderr, msg) {
		t.Errorf("stderr does not contain %q: %s", msg, res.Stderr)
	}
}

// AssertExitCode fails the test unless the command exited with want.
func AssertExitCode(t *testing.T, res CLIResult, want int) {
	t.Helper()
	if res.ExitCode != want {
		t.Errorf("exit code = %d, want %d\nstderr: %s", res.ExitCode, want, res.Stderr)
	}
}

// AssertSignaled fails the test unless the command was killed by sig.
func AssertSignaled(t *testing.T, res CLIResult, sig syscall.Signal) {
	t.Helper()
	if res.Signal != sig {
		t.Fatalf("process ended with exit code %d signal %v, want death by %v\nstdout: %s\nstderr: %s",
			res.ExitCode, res.Signal, sig, res.Stdout, res.Stderr)
	}
}

// moduleRoot walks up from the working directory to the directory holding go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
