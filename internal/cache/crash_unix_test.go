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

//go:build unix

package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

const crashHelperEnv = "CRASHCACHE_CRASH_HELPER_PATH"

// Exit codes the helper uses when the signal did not terminate it.
const (
	helperInstallFailed = 3
	helperSurvived      = 4
)

// TestCrashHelperProcess is re-executed by TestCrash_PersistsLastState. It
// installs a cache, records four breadcrumbs and aborts itself.
func TestCrashHelperProcess(t *testing.T) {
	path := os.Getenv(crashHelperEnv)
	if path == "" {
		t.Skip("helper process")
	}

	c := &Controller{}
	err := c.Install(Options{
		Path:           path,
		MaxBreadcrumbs: 3,
		Signals:        []os.Signal{syscall.SIGABRT},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		os.Exit(helperInstallFailed)
	}
	for _, name := range []string{"A", "B", "C", "D"} {
		if err := c.AddBreadcrumb(fmt.Sprintf(`{"name":%q}`, name)); err != nil {
			os.Exit(helperInstallFailed)
		}
	}

	_ = unix.Kill(unix.Getpid(), unix.SIGABRT)
	time.Sleep(10 * time.Second)
	os.Exit(helperSurvived)
}

func TestCrash_PersistsLastState(t *testing.T) {
	if os.Getenv(crashHelperEnv) != "" {
		t.Skip("inside helper process")
	}
	path := filepath.Join(t.TempDir(), "crash.json")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=^TestCrashHelperProcess$")
	cmd.Env = append(os.Environ(), crashHelperEnv+"="+path)
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("helper should terminate abnormally, got err=%v\n%s", err, out)
	}
	switch exitErr.ExitCode() {
	case helperInstallFailed:
		t.Fatalf("helper failed to install cache\n%s", out)
	case helperSurvived:
		t.Fatalf("helper survived its own SIGABRT\n%s", out)
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		t.Fatalf("unexpected exit status type %T", exitErr.Sys())
	}
	if !status.Signaled() {
		t.Fatalf("helper exited with code %d, want death by SIGABRT\n%s", status.ExitStatus(), out)
	}
	if status.Signal() != syscall.SIGABRT {
		t.Errorf("helper died by %v, want SIGABRT", status.Signal())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("crash file not written: %v\n%s", err, out)
	}
	doc := decodeJSON(t, data).(map[string]any)
	if got := breadcrumbNames(t, doc); !reflect.DeepEqual(got, []string{"B", "C", "D"}) {
		t.Errorf("breadcrumbs = %v, want [B C D]", got)
	}
	for _, key := range []string{"metadata", "user"} {
		if _, ok := doc[key].(map[string]any); !ok {
			t.Errorf("%s missing from crash file: %s", key, data)
		}
	}
}
