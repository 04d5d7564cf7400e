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

package main

import (
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/sirseerhq/crashcache/test/testutil"
)

func TestCLI_CrashThenRecover(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	config := testutil.EmptyConfig(t)

	stdin := lines(
		`{"cmd":"breadcrumb","value":{"name":"A"}}`,
		`{"cmd":"breadcrumb","value":{"name":"B"}}`,
		`{"cmd":"breadcrumb","value":{"name":"C"}}`,
		`{"cmd":"breadcrumb","value":{"name":"D"}}`,
		`{"cmd":"metadata","tab":"device","key":"battery","value":{"level":80}}`,
		`{"cmd":"raise","signal":"SIGABRT"}`,
		`{"cmd":"breadcrumb","value":{"name":"never"}}`,
	)
	result := testutil.RunCLI(t, stdin,
		"--config", config, "run", "--path", path, "--max-breadcrumbs", "3")

	testutil.AssertSignaled(t, result, syscall.SIGABRT)
	acks := testutil.ParseNDJSON(t, result.Stdout)
	if len(acks) != 6 {
		t.Errorf("got %d acks, want 6:\n%s", len(acks), result.Stdout)
	}

	if got := testutil.BreadcrumbNames(t, path); !reflect.DeepEqual(got, []string{"B", "C", "D"}) {
		t.Fatalf("crash file breadcrumbs = %v, want [B C D]", got)
	}

	inspect := testutil.RunCLI(t, "", "--config", config, "inspect", path)
	testutil.AssertCLISuccess(t, inspect)
	if !strings.Contains(inspect.Stdout, "Metadata:     device (1)") {
		t.Errorf("inspect output:\n%s", inspect.Stdout)
	}

	archiveDir := filepath.Join(dir, "crashes")
	recovered := testutil.RunCLI(t, "", "--config", config, "recover", path, "--archive", archiveDir)
	testutil.AssertCLISuccess(t, recovered)
	testutil.AssertFileNotExists(t, path)

	again := testutil.RunCLI(t, "", "--config", config, "recover", path, "--archive", archiveDir)
	testutil.AssertExitCode(t, again, 3)
	testutil.AssertCLIError(t, again, "snapshot not found")
}

func TestCLI_CrashOnTerminationSignal(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}

	if runtime.GOOS != "linux" {
		t.Skip("the default action is only reinstalled on linux")
	}

	path := filepath.Join(t.TempDir(), "state.json")
	stdin := lines(
		`{"cmd":"breadcrumb","value":{"name":"A"}}`,
		`{"cmd":"raise","signal":"SIGTERM"}`,
	)
	result := testutil.RunCLI(t, stdin,
		"--config", testutil.EmptyConfig(t), "run", "--path", path, "--signal", "SIGTERM")

	testutil.AssertSignaled(t, result, syscall.SIGTERM)
	if got := testutil.BreadcrumbNames(t, path); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("crash file breadcrumbs = %v, want [A]", got)
	}
}

func TestCLI_ExitCodes(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}

	config := testutil.EmptyConfig(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"--version"}, 0},
		{"invalid flag value", []string{"--config", config, "run", "--max-breadcrumbs", "999"}, 2},
		{"missing config file", []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "inspect", "x"}, 2},
		{"missing snapshot", []string{"--config", config, "inspect", filepath.Join(t.TempDir(), "none.json")}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertExitCode(t, testutil.RunCLI(t, "", tt.args...), tt.want)
		})
	}
}
