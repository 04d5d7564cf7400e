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

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Mutation("add_breadcrumb", 120, 3)
	m.Mutation("add_breadcrumb", 150, 4)
	m.Rejected("set_metadata", "invalid_json")
	m.Checkpoint(nil)
	m.Checkpoint(errors.New("disk full"))
	m.CrashWrite()

	if got := testutil.ToFloat64(m.MutationsTotal.WithLabelValues("add_breadcrumb")); got != 2 {
		t.Errorf("mutations_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SerializedBytes); got != 150 {
		t.Errorf("serialized_bytes = %v, want 150", got)
	}
	if got := testutil.ToFloat64(m.Breadcrumbs); got != 4 {
		t.Errorf("breadcrumbs = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.RejectedTotal.WithLabelValues("set_metadata", "invalid_json")); got != 1 {
		t.Errorf("rejected_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CheckpointsTotal.WithLabelValues(ResultOK)); got != 1 {
		t.Errorf("checkpoints_total{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CheckpointsTotal.WithLabelValues(ResultError)); got != 1 {
		t.Errorf("checkpoints_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CrashWritesTotal); got != 1 {
		t.Errorf("crash_writes_total = %v, want 1", got)
	}

	m.Reset()
	if got := testutil.ToFloat64(m.SerializedBytes); got != 0 {
		t.Errorf("serialized_bytes after reset = %v, want 0", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Mutation("set_context", 10, 0)
	m.Rejected("set_context", "not_installed")
	m.Checkpoint(nil)
	m.CrashWrite()
	m.Reset()
}

func TestMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Mutation("set_user", 42, 0)
	m.Checkpoint(nil)
	m.Rejected("add_breadcrumb", "invalid_json")

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"crashcache_cache_mutations_total",
		"crashcache_cache_rejected_total",
		"crashcache_cache_serialized_bytes",
		"crashcache_cache_breadcrumbs",
		"crashcache_cache_checkpoints_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}
