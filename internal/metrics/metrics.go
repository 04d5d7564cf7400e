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

// Package metrics provides Prometheus instrumentation for the cache.
//
// Metrics are registered on a caller-supplied prometheus.Registerer so tests
// and embedding hosts can keep them isolated from the global registry. All
// methods are safe on a nil *Metrics, which records nothing.
//
// Nothing in this package may be called from crash context: client_golang
// allocates and locks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "crashcache"
	subsystem = "cache"
)

// Checkpoint results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the cache collectors.
type Metrics struct {
	// MutationsTotal counts successful mutations. Labels: op.
	MutationsTotal *prometheus.CounterVec

	// RejectedTotal counts mutations dropped as no-ops. Labels: op, reason.
	RejectedTotal *prometheus.CounterVec

	// SerializedBytes is the size of the published serialization.
	SerializedBytes prometheus.Gauge

	// Breadcrumbs is the number of breadcrumbs currently held.
	Breadcrumbs prometheus.Gauge

	// CheckpointsTotal counts synchronous writes to disk. Labels: result.
	CheckpointsTotal *prometheus.CounterVec

	// CrashWritesTotal counts crash-path writes recorded after the fact by
	// the panic guard.
	CrashWritesTotal prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mutations_total",
			Help:      "Mutations applied to the cached document.",
		}, []string{"op"}),
		RejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rejected_total",
			Help:      "Mutations dropped without changing the cached document.",
		}, []string{"op", "reason"}),
		SerializedBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "serialized_bytes",
			Help:      "Size of the published serialization.",
		}),
		Breadcrumbs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "breadcrumbs",
			Help:      "Breadcrumbs currently cached.",
		}),
		CheckpointsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checkpoints_total",
			Help:      "Synchronous checkpoint writes by result.",
		}, []string{"result"}),
		CrashWritesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "crash_writes_total",
			Help:      "Crash-path writes performed while recovering from a panic.",
		}),
	}
}

// Mutation records a successful mutation and the resulting document shape.
func (m *Metrics) Mutation(op string, serializedBytes, breadcrumbs int) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(op).Inc()
	m.SerializedBytes.Set(float64(serializedBytes))
	m.Breadcrumbs.Set(float64(breadcrumbs))
}

// Rejected records a mutation dropped as a no-op.
func (m *Metrics) Rejected(op, reason string) {
	if m == nil {
		return
	}
	m.RejectedTotal.WithLabelValues(op, reason).Inc()
}

// Checkpoint records a synchronous write.
func (m *Metrics) Checkpoint(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.CheckpointsTotal.WithLabelValues(result).Inc()
}

// CrashWrite records a crash-path write performed by the panic guard.
func (m *Metrics) CrashWrite() {
	if m == nil {
		return
	}
	m.CrashWritesTotal.Inc()
}

// Reset records that the cache was uninstalled.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.SerializedBytes.Set(0)
	m.Breadcrumbs.Set(0)
}
