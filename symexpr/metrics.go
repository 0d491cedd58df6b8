// SPDX-License-Identifier: MIT

package symexpr

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors a Cache reports into.
type Metrics struct {
	// lookups counts Evaluate lookups by result ("hit" | "miss").
	lookups *prometheus.CounterVec
	// compiles counts successful compilations by expression id.
	compiles *prometheus.CounterVec
	// compileSeconds tracks compilation latency.
	compileSeconds prometheus.Histogram
}

// NewMetrics creates and registers the cache collectors on reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "glmnet_symexpr_lookups_total",
			Help: "Evaluator cache lookups by result",
		}, []string{"result"}),
		compiles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "glmnet_symexpr_compiles_total",
			Help: "Expression compilations by expression id",
		}, []string{"expr"}),
		compileSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "glmnet_symexpr_compile_duration_seconds",
			Help:    "Expression compilation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		}),
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.lookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.lookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) compiled(expr string, seconds float64) {
	if m != nil {
		m.compiles.WithLabelValues(expr).Inc()
		m.compileSeconds.Observe(seconds)
	}
}
