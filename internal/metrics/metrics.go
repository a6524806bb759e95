// Package metrics exposes round validation counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

const namespace = "roundcheck"

// Recorder owns a private registry so that several sessions in one process
// (and tests) never collide on collector names.
type Recorder struct {
	reg *prometheus.Registry

	rounds          *prometheus.CounterVec
	issues          *prometheus.CounterVec
	compliance      prometheus.Gauge
	registeredFiles prometheus.Gauge
	duration        prometheus.Histogram
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		// Labels: outcome (passed, failed)
		rounds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "total",
			Help:      "Validation rounds by outcome",
		}, []string{"outcome"}),
		// Labels: severity, category
		issues: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "issues_total",
			Help:      "Validation issues reported across rounds",
		}, []string{"severity", "category"}),
		compliance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "contract_compliance_ratio",
			Help:      "Share of contract endpoints implemented in the latest round",
		}),
		registeredFiles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "files",
			Help:      "Files currently held by the artifact registry",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating one round",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveRound records the outcome of one validation round. A nil
// Recorder is a no-op.
func (r *Recorder) ObserveRound(passed bool, compliance float64, issues []types.ValidationIssue, took time.Duration) {
	if r == nil {
		return
	}
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	r.rounds.WithLabelValues(outcome).Inc()
	for _, is := range issues {
		r.issues.WithLabelValues(string(is.Severity), string(is.Category)).Inc()
	}
	r.compliance.Set(compliance)
	r.duration.Observe(took.Seconds())
}

func (r *Recorder) SetRegisteredFiles(n int) {
	if r == nil {
		return
	}
	r.registeredFiles.Set(float64(n))
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
