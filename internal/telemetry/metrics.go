// Package telemetry exposes Prometheus metrics for condition checks.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TimurManjosov/inspectrules/internal/engine"
)

// Recorder counts and times operator checks. It implements engine.Observer.
type Recorder struct {
	checks   *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder creates unregistered metric vectors.
func NewRecorder() *Recorder {
	return &Recorder{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "condition_checks_total",
				Help: "Total operator checks by operator and result",
			},
			[]string{"op", "result"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "condition_check_errors_total",
				Help: "Failed operator checks by operator and error kind",
			},
			[]string{"op", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "condition_check_duration_seconds",
				Help:    "Operator check duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"op"},
		),
	}
}

// MustRegister registers the vectors with reg, panicking on conflicts.
func (r *Recorder) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(r.checks, r.errors, r.duration)
}

// Init creates a recorder and registers it with reg. A nil reg means the
// default Prometheus registry.
func Init(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := NewRecorder()
	r.MustRegister(reg)
	return r
}

func (r *Recorder) ObserveCheck(op string, result bool, err error, elapsed time.Duration) {
	r.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		r.errors.WithLabelValues(op, engine.ErrorKind(err)).Inc()
		return
	}
	label := "false"
	if result {
		label = "true"
	}
	r.checks.WithLabelValues(op, label).Inc()
}
