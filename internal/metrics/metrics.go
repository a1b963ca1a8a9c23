// Package metrics holds the Prometheus collectors of the provisioning
// pipeline. A nil *Metrics records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sketch"

type Metrics struct {
	requests      *prometheus.CounterVec
	duration      prometheus.Histogram
	archiveBytes  prometheus.Histogram
	compensations *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "requests_total",
			Help:      "Provisioning requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "duration_seconds",
			Help:      "Time taken to provision a device and assemble its sketch.",
			Buckets:   prometheus.DefBuckets,
		}),
		archiveBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_bytes",
			Help:      "Size of assembled sketch archives.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "compensations_total",
			Help:      "Rollback steps run after a failed provisioning request.",
		}, []string{"step", "result"}),
	}

	reg.MustRegister(m.requests, m.duration, m.archiveBytes, m.compensations)
	return m
}

func (m *Metrics) ObserveProvision(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveArchive(size int64) {
	if m == nil {
		return
	}
	m.archiveBytes.Observe(float64(size))
}

func (m *Metrics) ObserveCompensation(step string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.compensations.WithLabelValues(step, result).Inc()
}
