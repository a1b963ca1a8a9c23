package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveProvision("success", 120*time.Millisecond)
	m.ObserveProvision("success", 80*time.Millisecond)
	m.ObserveProvision("registration_failure", time.Millisecond)
	m.ObserveArchive(4096)
	m.ObserveCompensation("revoke_credentials", nil)
	m.ObserveCompensation("deregister_device", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("registration_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensations.WithLabelValues("revoke_credentials", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensations.WithLabelValues("deregister_device", "error")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"sketch_provisioning_requests_total",
		"sketch_provisioning_duration_seconds",
		"sketch_archive_bytes",
		"sketch_provisioning_compensations_total",
	}, names)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProvision("success", time.Second)
		m.ObserveArchive(1)
		m.ObserveCompensation("x", nil)
	})
}
