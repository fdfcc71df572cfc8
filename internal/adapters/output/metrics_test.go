package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_Observe(t *testing.T) {
	m := NewPrometheusMetrics("")

	m.ObserveRecords("burst", 10)
	m.ObserveRecords("burst", 5)
	m.ObserveSuspects("spam", 2)
	m.ObserveReputationLookup("api")
	m.ObserveReputationLookup("api")
	m.ObserveReputationLookup("history")
	m.ObserveBlock()

	assert.Equal(t, 15.0, testutil.ToFloat64(m.recordsExtracted.WithLabelValues("burst")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.suspectsDetected.WithLabelValues("spam")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reputationLookups.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reputationLookups.WithLabelValues("history")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.blocksInserted))
}

func TestPrometheusMetrics_SeparateRegistries(t *testing.T) {
	a := NewPrometheusMetrics("ironwatch")
	b := NewPrometheusMetrics("ironwatch")

	a.ObserveBlock()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.blocksInserted))
}

func TestPrometheusMetrics_WriteTextfile(t *testing.T) {
	m := NewPrometheusMetrics("ironwatch")
	m.ObserveRecords("burst", 3)
	m.ObserveScan(1500*time.Millisecond, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "ironwatch.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `ironwatch_records_extracted_total{rule="burst"} 3`)
	assert.Contains(t, out, "ironwatch_scan_duration_seconds 1.5")
	assert.Contains(t, out, "ironwatch_last_scan_timestamp_seconds 1.7e+09")

	assert.NoError(t, m.WriteTextfile(""))
}
