package output

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// PrometheusMetrics collects per-run scan metrics into a private registry.
// IronWatch runs to completion, so instead of serving /metrics the registry
// is dumped in the node_exporter textfile format.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	recordsExtracted  *prometheus.CounterVec
	suspectsDetected  *prometheus.CounterVec
	reputationLookups *prometheus.CounterVec
	scanDuration      prometheus.Gauge
	lastScan          prometheus.Gauge
	blocksInserted    prometheus.Counter
}

func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	if namespace == "" {
		namespace = "ironwatch"
	}

	reg := prometheus.NewRegistry()
	register := func(c prometheus.Collector) { reg.MustRegister(c) }

	m := &PrometheusMetrics{registry: reg}

	m.recordsExtracted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_extracted_total",
		Help:      "Log records matched per rule",
	}, []string{"rule"})

	m.suspectsDetected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "suspects_detected_total",
		Help:      "Suspects contributed per rule after deduplication",
	}, []string{"rule"})

	m.reputationLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reputation_lookups_total",
		Help:      "Reputation verdicts by source (history, cached, api, error)",
	}, []string{"outcome"})

	m.scanDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall time of the last scan",
	})

	m.lastScan = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_scan_timestamp_seconds",
		Help:      "Unix time the last scan finished",
	})

	m.blocksInserted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_inserted_total",
		Help:      "Addresses newly written to the block store",
	})

	register(m.recordsExtracted)
	register(m.suspectsDetected)
	register(m.reputationLookups)
	register(m.scanDuration)
	register(m.lastScan)
	register(m.blocksInserted)

	return m
}

func (m *PrometheusMetrics) ObserveRecords(rule string, count int) {
	m.recordsExtracted.WithLabelValues(rule).Add(float64(count))
}

func (m *PrometheusMetrics) ObserveSuspects(rule string, count int) {
	m.suspectsDetected.WithLabelValues(rule).Add(float64(count))
}

func (m *PrometheusMetrics) ObserveReputationLookup(outcome string) {
	m.reputationLookups.WithLabelValues(outcome).Inc()
}

// ObserveScan records the duration of a finished scan.
func (m *PrometheusMetrics) ObserveScan(d time.Duration, finished time.Time) {
	m.scanDuration.Set(d.Seconds())
	m.lastScan.Set(float64(finished.Unix()))
}

func (m *PrometheusMetrics) ObserveBlock() {
	m.blocksInserted.Inc()
}

func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile atomically writes the registry to path. An empty path is a
// no-op.
func (m *PrometheusMetrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	log.Debug().Str("path", path).Msg("Metrics textfile written")
	return nil
}
