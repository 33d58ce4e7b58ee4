// Package metrics exposes Prometheus instruments for the sync worker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for sync runs
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBusy    = "busy"
)

// Record kinds counted per run
const (
	KindFetched  = "fetched"
	KindNew      = "new"
	KindModified = "modified"
	KindSkipped  = "skipped"
)

// SyncMetrics records sync runs per domain. A nil *SyncMetrics is a no-op.
type SyncMetrics struct {
	duration  *prometheus.HistogramVec
	runs      *prometheus.CounterVec
	records   *prometheus.CounterVec
	watermark *prometheus.GaugeVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voucher_sync_duration_seconds",
		Help:    "Duration of sync runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"domain"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voucher_sync_runs_total",
		Help: "Sync runs by outcome.",
	}, []string{"domain", "outcome"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voucher_sync_records_total",
		Help: "Records processed by sync runs.",
	}, []string{"domain", "kind"})
	watermark := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voucher_sync_watermark",
		Help: "Last committed change counter.",
	}, []string{"domain"})
	reg.MustRegister(duration, runs, records, watermark)
	return &SyncMetrics{
		duration:  duration,
		runs:      runs,
		records:   records,
		watermark: watermark,
	}
}

// ObserveRun records one finished run
func (m *SyncMetrics) ObserveRun(domain, outcome string, duration time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	domain = normalizeLabel(domain)
	m.runs.WithLabelValues(domain, outcome).Inc()
	if outcome != OutcomeBusy {
		m.duration.WithLabelValues(domain).Observe(duration.Seconds())
	}
}

// AddRecords adds n records of the given kind
func (m *SyncMetrics) AddRecords(domain, kind string, n int) {
	if m == nil || m.records == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(normalizeLabel(domain), kind).Add(float64(n))
}

// SetWatermark publishes the committed watermark
func (m *SyncMetrics) SetWatermark(domain string, counter int64) {
	if m == nil || m.watermark == nil {
		return
	}
	m.watermark.WithLabelValues(normalizeLabel(domain)).Set(float64(counter))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
