package engine

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "farnsworth"
	metricsSubsystem = "cache"

	// LabelSuccess is "true" or "false".
	LabelSuccess = "success"
)

// Metrics collects prometheus metrics for sync runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	downloads      *prometheus.CounterVec
	manifestSaves  *prometheus.CounterVec
	catalogFetches *prometheus.CounterVec
	prunedFiles    prometheus.Counter
	syncDuration   *prometheus.HistogramVec
}

// NewMetrics creates the sync metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "downloads_total",
			Help:      "Asset download attempts.",
		}, []string{LabelSuccess}),
		manifestSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "manifest_saves_total",
			Help:      "Manifest save attempts.",
		}, []string{LabelSuccess}),
		catalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "catalog_fetches_total",
			Help:      "Remote catalog fetch attempts.",
		}, []string{LabelSuccess}),
		prunedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "pruned_files_total",
			Help:      "Orphaned cache files removed.",
		}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync runs, in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 3, 8),
		}, []string{LabelSuccess}),
	}

	if reg != nil {
		reg.MustRegister(m.downloads, m.manifestSaves, m.catalogFetches, m.prunedFiles, m.syncDuration)
	}
	return m
}

func (m *Metrics) observeDownload(err error) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(success(err)).Inc()
}

func (m *Metrics) observeSave(err error) {
	if m == nil {
		return
	}
	m.manifestSaves.WithLabelValues(success(err)).Inc()
}

func (m *Metrics) observeFetch(err error) {
	if m == nil {
		return
	}
	m.catalogFetches.WithLabelValues(success(err)).Inc()
}

func (m *Metrics) observePrune(removed int) {
	if m == nil {
		return
	}
	m.prunedFiles.Add(float64(removed))
}

func (m *Metrics) observeSync(d time.Duration, remoteOK bool) {
	if m == nil {
		return
	}
	m.syncDuration.WithLabelValues(strconv.FormatBool(remoteOK)).Observe(d.Seconds())
}

func success(err error) string {
	return strconv.FormatBool(err == nil)
}
