// Package metrics records per-run analysis counters in a Prometheus
// registry that can be exported to a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for one engine. Each instance owns its
// registry, so several engines in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	FilesScanned prometheus.Counter
	FilesSkipped prometheus.Counter
	CallSites    prometheus.Counter
	Findings     *prometheus.CounterVec
	ScanDuration prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FilesScanned: f.NewCounter(prometheus.CounterOpts{
			Name: "sqlsift_files_scanned_total",
			Help: "Total number of source files scanned.",
		}),
		FilesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "sqlsift_files_skipped_total",
			Help: "Total number of source files that could not be read or parsed.",
		}),
		CallSites: f.NewCounter(prometheus.CounterOpts{
			Name: "sqlsift_call_sites_total",
			Help: "Total number of call sites recorded.",
		}),
		Findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sqlsift_findings_total",
			Help: "Total number of query-text findings by rule.",
		}, []string{"kind"}),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sqlsift_scan_seconds",
			Help:    "Time spent reading, parsing and scanning one file.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveFile records a scanned file.
func (m *Metrics) ObserveFile(calls int, findingsByKind map[string]int, elapsed time.Duration) {
	m.FilesScanned.Inc()
	m.CallSites.Add(float64(calls))
	for kind, n := range findingsByKind {
		m.Findings.WithLabelValues(kind).Add(float64(n))
	}
	m.ScanDuration.Observe(elapsed.Seconds())
}

// ObserveSkip records a file that was not scanned.
func (m *Metrics) ObserveSkip() {
	m.FilesSkipped.Inc()
}

// Registry exposes the underlying registry as a Gatherer.
func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format to path,
// atomically replacing any existing file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
