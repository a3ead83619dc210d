// Package metrics exposes the counters of a cleaning run in the prometheus
// text format, for collection through a node-exporter textfile directory.
package metrics

import (
	"fmt"
	"time"

	"github.com/mchmarny/mobusage/pkg/report"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mobusage"

// Recorder holds the gauges of a single run on a private registry.
type Recorder struct {
	registry    *prometheus.Registry
	rowsLoaded  prometheus.Gauge
	duplicates  prometheus.Gauge
	rowsWritten prometheus.Gauge
	categories  *prometheus.GaugeVec
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewRecorder creates and registers the run gauges.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rowsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clean",
			Name:      "rows_loaded",
			Help:      "Rows read from the input file.",
		}),
		duplicates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clean",
			Name:      "duplicate_rows",
			Help:      "Rows dropped because their key was already seen.",
		}),
		rowsWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clean",
			Name:      "rows_written",
			Help:      "Rows written to the cleaned output file.",
		}),
		categories: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clean",
			Name:      "behaviour_rows",
			Help:      "Rows per behaviour category.",
		}, []string{"category"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clean",
			Name:      "duration_seconds",
			Help:      "Wall time of the run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clean",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the most recent successful run.",
		}),
	}
	r.registry.MustRegister(r.rowsLoaded, r.duplicates, r.rowsWritten, r.categories, r.duration, r.lastSuccess)
	return r
}

// Observe sets every gauge from a completed run summary.
func (r *Recorder) Observe(s *report.Summary, took time.Duration, finished time.Time) {
	r.rowsLoaded.Set(float64(s.Loaded))
	r.duplicates.Set(float64(s.Duplicates))
	r.rowsWritten.Set(float64(s.Rows))
	for _, d := range s.Distribution {
		r.categories.WithLabelValues(string(d.Category)).Set(float64(d.Count))
	}
	r.duration.Set(took.Seconds())
	if !finished.IsZero() {
		r.lastSuccess.Set(float64(finished.Unix()))
	}
}

// WriteFile writes the registry to path in text exposition format.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// Gatherer exposes the registry, mostly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
