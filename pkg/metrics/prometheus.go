package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	chunksTotal   *prometheus.CounterVec
	rowsTotal     prometheus.Counter
	rowsPerSecond prometheus.Gauge
	stageDuration *prometheus.HistogramVec
	scoresTotal   *prometheus.CounterVec
	warningsTotal *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		chunksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrank_chunks_total",
				Help: "Total number of chunks processed by status",
			},
			[]string{"status"},
		),
		rowsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "finrank_rows_processed_total",
				Help: "Total number of rows run through the pipeline",
			},
		),
		rowsPerSecond: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "finrank_rows_per_second",
				Help: "Throughput of the most recent parallel run",
			},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finrank_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		scoresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrank_scores_total",
				Help: "Total number of score records computed by level",
			},
			[]string{"level"},
		),
		warningsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrank_warnings_total",
				Help: "Total number of data-quality warnings by kind",
			},
			[]string{"kind"},
		),
	}
}

// RecordChunk records one processed chunk by status.
func (r *Recorder) RecordChunk(status string) {
	r.chunksTotal.WithLabelValues(status).Inc()
}

// RecordRows records rows run through the pipeline.
func (r *Recorder) RecordRows(n int) {
	r.rowsTotal.Add(float64(n))
}

// RecordThroughput records the rows/second of the latest run.
func (r *Recorder) RecordThroughput(rowsPerSecond float64) {
	r.rowsPerSecond.Set(rowsPerSecond)
}

// RecordStageDuration records a stage duration in seconds.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordScore records one computed score by level.
func (r *Recorder) RecordScore(level string) {
	r.scoresTotal.WithLabelValues(level).Inc()
}

// RecordWarning records one advisory warning by kind.
func (r *Recorder) RecordWarning(kind string) {
	r.warningsTotal.WithLabelValues(kind).Inc()
}
