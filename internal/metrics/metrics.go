// Package metrics exports harvest metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "legal_harvester"

// Metrics holds all harvester Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	RecordsHarvested  *prometheus.CounterVec
	RecordsCreated    *prometheus.CounterVec
	RecordsDuplicate  *prometheus.CounterVec
	EmptyHarvests     *prometheus.CounterVec
	HarvestDuration   *prometheus.HistogramVec
	SinkErrors        *prometheus.CounterVec
	ConsecutiveEmpty  *prometheus.GaugeVec
	LastHarvestRecord *prometheus.GaugeVec
}

// New registers the harvester metrics, plus Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(reg)
	labels := []string{"source"}

	return &Metrics{
		registry: reg,
		RecordsHarvested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_harvested_total",
			Help:      "Valid records returned by a spider",
		}, labels),
		RecordsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Records storage accepted as new",
		}, labels),
		RecordsDuplicate: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_duplicate_total",
			Help:      "Records storage already held",
		}, labels),
		EmptyHarvests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_harvests_total",
			Help:      "Harvests that produced no records",
		}, labels),
		HarvestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "harvest_duration_seconds",
			Help:      "Time to crawl and deliver one source",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, labels),
		SinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Store and publish failures",
		}, []string{"source", "sink"}),
		ConsecutiveEmpty: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consecutive_empty_harvests",
			Help:      "Runs in a row without records",
		}, labels),
		LastHarvestRecord: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_harvest_records",
			Help:      "Records returned by the latest harvest",
		}, labels),
	}
}

// ObserveHarvest implements harvest.Recorder.
func (m *Metrics) ObserveHarvest(sourceID string, records, created, duplicates int, took time.Duration) {
	m.RecordsHarvested.WithLabelValues(sourceID).Add(float64(records))
	m.RecordsCreated.WithLabelValues(sourceID).Add(float64(created))
	m.RecordsDuplicate.WithLabelValues(sourceID).Add(float64(duplicates))
	m.LastHarvestRecord.WithLabelValues(sourceID).Set(float64(records))
	m.HarvestDuration.WithLabelValues(sourceID).Observe(took.Seconds())
	if records == 0 {
		m.EmptyHarvests.WithLabelValues(sourceID).Inc()
	}
}

// IncSinkError implements harvest.Recorder.
func (m *Metrics) IncSinkError(sourceID, sink string) {
	m.SinkErrors.WithLabelValues(sourceID, sink).Inc()
}

// SetConsecutiveEmpty implements harvest.Recorder.
func (m *Metrics) SetConsecutiveEmpty(sourceID string, n int) {
	m.ConsecutiveEmpty.WithLabelValues(sourceID).Set(float64(n))
}

// Handler returns the Prometheus HTTP handler for /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
