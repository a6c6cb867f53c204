// Package metrics exposes Prometheus collectors for the gradebook.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

const namespace = "edutrack"

// SnapshotReader returns the current state.
type SnapshotReader interface {
	Snapshot() (gradebook.State, error)
}

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	mutations       *prometheus.CounterVec
	slotOps         *prometheus.HistogramVec
	slotErrors      *prometheus.CounterVec
	narrativeCalls  *prometheus.CounterVec
	narrativeTiming *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	records         *prometheus.GaugeVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Applied gradebook mutations by event type.",
		}, []string{"event_type"}),
		slotOps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slot_operation_duration_seconds",
			Help:      "Latency of durable slot reads and writes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		slotErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_errors_total",
			Help:      "Failed durable slot operations.",
		}, []string{"op"}),
		narrativeCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_requests_total",
			Help:      "Narrator calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		narrativeTiming: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "narrative_request_duration_seconds",
			Help:      "Narrator call latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"kind"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		records: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of records per collection in the current state.",
		}, []string{"collection"}),
		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Scheduled job run time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSlot implements persistence.Observer.
func (m *Metrics) ObserveSlot(op string, d time.Duration, err error) {
	m.slotOps.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.slotErrors.WithLabelValues(op).Inc()
	}
}

// ObserveNarrative implements service.NarrativeObserver.
func (m *Metrics) ObserveNarrative(kind, outcome string, d time.Duration) {
	m.narrativeCalls.WithLabelValues(kind, outcome).Inc()
	m.narrativeTiming.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveHTTP records one served request. route is the mux pattern, not the
// raw path, to keep cardinality bounded.
func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveJob records one scheduled job run.
func (m *Metrics) ObserveJob(job string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// SetRecords publishes the collection sizes of st.
func (m *Metrics) SetRecords(st gradebook.State) {
	stats := gradebook.ComputeStats(st)
	m.records.WithLabelValues("students").Set(float64(stats.TotalStudents))
	m.records.WithLabelValues("assessments").Set(float64(stats.TotalAssessments))
	m.records.WithLabelValues("grades").Set(float64(stats.TotalGrades))
}

// EventHandler counts each mutation and refreshes the record gauges from
// state. state may be nil.
func (m *Metrics) EventHandler(state SnapshotReader) shared.EventHandler {
	return func(event shared.Event) error {
		m.mutations.WithLabelValues(string(event.EventType())).Inc()
		if state == nil {
			return nil
		}
		st, err := state.Snapshot()
		if err != nil {
			return err
		}
		m.SetRecords(st)
		return nil
	}
}
