package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"almgetl/internal/services/harvest/domain"
)

// Metrics mirrors run summaries to prometheus; a nil *Metrics records nothing
type Metrics struct {
	runs        *prometheus.CounterVec
	pages       *prometheus.CounterVec
	records     *prometheus.CounterVec
	upserts     *prometheus.CounterVec
	batchFails  *prometheus.CounterVec
	batchDur    *prometheus.HistogramVec
	lastRunSecs prometheus.Gauge
	lastRunAt   prometheus.Gauge
	running     prometheus.Gauge
}

// NewMetrics builds the harvest collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "runs_total",
			Help: "Finished harvest runs by outcome.",
		}, []string{"outcome"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "pages_total",
			Help: "Fetched pages by result.",
		}, []string{"result"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "records_total",
			Help: "Upstream records seen and dropped by validation.",
		}, []string{"stage"}),
		upserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "upserts_total",
			Help: "Rows written by the loader.",
		}, []string{"kind"}),
		batchFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "batch_failures_total",
			Help: "Page batches abandoned by error code.",
		}, []string{"code"}),
		batchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "batch_duration_seconds",
			Help:    "Time one page spends in each stage.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"stage"}),
		lastRunSecs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "last_run_duration_seconds",
			Help: "Wall time of the most recent run.",
		}),
		lastRunAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "last_run_finished_timestamp_seconds",
			Help: "Unix time the most recent run finished.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "running",
			Help: "1 while a run is in progress.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.runs, m.pages, m.records, m.upserts, m.batchFails,
		m.batchDur, m.lastRunSecs, m.lastRunAt, m.running,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) page(result string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(result).Inc()
}

func (m *Metrics) transformed(seen, dropped int, d time.Duration) {
	if m == nil {
		return
	}
	m.records.WithLabelValues("seen").Add(float64(seen))
	m.records.WithLabelValues("dropped").Add(float64(dropped))
	m.batchDur.WithLabelValues("transform").Observe(d.Seconds())
}

func (m *Metrics) loaded(res domain.UpsertResult, d time.Duration) {
	if m == nil {
		return
	}
	m.upserts.WithLabelValues("inserted").Add(float64(res.Inserted))
	m.upserts.WithLabelValues("updated").Add(float64(res.Updated))
	m.upserts.WithLabelValues("processings_added").Add(float64(res.ProcessingsAdded))
	m.batchDur.WithLabelValues("load").Observe(d.Seconds())
}

func (m *Metrics) batchFailed(code string) {
	if m == nil {
		return
	}
	m.batchFails.WithLabelValues(code).Inc()
}

func (m *Metrics) start() {
	if m == nil {
		return
	}
	m.running.Set(1)
}

func (m *Metrics) finish(s domain.RunSummary) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case s.Cancelled:
		outcome = "cancelled"
	case s.FailedPages > 0:
		outcome = "partial"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.lastRunSecs.Set(s.Elapsed().Seconds())
	m.lastRunAt.Set(float64(s.FinishedAt.Unix()))
	m.running.Set(0)
}
