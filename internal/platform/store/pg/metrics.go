package pg

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsTracer records statement latency and failures by verb
type MetricsTracer struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

// NewMetricsTracer builds the collectors and registers them on reg
func NewMetricsTracer(reg prometheus.Registerer, namespace string) (*MetricsTracer, error) {
	m := &MetricsTracer{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pg",
			Name:      "query_duration_seconds",
			Help:      "Statement latency observed by the sql adapter.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"verb"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pg",
			Name:      "query_errors_total",
			Help:      "Statements that returned an error.",
		}, []string{"verb"}),
	}
	for _, c := range []prometheus.Collector{m.latency, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnQuery implements QueryTracer
func (m *MetricsTracer) OnQuery(_ context.Context, ev QueryEvent) {
	v := verb(ev.SQL)
	m.latency.WithLabelValues(v).Observe((time.Duration(ev.ElapsedUS) * time.Microsecond).Seconds())
	if ev.Err != nil {
		m.errors.WithLabelValues(v).Inc()
	}
}

// verb returns the lowercased first keyword, capped to a known set to bound label cardinality
func verb(sql string) string {
	f := strings.Fields(sql)
	if len(f) == 0 {
		return "other"
	}
	switch w := strings.ToLower(f[0]); w {
	case "select", "insert", "update", "delete", "with", "create", "alter":
		return w
	}
	return "other"
}
