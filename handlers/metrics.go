package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jalad-shrimali/cdr-insight/parser"
)

// Metrics are the ingestion counters exposed on /metrics. Each Handler owns
// its registry so tests can build several.
type Metrics struct {
	reg      *prometheus.Registry
	files    *prometheus.CounterVec
	records  *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	failures prometheus.Counter
	sessions prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdr_files_parsed_total",
			Help: "Uploaded exports parsed successfully, by format.",
		}, []string{"format"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdr_records_total",
			Help: "Canonical records produced, by format.",
		}, []string{"format"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdr_rows_dropped_total",
			Help: "Data rows that did not become records, by reason.",
		}, []string{"reason"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdr_parse_failures_total",
			Help: "Uploads rejected by the parser.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cdr_sessions",
			Help: "Parsed exports currently held in memory.",
		}),
	}
	m.reg.MustRegister(m.files, m.records, m.dropped, m.failures, m.sessions)
	return m
}

func (m *Metrics) observe(res *parser.Result) {
	format := string(res.Table.Format)
	m.files.WithLabelValues(format).Inc()
	m.records.WithLabelValues(format).Add(float64(res.Stats.Records))
	for reason, n := range map[string]int{
		"empty":     res.Stats.EmptyRows,
		"footer":    res.Stats.FooterRows,
		"malformed": res.Stats.MalformedRows,
		"datetime":  res.Stats.DroppedDatetime,
	} {
		if n > 0 {
			m.dropped.WithLabelValues(reason).Add(float64(n))
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
