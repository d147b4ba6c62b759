package metrics

import (
	"net/http"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts member CSV traffic. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	importedRows prometheus.Counter
	rejectedRows *prometheus.CounterVec
	exportedRows prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		importedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kompass",
			Subsystem: "members",
			Name:      "imported_rows_total",
			Help:      "Member rows created from CSV imports.",
		}),
		rejectedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kompass",
			Subsystem: "members",
			Name:      "rejected_rows_total",
			Help:      "CSV rows rejected by validation, by offending field.",
		}, []string{"field"}),
		exportedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kompass",
			Subsystem: "members",
			Name:      "exported_rows_total",
			Help:      "Member rows written by CSV exports.",
		}),
	}
	reg.MustRegister(m.importedRows, m.rejectedRows, m.exportedRows)

	return m
}

func (m *Metrics) RowsImported(n int) {
	if m == nil {
		return
	}
	m.importedRows.Add(float64(n))
}

// contactIndex matches the N of emergency_contact_N_* columns.
var contactIndex = regexp.MustCompile(`^emergency_contact_\d+_`)

func (m *Metrics) RowRejected(field string) {
	if m == nil {
		return
	}
	if field == "" {
		field = "record"
	}
	field = contactIndex.ReplaceAllLiteralString(field, "emergency_contact_")
	m.rejectedRows.WithLabelValues(field).Inc()
}

func (m *Metrics) RowsExported(n int) {
	if m == nil {
		return
	}
	m.exportedRows.Add(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
