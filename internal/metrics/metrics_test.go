package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RowsImported(2)
	m.RowRejected("birth_date")
	m.RowRejected("")
	m.RowsExported(30)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.importedRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectedRows.WithLabelValues("birth_date")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectedRows.WithLabelValues("record")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.exportedRows))
}

func TestMetrics_RowRejectedContactLabel(t *testing.T) {
	m := New()

	m.RowRejected("emergency_contact_1_name")
	m.RowRejected("emergency_contact_7_name")
	m.RowRejected("emergency_contact_12_phone")

	assert.Equal(t, 2, testutil.CollectAndCount(m.rejectedRows))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rejectedRows.WithLabelValues("emergency_contact_name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectedRows.WithLabelValues("emergency_contact_phone")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RowsImported(1)
		m.RowRejected("prename")
		m.RowsExported(3)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RowsExported(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kompass_members_exported_rows_total 1")
}
