package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RowsRead("anvisa", 3)
		m.RowDegraded("cmed", "no_prices")
		m.RowsMerged(1)
		m.PublishFinished("relational", "medicamentos", "success", 1, time.Second)
		m.CleanupFailed("search")
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestPublishFinished(t *testing.T) {
	m := New()
	m.PublishFinished("relational", "medicamentos", "success", 10, time.Second)
	m.PublishFinished("relational", "medicamentos", "failed", 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishTotal.WithLabelValues("relational", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishTotal.WithLabelValues("relational", "failed")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.publishedRows.WithLabelValues("relational", "medicamentos")))
}

func TestRowCounters(t *testing.T) {
	m := New()
	m.RowsRead("anvisa", 5)
	m.RowDegraded("cmed", "no_prices")
	m.RowDegraded("cmed", "no_prices")
	m.RowsMerged(4)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.rowsRead.WithLabelValues("anvisa")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rowsDegraded.WithLabelValues("cmed", "no_prices")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.rowsMerged))
}
