package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveRun("analyze_variances", time.Now(), nil)
	c.ObserveRun("analyze_variances", time.Now(), errors.New("ledger down"))
	c.RecordInsight("budget", "high")
	c.RecordInsight("budget", "high")
	c.RecordAccountFailure("outlier")
	c.RecordLedgerQuery("sum_by_account", nil)
	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.AnalysisRuns.WithLabelValues("analyze_variances", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AnalysisRuns.WithLabelValues("analyze_variances", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.InsightsEmitted.WithLabelValues("budget", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AccountFailures.WithLabelValues("outlier")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LedgerQueries.WithLabelValues("sum_by_account", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.AnalysisDuration))
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveRun("op", time.Now(), nil)
		c.RecordInsight("trend", "low")
		c.RecordAccountFailure("trend")
		c.RecordLedgerQuery("q", nil)
		c.RecordCacheLookup(true)
	})
}
