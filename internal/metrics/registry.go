package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus instruments for insight generation. A nil
// *Collector is valid and records nothing.
type Collector struct {
	AnalysisRuns     *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	InsightsEmitted  *prometheus.CounterVec
	AccountFailures  *prometheus.CounterVec
	LedgerQueries    *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
}

// NewCollector creates the instruments and registers them on reg. Pass
// prometheus.DefaultRegisterer in production and prometheus.NewRegistry() in tests.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		AnalysisRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledger_insights",
				Subsystem: "analysis",
				Name:      "runs_total",
				Help:      "Total number of analysis calls by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ledger_insights",
				Subsystem: "analysis",
				Name:      "duration_seconds",
				Help:      "Analysis call duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"operation"},
		),
		InsightsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledger_insights",
				Subsystem: "analysis",
				Name:      "insights_total",
				Help:      "Insights returned to callers by variance type and severity",
			},
			[]string{"variance_type", "severity"},
		),
		AccountFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledger_insights",
				Subsystem: "analysis",
				Name:      "account_failures_total",
				Help:      "Per-account detector failures that were isolated and skipped",
			},
			[]string{"detector"},
		),
		LedgerQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledger_insights",
				Subsystem: "ledger",
				Name:      "queries_total",
				Help:      "Ledger aggregator queries by query name and outcome",
			},
			[]string{"query", "status"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledger_insights",
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Aggregate cache lookups by result",
			},
			[]string{"result"},
		),
	}

	for _, col := range []prometheus.Collector{
		c.AnalysisRuns, c.AnalysisDuration, c.InsightsEmitted,
		c.AccountFailures, c.LedgerQueries, c.CacheLookups,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ObserveRun records one analysis call
func (c *Collector) ObserveRun(operation string, started time.Time, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.AnalysisRuns.WithLabelValues(operation, status).Inc()
	c.AnalysisDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordInsight counts one returned insight
func (c *Collector) RecordInsight(varianceType, severity string) {
	if c == nil {
		return
	}
	c.InsightsEmitted.WithLabelValues(varianceType, severity).Inc()
}

// RecordAccountFailure counts an isolated per-account failure
func (c *Collector) RecordAccountFailure(detector string) {
	if c == nil {
		return
	}
	c.AccountFailures.WithLabelValues(detector).Inc()
}

// RecordLedgerQuery counts a ledger query
func (c *Collector) RecordLedgerQuery(query string, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.LedgerQueries.WithLabelValues(query, status).Inc()
}

// RecordCacheLookup counts a cache hit or miss
func (c *Collector) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}
