package analytics

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
	"github.com/davidleathers/ledger-insights/internal/domain/insight"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/infrastructure/repository"
	"github.com/davidleathers/ledger-insights/internal/metrics"
	"github.com/davidleathers/ledger-insights/internal/testutil"
	"github.com/davidleathers/ledger-insights/internal/testutil/fixtures"
	"github.com/davidleathers/ledger-insights/internal/testutil/mocks"
)

// stubDetector lets tests control per-account behaviour
type stubDetector struct {
	typ   insight.VarianceType
	fn    func(in AccountInput) ([]insight.VarianceInsight, error)
	calls atomic.Int32
}

func (d *stubDetector) Type() insight.VarianceType { return d.typ }

func (d *stubDetector) Detect(_ context.Context, in AccountInput) ([]insight.VarianceInsight, error) {
	d.calls.Add(1)
	return d.fn(in)
}

type stubPortfolioDetector struct {
	typ insight.VarianceType
	fn  func(in PortfolioInput) ([]insight.VarianceInsight, error)
}

func (d *stubPortfolioDetector) Type() insight.VarianceType { return d.typ }

func (d *stubPortfolioDetector) Detect(_ context.Context, in PortfolioInput) ([]insight.VarianceInsight, error) {
	return d.fn(in)
}

func emitFor(typ insight.VarianceType) func(in AccountInput) ([]insight.VarianceInsight, error) {
	return func(in AccountInput) ([]insight.VarianceInsight, error) {
		return []insight.VarianceInsight{{
			VarianceType:    typ,
			Severity:        insight.SeverityHigh,
			AccountID:       in.Aggregate.AccountID,
			ConfidenceScore: 0.9,
		}}, nil
	}
}

// decemberLedger has a revenue spike in December 2024 against a flat rent line
func decemberLedger() *repository.MemoryLedger {
	b := fixtures.NewLedgerBuilder().
		Account("4000", "Sales", ledger.ClassificationIncome).
		Account("5000", "Rent", ledger.ClassificationExpense)
	b.Monthly("4000", "2024-07", 100, 110, 120, 130, 140, 400)
	b.Monthly("5000", "2024-07", 50, 50, 50, 50, 50, 50)
	return repository.NewMemoryLedger(b.Build())
}

// accountsLedger has one January entry per account id
func accountsLedger(ids ...string) *repository.MemoryLedger {
	b := fixtures.NewLedgerBuilder()
	for _, id := range ids {
		b.Account(id, "Account "+id, ledger.ClassificationExpense)
		b.Entry(id, "2024-01-10", "100")
	}
	return repository.NewMemoryLedger(b.Build())
}

func newTestService(t *testing.T, reader ledger.Reader, opts ...Option) Service {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	s, err := NewService(reader, DefaultConfig(), opts...)
	require.NoError(t, err)
	return s
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	cfg := DefaultConfig()
	cfg.Workers = 0
	_, err = NewService(decemberLedger(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	forecast := &stubDetector{typ: "forecast", fn: emitFor("forecast")}
	_, err = NewService(decemberLedger(), DefaultConfig(), WithAccountDetectors(forecast))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	unnamed := &stubPortfolioDetector{typ: ""}
	_, err = NewService(decemberLedger(), DefaultConfig(), WithPortfolioDetectors(unnamed))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestAnalyzeVariances(t *testing.T) {
	s := newTestService(t, decemberLedger())

	got, err := s.AnalyzeVariances(testutil.TestContext(t), "2024-12-01", "2024-12-31", true)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, insight.VarianceRatio, got[0].VarianceType)
	assert.Equal(t, RatioProfitMargin, got[0].AccountID)
	assert.Equal(t, insight.SeverityCritical, got[0].Severity)
	assert.InDelta(t, 0.875, got[0].ActualValue, 1e-9)

	assert.Equal(t, insight.VarianceTrend, got[1].VarianceType)
	assert.Equal(t, "4000", got[1].AccountID)
	assert.Equal(t, insight.SeverityMedium, got[1].Severity)

	for _, v := range got {
		assert.GreaterOrEqual(t, v.ConfidenceScore, DefaultConfig().ConfidenceThreshold)
	}
}

func TestAnalyzeVariances_ImpliedBudgetNeverReports(t *testing.T) {
	b := fixtures.NewLedgerBuilder().Account("4000", "Sales", ledger.ClassificationIncome)
	b.Entry("4000", "2024-01-15", "110000")
	s := newTestService(t, repository.NewMemoryLedger(b.Build()))

	got, err := s.AnalyzeVariances(testutil.TestContext(t), "2024-01-01", "2024-01-31", true)
	require.NoError(t, err)

	for _, v := range got {
		assert.NotEqual(t, insight.VarianceBudget, v.VarianceType)
	}
	require.Len(t, got, 1, "only the profit margin is out of line")
	assert.Equal(t, RatioProfitMargin, got[0].AccountID)
}

func TestAnalyzeVariances_IsIdempotent(t *testing.T) {
	s := newTestService(t, decemberLedger())
	ctx := testutil.TestContext(t)

	first, err := s.AnalyzeVariances(ctx, "2024-12-01", "2024-12-31", true)
	require.NoError(t, err)
	second, err := s.AnalyzeVariances(ctx, "2024-12-01", "2024-12-31", true)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAnalyzeVariances_OrderIndependentOfScheduling(t *testing.T) {
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprintf("%04d", i)
	}
	d := &stubDetector{typ: insight.VarianceTrend, fn: emitFor(insight.VarianceTrend)}
	s := newTestService(t, accountsLedger(ids...), WithAccountDetectors(d), WithPortfolioDetectors())

	got, err := s.AnalyzeVariances(testutil.TestContext(t), "2024-01-01", "2024-01-31", true)
	require.NoError(t, err)
	require.Len(t, got, len(ids))
	for i, v := range got {
		assert.Equal(t, ids[i], v.AccountID)
	}
}

func TestAnalyzeVariances_InvalidRangeQueriesNothing(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"start after end", "2024-03-01", "2024-01-01"},
		{"malformed start", "2024-13-01", "2024-12-31"},
		{"missing end", "2024-01-01", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mocks.Ledger)
			s := newTestService(t, m)

			_, err := s.AnalyzeVariances(context.Background(), tt.start, tt.end, true)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidRange))

			_, err = s.DetectAnomalies(context.Background(), tt.start, tt.end, 0)
			assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidRange))

			_, err = s.GenerateComprehensiveInsights(context.Background(), tt.start, tt.end)
			assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidRange))

			m.AssertExpectations(t)
			assert.Empty(t, m.Calls)
		})
	}
}

func TestAnalyzeVariances_LedgerFailureIsDataUnavailable(t *testing.T) {
	down := stderrors.New("connection refused")

	t.Run("aggregate query", func(t *testing.T) {
		m := new(mocks.Ledger)
		m.On("SumByAccount", mock.Anything, mock.Anything).Return(nil, down)
		s := newTestService(t, m)

		_, err := s.AnalyzeVariances(context.Background(), "2024-01-01", "2024-01-31", true)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDataUnavailable))
		assert.ErrorIs(t, err, down)
	})

	t.Run("portfolio query", func(t *testing.T) {
		m := new(mocks.Ledger)
		m.On("SumByAccount", mock.Anything, mock.Anything).Return([]ledger.AccountAggregate{}, nil)
		m.On("SumByAccountType", mock.Anything, mock.Anything, mock.Anything).Return(decimal.Zero, down)
		s := newTestService(t, m)

		_, err := s.AnalyzeVariances(context.Background(), "2024-01-01", "2024-01-31", true)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDataUnavailable))
	})

	t.Run("typed errors pass through", func(t *testing.T) {
		m := new(mocks.Ledger)
		m.On("SumByAccount", mock.Anything, mock.Anything).
			Return(nil, errors.NewInternalError("bad row"))
		s := newTestService(t, m)

		_, err := s.AnalyzeVariances(context.Background(), "2024-01-01", "2024-01-31", true)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	})
}

func TestAnalyzeVariances_AccountFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	d := &stubDetector{typ: insight.VarianceSeasonal, fn: func(in AccountInput) ([]insight.VarianceInsight, error) {
		switch in.Aggregate.AccountID {
		case "2000":
			panic("detector bug")
		case "3000":
			return nil, stderrors.New("query timeout")
		}
		return emitFor(insight.VarianceSeasonal)(in)
	}}
	s := newTestService(t, accountsLedger("1000", "2000", "3000", "4000"),
		WithLogger(zap.New(core)),
		WithMetrics(c),
		WithAccountDetectors(d),
		WithPortfolioDetectors())

	got, err := s.AnalyzeVariances(testutil.TestContext(t), "2024-01-01", "2024-01-31", true)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "1000", got[0].AccountID)
	assert.Equal(t, "4000", got[1].AccountID)

	failures := logs.FilterMessage("account analysis failed, skipping")
	assert.Equal(t, 2, failures.Len())
	assert.Equal(t, 2.0, promtest.ToFloat64(c.AccountFailures.WithLabelValues("seasonal")))
}

func TestAnalyzeVariances_PortfolioDetectorPanicIsIsolated(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	broken := &stubPortfolioDetector{typ: insight.VarianceRatio, fn: func(PortfolioInput) ([]insight.VarianceInsight, error) {
		panic("ratio bug")
	}}
	fine := &stubPortfolioDetector{typ: insight.VarianceRatio, fn: func(PortfolioInput) ([]insight.VarianceInsight, error) {
		return []insight.VarianceInsight{{
			VarianceType:    insight.VarianceRatio,
			Severity:        insight.SeverityHigh,
			AccountID:       RatioCurrent,
			ConfidenceScore: 0.9,
		}}, nil
	}}
	s := newTestService(t, accountsLedger("1000"),
		WithLogger(zap.New(core)),
		WithMetrics(c),
		WithAccountDetectors(),
		WithPortfolioDetectors(broken, fine))

	got, err := s.AnalyzeVariances(testutil.TestContext(t), "2024-01-01", "2024-01-31", true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, RatioCurrent, got[0].AccountID)

	failures := logs.FilterMessage("account analysis failed, skipping")
	require.Equal(t, 1, failures.Len())
	assert.Equal(t, "portfolio", failures.All()[0].ContextMap()["account_id"])
	assert.Equal(t, 1.0, promtest.ToFloat64(c.AccountFailures.WithLabelValues("ratio")))
}

func TestAnalyzeVariances_IncludeBudget(t *testing.T) {
	budget := &stubDetector{typ: insight.VarianceBudget, fn: emitFor(insight.VarianceBudget)}
	trend := &stubDetector{typ: insight.VarianceTrend, fn: emitFor(insight.VarianceTrend)}
	s := newTestService(t, accountsLedger("1000", "2000"),
		WithAccountDetectors(budget, trend), WithPortfolioDetectors())
	ctx := testutil.TestContext(t)

	got, err := s.AnalyzeVariances(ctx, "2024-01-01", "2024-01-31", false)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(0), budget.calls.Load())
	for _, v := range got {
		assert.Equal(t, insight.VarianceTrend, v.VarianceType)
	}

	got, err = s.AnalyzeVariances(ctx, "2024-01-01", "2024-01-31", true)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, int32(2), budget.calls.Load())
	assert.Equal(t, insight.VarianceBudget, got[0].VarianceType, "detector order is kept within an account")
}

func TestAnalyzeVariances_RecordsMetrics(t *testing.T) {
	c, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	s := newTestService(t, decemberLedger(), WithMetrics(c))
	ctx := testutil.TestContext(t)

	_, err = s.AnalyzeVariances(ctx, "2024-12-01", "2024-12-31", true)
	require.NoError(t, err)
	_, err = s.AnalyzeVariances(ctx, "2024-12-31", "2024-12-01", true)
	require.Error(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(c.AnalysisRuns.WithLabelValues("analyze_variances", "success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.AnalysisRuns.WithLabelValues("analyze_variances", "error")))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.LedgerQueries.WithLabelValues("sum_by_account", "success")))
	assert.Equal(t, 4.0, promtest.ToFloat64(c.LedgerQueries.WithLabelValues("sum_by_account_type", "success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.InsightsEmitted.WithLabelValues("ratio", "critical")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.InsightsEmitted.WithLabelValues("trend", "medium")))
}

func trendLedger() *repository.MemoryLedger {
	b := fixtures.NewLedgerBuilder().
		Account("4000", "Sales", ledger.ClassificationIncome).
		Account("5000", "Rent", ledger.ClassificationExpense).
		Account("6000", "Supplies", ledger.ClassificationExpense).
		Account("7000", "Legacy", ledger.ClassificationExpense)
	b.Monthly("4000", "2024-01", 100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210)
	b.Monthly("5000", "2024-11", 900, 900)
	b.Monthly("6000", "2024-07", 50, 50, 50, 50, 50, 50)
	b.Monthly("7000", "2022-01", 10, 10, 10, 10)
	return repository.NewMemoryLedger(b.Build())
}

func TestAnalyzeTrends(t *testing.T) {
	s := newTestService(t, trendLedger(), WithClock(testutil.FixedClock(t, "2025-01-20")))

	got, err := s.AnalyzeTrends(testutil.TestContext(t), 0)
	require.NoError(t, err)
	require.Len(t, got, 2, "rent has too few months and legacy is inactive")

	assert.Equal(t, "4000", got[0].AccountID)
	assert.Equal(t, insight.TrendIncreasing, got[0].TrendDirection)
	assert.InDelta(t, 1.0, got[0].TrendStrength, 1e-9)
	assert.Len(t, got[0].DataPoints, 12)
	assert.Equal(t, "2024-01", got[0].DataPoints[0].Period)
	assert.InDelta(t, 220.0, got[0].Projections[insight.ProjectionNextMonth], 1e-6)

	assert.Equal(t, "6000", got[1].AccountID)
	assert.Equal(t, insight.TrendStable, got[1].TrendDirection)
}

func TestAnalyzeTrends_LookbackWindow(t *testing.T) {
	s := newTestService(t, trendLedger(), WithClock(testutil.FixedClock(t, "2025-01-20")))

	got, err := s.AnalyzeTrends(testutil.TestContext(t), 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0].DataPoints, 3)
	assert.Equal(t, "2024-10", got[0].DataPoints[0].Period)
	assert.Equal(t, "2024-12", got[0].DataPoints[2].Period)
}

func TestAnalyzeTrends_ExcludesMonthInProgress(t *testing.T) {
	s := newTestService(t, trendLedger(), WithClock(testutil.FixedClock(t, "2024-12-20")))

	got, err := s.AnalyzeTrends(testutil.TestContext(t), 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "4000", got[0].AccountID)
	assert.Equal(t, "2024-11", got[0].DataPoints[len(got[0].DataPoints)-1].Period)
}

func TestAnalyzeTrends_ConstantDailyRateIsStable(t *testing.T) {
	daily := make([]float64, 370)
	for i := range daily {
		daily[i] = 10
	}
	b := fixtures.NewLedgerBuilder().Account("5100", "Utilities", ledger.ClassificationExpense)
	b.Daily("5100", "2025-10-01", daily...)

	s := newTestService(t, repository.NewMemoryLedger(b.Build()), WithClock(testutil.FixedClock(t, "2026-10-05")))
	got, err := s.AnalyzeTrends(testutil.TestContext(t), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	trend := got[0]
	require.Len(t, trend.DataPoints, 12, "whole months only")
	assert.Equal(t, "2025-10", trend.DataPoints[0].Period)
	assert.Equal(t, "2026-09", trend.DataPoints[11].Period)
	assert.Equal(t, insight.TrendStable, trend.TrendDirection)
	assert.Less(t, trend.TrendStrength, 0.05)
	assert.Less(t, trend.VolatilityScore, 0.05)
}

func TestAnalyzeTrends_AccountFailureIsSkipped(t *testing.T) {
	c, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	m := new(mocks.Ledger)
	m.On("ListActiveAccounts", mock.Anything, mock.Anything).Return([]ledger.Account{
		{ID: "a", Name: "Broken"},
		{ID: "b", Name: "Fine"},
	}, nil)
	m.On("SumByAccountMonthly", mock.Anything, "a", mock.Anything).Return(nil, stderrors.New("timeout"))
	m.On("SumByAccountMonthly", mock.Anything, "b", mock.Anything).Return([]ledger.PeriodAmount{
		{Period: "2024-10", Amount: decimal.NewFromInt(1)},
		{Period: "2024-11", Amount: decimal.NewFromInt(2)},
		{Period: "2024-12", Amount: decimal.NewFromInt(3)},
	}, nil)

	s := newTestService(t, m, WithMetrics(c), WithClock(testutil.FixedClock(t, "2024-12-20")))
	got, err := s.AnalyzeTrends(testutil.TestContext(t), 6)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].AccountID)
	assert.Equal(t, 1.0, promtest.ToFloat64(c.AccountFailures.WithLabelValues("trend_analyzer")))
	m.AssertExpectations(t)
}

func TestAnalyzeTrends_ListFailureIsDataUnavailable(t *testing.T) {
	m := new(mocks.Ledger)
	m.On("ListActiveAccounts", mock.Anything, mock.Anything).Return(nil, stderrors.New("down"))
	s := newTestService(t, m)

	_, err := s.AnalyzeTrends(context.Background(), 12)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDataUnavailable))
}

func anomalyLedger() *repository.MemoryLedger {
	b := fixtures.NewLedgerBuilder().
		Account("4000", "Sales", ledger.ClassificationIncome).
		Account("5000", "Supplies", ledger.ClassificationExpense)
	b.Daily("4000", "2024-03-01", 100, 100, 100, 100, 100, 100, 100, 100, 100, 1000)
	b.Daily("5000", "2024-03-01", 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 1000)
	return repository.NewMemoryLedger(b.Build())
}

func TestDetectAnomalies(t *testing.T) {
	s := newTestService(t, anomalyLedger())

	got, err := s.DetectAnomalies(testutil.TestContext(t), "2024-03-01", "2024-03-31", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "5000", got[0].AccountID, "sorted by confidence")
	assert.InDelta(t, 0.723, got[0].ConfidenceScore, 0.001)
	assert.InDelta(t, 160.0, got[0].ExpectedValue, 1e-9)
	assert.Equal(t, "4000", got[1].AccountID)
	for _, a := range got {
		assert.Equal(t, insight.VarianceOutlier, a.VarianceType)
		assert.Equal(t, 2.0, a.Metadata["sensitivity"])
	}
}

func TestDetectAnomalies_Sensitivity(t *testing.T) {
	s := newTestService(t, anomalyLedger())

	got, err := s.DetectAnomalies(testutil.TestContext(t), "2024-03-01", "2024-03-31", 3.0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "5000", got[0].AccountID)
	assert.Equal(t, 3.0, got[0].Metadata["sensitivity"])
}

func TestGenerateComprehensiveInsights(t *testing.T) {
	clock := testutil.FixedClock(t, "2025-01-10")
	s := newTestService(t, decemberLedger(), WithClock(clock))
	ctx := testutil.TestContext(t)

	got, err := s.GenerateComprehensiveInsights(ctx, "2024-12-01", "2024-12-31")
	require.NoError(t, err)

	assert.Equal(t, insight.Period{StartDate: "2024-12-01", EndDate: "2024-12-31"}, got.Period)
	assert.Equal(t, clock().UTC(), got.GeneratedAt)
	assert.Len(t, got.Variances, 2)
	assert.Empty(t, got.Anomalies, "one posting a month is too sparse for daily anomalies")
	require.Len(t, got.Trends, 2)

	assert.Equal(t, len(got.Variances)+len(got.Anomalies), got.TotalInsights)
	assert.Equal(t, got.TotalInsights, got.SeveritySummary.Total())
	assert.Equal(t, insight.SeverityCounts{Medium: 1, Critical: 1}, got.SeveritySummary)

	summary := got.ExecutiveSummary
	assert.Equal(t, got.SeveritySummary, summary.SeverityCounts)
	assert.Equal(t, 1, summary.TrendingUp)
	assert.Equal(t, 0, summary.TrendingDown)
	assert.Equal(t, []string{"Sales trending upward"}, summary.KeyTrends)
	assert.Equal(t, []string{got.Variances[0].Description}, summary.TopConcerns)
	assert.NotEmpty(t, summary.TopRecommendations)

	again, err := s.GenerateComprehensiveInsights(ctx, "2024-12-01", "2024-12-31")
	require.NoError(t, err)
	a, _ := json.Marshal(got)
	b, _ := json.Marshal(again)
	assert.JSONEq(t, string(a), string(b))
}

func TestGenerateComprehensiveInsights_CancelledContext(t *testing.T) {
	s := newTestService(t, decemberLedger())
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := s.GenerateComprehensiveInsights(ctx, "2024-12-01", "2024-12-31")
	assert.Error(t, err)
}
