package analytics

import (
	"context"

	"github.com/davidleathers/ledger-insights/internal/domain/insight"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
)

// Service defines the variance, trend and anomaly engine. Dates are YYYY-MM-DD
// calendar dates and ranges are inclusive.
type Service interface {
	// AnalyzeVariances runs the budget (when includeBudget is set), trend, seasonal
	// and outlier detectors per account plus the ratio detector, then filters by
	// the confidence threshold and ranks by severity and confidence.
	AnalyzeVariances(ctx context.Context, startDate, endDate string, includeBudget bool) ([]insight.VarianceInsight, error)

	// AnalyzeTrends characterizes every account with enough monthly data in the
	// lookback window ending today. lookbackMonths <= 0 selects the configured default.
	AnalyzeTrends(ctx context.Context, lookbackMonths int) ([]insight.TrendAnalysis, error)

	// DetectAnomalies runs the daily-aggregate z-score detector and sorts by
	// confidence. sensitivity <= 0 selects the configured default.
	DetectAnomalies(ctx context.Context, startDate, endDate string, sensitivity float64) ([]insight.VarianceInsight, error)

	// GenerateComprehensiveInsights composes the three calls above with the ranker summary
	GenerateComprehensiveInsights(ctx context.Context, startDate, endDate string) (*insight.ComprehensiveInsights, error)
}

// AccountInput is everything a per-account detector may look at. PriorYear is nil
// when the account had no entries in the same period one year earlier.
type AccountInput struct {
	Range     ledger.DateRange
	Aggregate ledger.AccountAggregate
	PriorYear *ledger.AccountAggregate
	Ledger    ledger.Reader
}

// AccountDetector is one per-account variance strategy. Returning no insights
// is the normal outcome for insufficient data; errors are reserved for failed
// ledger queries and are isolated to the account.
type AccountDetector interface {
	Type() insight.VarianceType
	Detect(ctx context.Context, in AccountInput) ([]insight.VarianceInsight, error)
}

// PortfolioInput is the input of detectors that reason over the whole ledger
type PortfolioInput struct {
	Range  ledger.DateRange
	Ledger ledger.Reader
}

// PortfolioDetector is a global variance strategy such as the ratio detector
type PortfolioDetector interface {
	Type() insight.VarianceType
	Detect(ctx context.Context, in PortfolioInput) ([]insight.VarianceInsight, error)
}
