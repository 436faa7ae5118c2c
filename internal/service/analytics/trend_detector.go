package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/davidleathers/ledger-insights/internal/domain/insight"
	"github.com/davidleathers/ledger-insights/internal/stats"
)

// trendDetector flags a last month that breaks from the fitted linear trend of
// the trailing window.
type trendDetector struct {
	cfg Config
}

func newTrendDetector(cfg Config) *trendDetector {
	return &trendDetector{cfg: cfg}
}

func (d *trendDetector) Type() insight.VarianceType { return insight.VarianceTrend }

func (d *trendDetector) Detect(ctx context.Context, in AccountInput) ([]insight.VarianceInsight, error) {
	window := in.Range.TrailingDays(d.cfg.Trend.LookbackDays)
	monthly, err := in.Ledger.SumByAccountMonthly(ctx, in.Aggregate.AccountID, window)
	if err != nil {
		return nil, err
	}
	if len(monthly) < d.cfg.Trend.MinPoints {
		return nil, nil
	}

	amounts := make([]float64, len(monthly))
	for i, p := range monthly {
		amounts[i] = p.Float()
	}

	strength := stats.TrendStrength(amounts)
	slope, _ := stats.LinearFit(amounts)
	m := insight.Measure{
		Expected: stats.Extrapolate(amounts, 1),
		Actual:   amounts[len(amounts)-1],
	}
	pct := m.Percentage()
	if math.Abs(pct) <= d.cfg.Trend.MinVariance {
		return nil, nil
	}

	name := in.Aggregate.AccountName
	last := monthly[len(monthly)-1].Period
	description := fmt.Sprintf("%s in %s deviates %.1f%% from its %d-month trend", name, last, pct*100, len(amounts))

	var recs []string
	if pct > 0 {
		recs = []string{"Investigate drivers of the trend break", "Validate month-end accruals"}
	} else {
		recs = []string{"Investigate drivers of the trend break", "Check for missing or delayed postings"}
	}

	return []insight.VarianceInsight{
		insight.NewVarianceInsight(
			insight.VarianceTrend, d.cfg.ClassifySeverity(pct), in.Aggregate.AccountID, name, m,
			description, recs, math.Min(d.cfg.Trend.MaxConfidence, math.Abs(strength)),
			map[string]interface{}{
				"trend_strength": strength,
				"slope":          slope,
				"data_points":    len(amounts),
				"period":         last,
			},
		),
	}, nil
}
