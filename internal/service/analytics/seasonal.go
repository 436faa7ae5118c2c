package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/davidleathers/ledger-insights/internal/domain/insight"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
)

// seasonalDetector compares the period total with the same calendar period one
// year earlier.
type seasonalDetector struct {
	cfg Config
}

func newSeasonalDetector(cfg Config) *seasonalDetector {
	return &seasonalDetector{cfg: cfg}
}

func (d *seasonalDetector) Type() insight.VarianceType { return insight.VarianceSeasonal }

func (d *seasonalDetector) Detect(_ context.Context, in AccountInput) ([]insight.VarianceInsight, error) {
	if in.PriorYear == nil {
		return nil, nil
	}
	m := insight.Measure{Expected: in.PriorYear.Net(), Actual: in.Aggregate.Net()}
	if m.Expected == 0 {
		return nil, nil
	}
	pct := m.Percentage()
	if math.Abs(pct) <= d.cfg.Seasonal.MinVariance {
		return nil, nil
	}

	prior := in.Range.PriorYear()
	name := in.Aggregate.AccountName
	direction := "up"
	recs := []string{"Compare against prior-year drivers", "Review seasonal staffing and inventory plans"}
	if pct < 0 {
		direction = "down"
		recs = []string{"Compare against prior-year drivers", "Check for lost customers or delayed billing"}
	}

	return []insight.VarianceInsight{
		insight.NewVarianceInsight(
			insight.VarianceSeasonal, d.cfg.ClassifySeverity(pct), in.Aggregate.AccountID, name, m,
			fmt.Sprintf("%s is %s %.1f%% versus the same period last year", name, direction, math.Abs(pct)*100),
			recs, d.cfg.Seasonal.Confidence,
			map[string]interface{}{
				"prior_period_start": prior.Start.Format(ledger.DateLayout),
				"prior_period_end":   prior.End.Format(ledger.DateLayout),
			},
		),
	}, nil
}
