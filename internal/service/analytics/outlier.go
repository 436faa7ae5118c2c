package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/davidleathers/ledger-insights/internal/domain/insight"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/stats"
)

// outlierDetector flags individual transactions far from the account's mean
type outlierDetector struct {
	cfg Config
}

func newOutlierDetector(cfg Config) *outlierDetector {
	return &outlierDetector{cfg: cfg}
}

func (d *outlierDetector) Type() insight.VarianceType { return insight.VarianceOutlier }

func (d *outlierDetector) Detect(ctx context.Context, in AccountInput) ([]insight.VarianceInsight, error) {
	if in.Aggregate.TransactionCount <= d.cfg.Outlier.MinTransactions {
		return nil, nil
	}
	entries, err := in.Ledger.ListEntries(ctx, in.Aggregate.AccountID, in.Range)
	if err != nil {
		return nil, err
	}
	if len(entries) <= d.cfg.Outlier.MinTransactions {
		return nil, nil
	}

	amounts := make([]float64, len(entries))
	for i, e := range entries {
		amounts[i], _ = e.Amount.Float64()
	}
	mean := stats.Mean(amounts)
	stdev := stats.SampleStdDev(amounts)
	if stdev == 0 {
		return nil, nil
	}

	name := in.Aggregate.AccountName
	var out []insight.VarianceInsight
	for i, e := range entries {
		z := stats.ZScore(amounts[i], mean, stdev)
		if z <= d.cfg.Outlier.ZThreshold {
			continue
		}
		m := insight.Measure{Expected: mean, Actual: amounts[i]}
		day := e.Date.Format(ledger.DateLayout)
		out = append(out, insight.NewVarianceInsight(
			insight.VarianceOutlier, d.cfg.ClassifySeverity(m.Percentage()), in.Aggregate.AccountID, name, m,
			fmt.Sprintf("Unusual %s transaction of %.2f on %s (%.1f standard deviations from mean)", name, amounts[i], day, z),
			[]string{"Verify transaction authorization", "Confirm correct account coding"},
			math.Min(d.cfg.Outlier.MaxConfidence, z/d.cfg.Outlier.ZDivisor),
			map[string]interface{}{
				"z_score":           z,
				"transaction_id":    e.ID.String(),
				"transaction_date":  day,
				"transaction_count": len(entries),
			},
		))
	}
	return out, nil
}

// dailyAnomalyDetector applies the z-score test to daily totals rather than
// individual transactions, with a caller-supplied sensitivity.
type dailyAnomalyDetector struct {
	cfg         Config
	sensitivity float64
}

func newDailyAnomalyDetector(cfg Config, sensitivity float64) *dailyAnomalyDetector {
	if sensitivity <= 0 {
		sensitivity = cfg.Anomaly.DefaultSensitivity
	}
	return &dailyAnomalyDetector{cfg: cfg, sensitivity: sensitivity}
}

func (d *dailyAnomalyDetector) Type() insight.VarianceType { return insight.VarianceOutlier }

func (d *dailyAnomalyDetector) Detect(ctx context.Context, in AccountInput) ([]insight.VarianceInsight, error) {
	daily, err := in.Ledger.SumByAccountDaily(ctx, in.Aggregate.AccountID, in.Range)
	if err != nil {
		return nil, err
	}
	if len(daily) <= d.cfg.Anomaly.MinDays {
		return nil, nil
	}

	amounts := make([]float64, len(daily))
	for i, p := range daily {
		amounts[i] = p.Float()
	}
	mean := stats.Mean(amounts)
	stdev := stats.SampleStdDev(amounts)
	if stdev == 0 {
		return nil, nil
	}

	name := in.Aggregate.AccountName
	if name == "" {
		name = daily[0].AccountName
	}

	var out []insight.VarianceInsight
	for i, p := range daily {
		z := stats.ZScore(amounts[i], mean, stdev)
		if z <= d.sensitivity {
			continue
		}
		m := insight.Measure{Expected: mean, Actual: amounts[i]}
		direction := "spike"
		if m.Amount() < 0 {
			direction = "drop"
		}
		out = append(out, insight.NewVarianceInsight(
			insight.VarianceOutlier, d.cfg.ClassifySeverity(m.Percentage()), in.Aggregate.AccountID, name, m,
			fmt.Sprintf("Daily %s in %s on %s: %.2f vs typical %.2f", direction, name, p.Period, amounts[i], mean),
			[]string{"Review transactions posted on this date", "Check for duplicate or misdated entries"},
			math.Min(d.cfg.Anomaly.MaxConfidence, z/d.cfg.Anomaly.ZDivisor),
			map[string]interface{}{
				"z_score":     z,
				"date":        p.Period,
				"sensitivity": d.sensitivity,
				"days":        len(daily),
			},
		))
	}
	return out, nil
}
