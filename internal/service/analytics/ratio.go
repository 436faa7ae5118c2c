package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/ledger-insights/internal/domain/insight"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
)

// Ratio insight account identifiers
const (
	RatioProfitMargin = "profit_margin"
	RatioCurrent      = "current_ratio"
)

// ratioDetector checks two portfolio-wide ratios against fixed expectations
type ratioDetector struct {
	cfg Config
}

func newRatioDetector(cfg Config) *ratioDetector {
	return &ratioDetector{cfg: cfg}
}

func (d *ratioDetector) Type() insight.VarianceType { return insight.VarianceRatio }

func (d *ratioDetector) Detect(ctx context.Context, in PortfolioInput) ([]insight.VarianceInsight, error) {
	sum := func(c ledger.Classification) (decimal.Decimal, error) {
		return in.Ledger.SumByAccountType(ctx, []ledger.Classification{c}, in.Range)
	}

	revenue, err := sum(ledger.ClassificationIncome)
	if err != nil {
		return nil, err
	}
	expenses, err := sum(ledger.ClassificationExpense)
	if err != nil {
		return nil, err
	}
	assets, err := sum(ledger.ClassificationAsset)
	if err != nil {
		return nil, err
	}
	liabilities, err := sum(ledger.ClassificationLiability)
	if err != nil {
		return nil, err
	}

	var out []insight.VarianceInsight
	if !revenue.IsZero() {
		margin, _ := revenue.Sub(expenses).Div(revenue).Float64()
		if in := d.profitMargin(margin); in != nil {
			out = append(out, *in)
		}
	}
	if !liabilities.IsZero() {
		current, _ := assets.Div(liabilities).Float64()
		if in := d.currentRatio(current); in != nil {
			out = append(out, *in)
		}
	}
	return out, nil
}

func (d *ratioDetector) profitMargin(actual float64) *insight.VarianceInsight {
	return d.evaluate(RatioProfitMargin, "Profit Margin", actual,
		d.cfg.Ratio.ExpectedProfitMargin, d.cfg.Ratio.ProfitMarginTolerance, d.cfg.Ratio.ProfitMarginConfidence,
		[]string{"Review pricing strategy", "Analyze cost structure for savings"},
		[]string{"Reinvest surplus margin", "Confirm expense completeness"})
}

func (d *ratioDetector) currentRatio(actual float64) *insight.VarianceInsight {
	return d.evaluate(RatioCurrent, "Current Ratio", actual,
		d.cfg.Ratio.ExpectedCurrentRatio, d.cfg.Ratio.CurrentRatioTolerance, d.cfg.Ratio.CurrentRatioConfidence,
		[]string{"Improve working capital management", "Review short-term debt obligations"},
		[]string{"Deploy idle cash", "Review receivables collection targets"})
}

// evaluate emits an insight when |actual - expected| exceeds the tolerance. The
// percentage is taken against the signed expected ratio.
func (d *ratioDetector) evaluate(
	id, name string,
	actual, expected, tolerance, confidence float64,
	belowRecs, aboveRecs []string,
) *insight.VarianceInsight {
	diff := actual - expected
	if math.Abs(diff) <= tolerance {
		return nil
	}
	m := insight.Measure{Expected: expected, Actual: actual, Base: expected}
	recs := aboveRecs
	if diff < 0 {
		recs = belowRecs
	}
	in := insight.NewVarianceInsight(
		insight.VarianceRatio, d.cfg.ClassifySeverity(m.Percentage()), id, name, m,
		fmt.Sprintf("%s of %.2f vs expected %.2f", name, actual, expected),
		recs, confidence,
		map[string]interface{}{"ratio": id},
	)
	return &in
}
