package analytics

import (
	"context"
	"fmt"

	"github.com/davidleathers/ledger-insights/internal/domain/insight"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
)

// budgetDetector compares actuals to a synthetic budget derived from the actuals
// themselves (income x1.1, expense x0.9). There is no budgeting subsystem behind
// it; swap this detector out once real budget figures exist.
type budgetDetector struct {
	cfg Config
}

func newBudgetDetector(cfg Config) *budgetDetector {
	return &budgetDetector{cfg: cfg}
}

func (d *budgetDetector) Type() insight.VarianceType { return insight.VarianceBudget }

func (d *budgetDetector) Detect(_ context.Context, in AccountInput) ([]insight.VarianceInsight, error) {
	agg := in.Aggregate

	var multiplier float64
	switch agg.Classification {
	case ledger.ClassificationIncome:
		multiplier = d.cfg.Budget.IncomeMultiplier
	case ledger.ClassificationExpense:
		multiplier = d.cfg.Budget.ExpenseMultiplier
	default:
		return nil, nil
	}

	actual := agg.Net()
	m := insight.Measure{Expected: actual * multiplier, Actual: actual}
	severity := d.cfg.ClassifySeverity(m.Percentage())
	if severity.Rank() <= insight.SeverityLow.Rank() {
		return nil, nil
	}

	var description string
	var recs []string
	if agg.Classification == ledger.ClassificationIncome {
		description = fmt.Sprintf("%s revenue is %.1f%% %s budget", agg.AccountName, abs(m.Percentage())*100, overUnder(m.Amount()))
		if m.Amount() < 0 {
			recs = []string{"Review sales pipeline and pricing", "Investigate revenue shortfall drivers"}
		} else {
			recs = []string{"Confirm revenue recognition timing", "Update forecast to reflect outperformance"}
		}
	} else {
		description = fmt.Sprintf("%s spending is %.1f%% %s budget", agg.AccountName, abs(m.Percentage())*100, overUnder(m.Amount()))
		if m.Amount() > 0 {
			recs = []string{"Review discretionary spending", "Tighten approval workflow for this account"}
		} else {
			recs = []string{"Confirm no deferred or missing invoices", "Reallocate unused budget"}
		}
	}

	return []insight.VarianceInsight{
		insight.NewVarianceInsight(
			insight.VarianceBudget, severity, agg.AccountID, agg.AccountName, m,
			description, recs, d.cfg.Budget.Confidence,
			map[string]interface{}{
				"budget_source": "synthetic",
				"multiplier":    multiplier,
				"account_type":  string(agg.Classification),
			},
		),
	}, nil
}

func overUnder(amount float64) string {
	if amount < 0 {
		return "under"
	}
	return "over"
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
