package analytics

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/metrics"
)

// observedLedger counts every ledger query by name and outcome
type observedLedger struct {
	next    ledger.Reader
	metrics *metrics.Collector
}

func observe(next ledger.Reader, c *metrics.Collector) ledger.Reader {
	if c == nil {
		return next
	}
	return &observedLedger{next: next, metrics: c}
}

func (o *observedLedger) SumByAccount(ctx context.Context, r ledger.DateRange) ([]ledger.AccountAggregate, error) {
	out, err := o.next.SumByAccount(ctx, r)
	o.metrics.RecordLedgerQuery("sum_by_account", err)
	return out, err
}

func (o *observedLedger) SumByAccountMonthly(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	out, err := o.next.SumByAccountMonthly(ctx, accountID, r)
	o.metrics.RecordLedgerQuery("sum_by_account_monthly", err)
	return out, err
}

func (o *observedLedger) SumByAccountDaily(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	out, err := o.next.SumByAccountDaily(ctx, accountID, r)
	o.metrics.RecordLedgerQuery("sum_by_account_daily", err)
	return out, err
}

func (o *observedLedger) SumByAccountType(ctx context.Context, types []ledger.Classification, r ledger.DateRange) (decimal.Decimal, error) {
	out, err := o.next.SumByAccountType(ctx, types, r)
	o.metrics.RecordLedgerQuery("sum_by_account_type", err)
	return out, err
}

func (o *observedLedger) ListActiveAccounts(ctx context.Context, r ledger.DateRange) ([]ledger.Account, error) {
	out, err := o.next.ListActiveAccounts(ctx, r)
	o.metrics.RecordLedgerQuery("list_active_accounts", err)
	return out, err
}

func (o *observedLedger) ListEntries(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.Entry, error) {
	out, err := o.next.ListEntries(ctx, accountID, r)
	o.metrics.RecordLedgerQuery("list_entries", err)
	return out, err
}
