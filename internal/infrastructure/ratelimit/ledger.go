// Package ratelimit bounds the query rate the analytics engine puts on a ledger.
package ratelimit

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
)

// Ledger waits on a token bucket before each query. A wait that fails because
// the context ended or the burst is too small surfaces as DataUnavailable.
type Ledger struct {
	next    ledger.Reader
	limiter *rate.Limiter
}

// New wraps next with a limiter of rps queries per second and the given burst.
// rps <= 0 disables limiting and returns next unchanged.
func New(next ledger.Reader, rps float64, burst int) ledger.Reader {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Ledger{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Ledger) wait(ctx context.Context, query string) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.NewDataUnavailableError(query).WithCause(err)
	}
	return nil
}

func (l *Ledger) SumByAccount(ctx context.Context, r ledger.DateRange) ([]ledger.AccountAggregate, error) {
	if err := l.wait(ctx, "sum_by_account"); err != nil {
		return nil, err
	}
	return l.next.SumByAccount(ctx, r)
}

func (l *Ledger) SumByAccountMonthly(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	if err := l.wait(ctx, "sum_by_account_monthly"); err != nil {
		return nil, err
	}
	return l.next.SumByAccountMonthly(ctx, accountID, r)
}

func (l *Ledger) SumByAccountDaily(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	if err := l.wait(ctx, "sum_by_account_daily"); err != nil {
		return nil, err
	}
	return l.next.SumByAccountDaily(ctx, accountID, r)
}

func (l *Ledger) SumByAccountType(ctx context.Context, types []ledger.Classification, r ledger.DateRange) (decimal.Decimal, error) {
	if err := l.wait(ctx, "sum_by_account_type"); err != nil {
		return decimal.Zero, err
	}
	return l.next.SumByAccountType(ctx, types, r)
}

func (l *Ledger) ListActiveAccounts(ctx context.Context, r ledger.DateRange) ([]ledger.Account, error) {
	if err := l.wait(ctx, "list_active_accounts"); err != nil {
		return nil, err
	}
	return l.next.ListActiveAccounts(ctx, r)
}

func (l *Ledger) ListEntries(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.Entry, error) {
	if err := l.wait(ctx, "list_entries"); err != nil {
		return nil, err
	}
	return l.next.ListEntries(ctx, accountID, r)
}
