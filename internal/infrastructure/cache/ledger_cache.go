package cache

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/metrics"
)

// CachedLedger serves repeated ledger queries from the cache. Cache failures
// are logged and the query falls through to the wrapped ledger; ledger errors
// are never cached.
type CachedLedger struct {
	next    ledger.Reader
	cache   Cache
	ttl     time.Duration
	prefix  string
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewCachedLedger wraps next. A nil collector disables cache metrics.
func NewCachedLedger(next ledger.Reader, c Cache, ttl time.Duration, prefix string, logger *zap.Logger, m *metrics.Collector) *CachedLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLedger{next: next, cache: c, ttl: ttl, prefix: prefix, logger: logger, metrics: m}
}

func (l *CachedLedger) key(query string, r ledger.DateRange, parts ...string) string {
	segments := append([]string{query, r.Start.Format(ledger.DateLayout), r.End.Format(ledger.DateLayout)}, parts...)
	return l.prefix + strings.Join(segments, ":")
}

func cached[T any](ctx context.Context, l *CachedLedger, key string, load func() (T, error)) (T, error) {
	var value T
	err := l.cache.GetJSON(ctx, key, &value)
	if err == nil {
		l.metrics.RecordCacheLookup(true)
		return value, nil
	}
	l.metrics.RecordCacheLookup(false)

	var miss ErrCacheKeyNotFound
	var corrupt ErrCacheCorrupt
	switch {
	case stderrors.As(err, &miss):
	case stderrors.As(err, &corrupt):
		// evict now so a failing load below does not leave it in place
		if err := l.cache.Delete(ctx, key); err != nil {
			l.logger.Warn("ledger cache evict failed", zap.String("key", key), zap.Error(err))
		}
	default:
		l.logger.Warn("ledger cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err = load()
	if err != nil {
		return value, err
	}
	if err := l.cache.SetJSON(ctx, key, value, l.ttl); err != nil {
		l.logger.Warn("ledger cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

func (l *CachedLedger) SumByAccount(ctx context.Context, r ledger.DateRange) ([]ledger.AccountAggregate, error) {
	return cached(ctx, l, l.key("sum_by_account", r), func() ([]ledger.AccountAggregate, error) {
		return l.next.SumByAccount(ctx, r)
	})
}

func (l *CachedLedger) SumByAccountMonthly(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	return cached(ctx, l, l.key("monthly", r, accountID), func() ([]ledger.PeriodAmount, error) {
		return l.next.SumByAccountMonthly(ctx, accountID, r)
	})
}

func (l *CachedLedger) SumByAccountDaily(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	return cached(ctx, l, l.key("daily", r, accountID), func() ([]ledger.PeriodAmount, error) {
		return l.next.SumByAccountDaily(ctx, accountID, r)
	})
}

func (l *CachedLedger) SumByAccountType(ctx context.Context, types []ledger.Classification, r ledger.DateRange) (decimal.Decimal, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return cached(ctx, l, l.key("by_type", r, strings.Join(names, ",")), func() (decimal.Decimal, error) {
		return l.next.SumByAccountType(ctx, types, r)
	})
}

func (l *CachedLedger) ListActiveAccounts(ctx context.Context, r ledger.DateRange) ([]ledger.Account, error) {
	return cached(ctx, l, l.key("active_accounts", r), func() ([]ledger.Account, error) {
		return l.next.ListActiveAccounts(ctx, r)
	})
}

func (l *CachedLedger) ListEntries(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.Entry, error) {
	return cached(ctx, l, l.key("entries", r, accountID), func() ([]ledger.Entry, error) {
		return l.next.ListEntries(ctx, accountID, r)
	})
}
