package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/infrastructure/cache"
	"github.com/davidleathers/ledger-insights/internal/infrastructure/config"
	"github.com/davidleathers/ledger-insights/internal/infrastructure/database"
	"github.com/davidleathers/ledger-insights/internal/infrastructure/ratelimit"
	"github.com/davidleathers/ledger-insights/internal/infrastructure/repository"
	"github.com/davidleathers/ledger-insights/internal/metrics"
	"github.com/davidleathers/ledger-insights/migrations"
)

// buildLedger assembles source, rate limit and cache, innermost first. The
// returned func releases every connection that was opened.
func buildLedger(ctx context.Context, cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (ledger.Reader, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var reader ledger.Reader
	switch cfg.Ledger.Source {
	case config.SourceCSV:
		mem, err := repository.LoadCSVFile(cfg.Ledger.CSVPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("loaded csv ledger",
			zap.String("path", cfg.Ledger.CSVPath),
			zap.Int("entries", mem.Len()))
		reader = mem

	case config.SourcePostgres:
		if cfg.Database.AutoMigrate {
			if err := migrations.Up(cfg.Database.URL); err != nil {
				return nil, nil, err
			}
			logger.Info("database migrations applied")
		}
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		reader = repository.NewPostgresLedger(pool)

	default:
		return nil, nil, fmt.Errorf("unknown ledger source %q", cfg.Ledger.Source)
	}

	reader = ratelimit.New(reader, cfg.Ledger.Rate.QueriesPerSecond, cfg.Ledger.Rate.Burst)

	if cfg.Redis.Enabled() {
		rc, err := cache.NewRedisCache(cfg.Redis, logger)
		if err != nil {
			// the cache is an optimization, analysis runs without it
			logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
		} else {
			closers = append(closers, func() { _ = rc.Close() })
			reader = cache.NewCachedLedger(reader, rc, cfg.Redis.TTL, cfg.Redis.KeyPrefix, logger, collector)
		}
	}

	return reader, closeAll, nil
}
