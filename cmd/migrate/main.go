package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	"github.com/davidleathers/ledger-insights/internal/infrastructure/config"
	"github.com/davidleathers/ledger-insights/internal/infrastructure/telemetry"
	"github.com/davidleathers/ledger-insights/migrations"
)

// migrator is the part of *migrate.Migrate the command drives
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		databaseURL = flag.String("database", "", "Database URL (overrides database.url)")
		action      = flag.String("action", "up", "Migration action: up, down, status")
		steps       = flag.Int("steps", 0, "Number of migrations to apply or roll back (0 = all)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	url := cfg.Database.URL
	if *databaseURL != "" {
		url = *databaseURL
	}
	if url == "" {
		logger.Fatal("database url is required")
	}

	m, err := migrations.New(url)
	if err != nil {
		logger.Fatal("failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	if err := run(m, *action, *steps, logger); err != nil {
		logger.Fatal("migration failed", zap.String("action", *action), zap.Error(err))
	}
}

func run(m migrator, action string, steps int, logger *zap.Logger) error {
	var err error
	switch action {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "status":
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already up to date")
		err = nil
	}
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info("no migrations applied")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("migration status", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
