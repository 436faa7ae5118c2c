package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
	"github.com/davidleathers/ledger-insights/internal/infrastructure/config"
	"github.com/davidleathers/ledger-insights/internal/infrastructure/telemetry"
	"github.com/davidleathers/ledger-insights/internal/metrics"
	"github.com/davidleathers/ledger-insights/internal/service/analytics"
)

const version = "0.1.0"

// Output modes
const (
	modeVariances = "variances"
	modeTrends    = "trends"
	modeAnomalies = "anomalies"
	modeAll       = "all"
)

type options struct {
	configPath  string
	source      string
	csvPath     string
	databaseURL string
	start       string
	end         string
	mode        string
	lookback    int
	sensitivity float64
	noBudget    bool
	metricsFile string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.source, "ledger", "", "Ledger source: csv or postgres (overrides ledger.source)")
	flag.StringVar(&opts.csvPath, "csv", "", "CSV ledger file (overrides ledger.csv_path)")
	flag.StringVar(&opts.databaseURL, "database", "", "Database URL (overrides database.url)")
	flag.StringVar(&opts.start, "start", "", "Start date, YYYY-MM-DD")
	flag.StringVar(&opts.end, "end", "", "End date, YYYY-MM-DD")
	flag.StringVar(&opts.mode, "mode", modeAll, "Output: variances, trends, anomalies or all")
	flag.IntVar(&opts.lookback, "lookback", 0, "Trend lookback in months (0 = configured default)")
	flag.Float64Var(&opts.sensitivity, "sensitivity", 0, "Anomaly z-score sensitivity (0 = configured default)")
	flag.BoolVar(&opts.noBudget, "no-budget", false, "Skip the budget detector")
	flag.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	opts.apply(cfg)

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.InitTracing(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to shut down tracing", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	if err := run(ctx, cfg, opts, reg, logger, os.Stdout); err != nil {
		logger.Error("analysis failed", zap.Error(err))
		stop()
		os.Exit(1)
	}

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			logger.Warn("failed to write metrics", zap.String("path", opts.metricsFile), zap.Error(err))
		}
	}
}

// apply lets flags override the loaded configuration
func (o options) apply(cfg *config.Config) {
	if o.source != "" {
		cfg.Ledger.Source = o.source
	}
	if o.csvPath != "" {
		cfg.Ledger.CSVPath = o.csvPath
	}
	if o.databaseURL != "" {
		cfg.Database.URL = o.databaseURL
	}
}

func (o options) validate() error {
	switch o.mode {
	case modeVariances, modeAnomalies, modeAll:
		if o.start == "" || o.end == "" {
			return fmt.Errorf("-start and -end are required for mode %q", o.mode)
		}
	case modeTrends:
	default:
		return fmt.Errorf("unknown mode %q", o.mode)
	}
	return nil
}

// run builds the ledger and the engine, runs the selected analysis and writes
// the result as indented JSON to out
func run(ctx context.Context, cfg *config.Config, opts options, reg prometheus.Registerer, logger *zap.Logger, out io.Writer) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if err := cfg.ValidateSource(); err != nil {
		return err
	}

	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return errors.Wrap(err, "failed to register metrics")
	}

	reader, closeLedger, err := buildLedger(ctx, cfg, collector, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	svc, err := analytics.NewService(reader, cfg.Analysis,
		analytics.WithLogger(logger),
		analytics.WithMetrics(collector))
	if err != nil {
		return err
	}

	logger.Info("running analysis",
		zap.String("mode", opts.mode),
		zap.String("ledger", cfg.Ledger.Source),
		zap.String("start", opts.start),
		zap.String("end", opts.end))

	var result any
	switch opts.mode {
	case modeVariances:
		result, err = svc.AnalyzeVariances(ctx, opts.start, opts.end, !opts.noBudget)
	case modeTrends:
		result, err = svc.AnalyzeTrends(ctx, opts.lookback)
	case modeAnomalies:
		result, err = svc.DetectAnomalies(ctx, opts.start, opts.end, opts.sensitivity)
	case modeAll:
		result, err = svc.GenerateComprehensiveInsights(ctx, opts.start, opts.end)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
