package analytics

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
	"github.com/davidleathers/ledger-insights/internal/domain/insight"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/metrics"
)

const tracerName = "github.com/davidleathers/ledger-insights/analytics"

// portfolioAccount labels failures of detectors that span every account
const portfolioAccount = "portfolio"

// Option configures the service
type Option func(*service)

// WithLogger sets the logger used for per-account failures
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a Prometheus collector
func WithMetrics(c *metrics.Collector) Option {
	return func(s *service) { s.metrics = c }
}

// WithClock overrides "today" for AnalyzeTrends
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAccountDetectors replaces the per-account detectors run by AnalyzeVariances.
// Detectors run in the order given.
func WithAccountDetectors(detectors ...AccountDetector) Option {
	return func(s *service) { s.accountDetectors = detectors }
}

// WithPortfolioDetectors replaces the global detectors run by AnalyzeVariances
func WithPortfolioDetectors(detectors ...PortfolioDetector) Option {
	return func(s *service) { s.portfolioDetectors = detectors }
}

type service struct {
	ledger  ledger.Reader
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
	now     func() time.Time

	accountDetectors   []AccountDetector
	portfolioDetectors []PortfolioDetector
	analyzer           trendAnalyzer
}

// NewService creates the analytics engine over a read-only ledger. cfg is
// validated and copied; later changes to the caller's value have no effect.
func NewService(reader ledger.Reader, cfg Config, opts ...Option) (Service, error) {
	if reader == nil {
		return nil, errors.NewValidationError("MISSING_LEDGER", "ledger reader is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &service{
		cfg:      cfg,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		analyzer: trendAnalyzer{cfg: cfg.Analyzer},
		accountDetectors: []AccountDetector{
			newBudgetDetector(cfg),
			newTrendDetector(cfg),
			newSeasonalDetector(cfg),
			newOutlierDetector(cfg),
		},
		portfolioDetectors: []PortfolioDetector{
			newRatioDetector(cfg),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, d := range s.accountDetectors {
		if d == nil || !d.Type().Valid() {
			return nil, errors.NewValidationError("INVALID_DETECTOR", "account detector has an unknown variance type")
		}
	}
	for _, d := range s.portfolioDetectors {
		if d == nil || !d.Type().Valid() {
			return nil, errors.NewValidationError("INVALID_DETECTOR", "portfolio detector has an unknown variance type")
		}
	}
	s.ledger = observe(reader, s.metrics)
	return s, nil
}

func (s *service) AnalyzeVariances(ctx context.Context, startDate, endDate string, includeBudget bool) (result []insight.VarianceInsight, err error) {
	ctx, span := s.startSpan(ctx, "analytics.AnalyzeVariances",
		attribute.String("start_date", startDate),
		attribute.String("end_date", endDate),
		attribute.Bool("include_budget", includeBudget))
	defer func(started time.Time) { s.finish(span, "analyze_variances", started, err) }(time.Now())

	r, err := ledger.ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	result, err = s.analyzeVariances(ctx, r, includeBudget)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("insights", len(result)))
	return result, nil
}

func (s *service) analyzeVariances(ctx context.Context, r ledger.DateRange, includeBudget bool) ([]insight.VarianceInsight, error) {
	current, err := s.ledger.SumByAccount(ctx, r)
	if err != nil {
		return nil, unavailable("sum_by_account", err)
	}
	prior, err := s.ledger.SumByAccount(ctx, r.PriorYear())
	if err != nil {
		return nil, unavailable("sum_by_account_prior_year", err)
	}
	priorByAccount := make(map[string]*ledger.AccountAggregate, len(prior))
	for i := range prior {
		priorByAccount[prior[i].AccountID] = &prior[i]
	}

	detectors := make([]AccountDetector, 0, len(s.accountDetectors))
	for _, d := range s.accountDetectors {
		if !includeBudget && d.Type() == insight.VarianceBudget {
			continue
		}
		detectors = append(detectors, d)
	}

	inputs := make([]AccountInput, len(current))
	for i, agg := range current {
		inputs[i] = AccountInput{
			Range:     r,
			Aggregate: agg,
			PriorYear: priorByAccount[agg.AccountID],
			Ledger:    s.ledger,
		}
	}

	all, err := s.fanOut(ctx, inputs, detectors)
	if err != nil {
		return nil, err
	}

	for _, d := range s.portfolioDetectors {
		found, err := s.detectPortfolio(ctx, d, PortfolioInput{Range: r, Ledger: s.ledger})
		if err != nil {
			return nil, unavailable("sum_by_account_type", err)
		}
		all = append(all, found...)
	}

	ranked := filterAndRank(all, s.cfg.ConfidenceThreshold)
	s.recordInsights(ranked)
	return ranked, nil
}

func (s *service) AnalyzeTrends(ctx context.Context, lookbackMonths int) (result []insight.TrendAnalysis, err error) {
	if lookbackMonths <= 0 {
		lookbackMonths = s.cfg.Analyzer.LookbackMonths
	}
	ctx, span := s.startSpan(ctx, "analytics.AnalyzeTrends", attribute.Int("lookback_months", lookbackMonths))
	defer func(started time.Time) { s.finish(span, "analyze_trends", started, err) }(time.Now())

	return s.analyzeTrends(ctx, lookbackMonths)
}

func (s *service) analyzeTrends(ctx context.Context, lookbackMonths int) ([]insight.TrendAnalysis, error) {
	r, err := ledger.CompleteMonths(s.now().UTC(), lookbackMonths)
	if err != nil {
		return nil, err
	}

	accounts, err := s.ledger.ListActiveAccounts(ctx, r)
	if err != nil {
		return nil, unavailable("list_active_accounts", err)
	}

	slots := make([]*insight.TrendAnalysis, len(accounts))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Workers)
	for i, account := range accounts {
		g.Go(func() error {
			defer s.recoverAccount("trend_analyzer", account.ID)

			monthly, err := s.ledger.SumByAccountMonthly(ctx, account.ID, r)
			if err != nil {
				s.accountFailed("trend_analyzer", account.ID, err)
				return nil
			}
			slots[i] = s.analyzer.analyze(account, monthly)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trends := make([]insight.TrendAnalysis, 0, len(slots))
	for _, t := range slots {
		if t != nil {
			trends = append(trends, *t)
		}
	}
	return trends, nil
}

func (s *service) DetectAnomalies(ctx context.Context, startDate, endDate string, sensitivity float64) (result []insight.VarianceInsight, err error) {
	if sensitivity <= 0 {
		sensitivity = s.cfg.Anomaly.DefaultSensitivity
	}
	ctx, span := s.startSpan(ctx, "analytics.DetectAnomalies",
		attribute.String("start_date", startDate),
		attribute.String("end_date", endDate),
		attribute.Float64("sensitivity", sensitivity))
	defer func(started time.Time) { s.finish(span, "detect_anomalies", started, err) }(time.Now())

	r, err := ledger.ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.detectAnomalies(ctx, r, sensitivity)
}

func (s *service) detectAnomalies(ctx context.Context, r ledger.DateRange, sensitivity float64) ([]insight.VarianceInsight, error) {
	accounts, err := s.ledger.ListActiveAccounts(ctx, r)
	if err != nil {
		return nil, unavailable("list_active_accounts", err)
	}

	inputs := make([]AccountInput, len(accounts))
	for i, a := range accounts {
		inputs[i] = AccountInput{
			Range: r,
			Aggregate: ledger.AccountAggregate{
				AccountID:      a.ID,
				AccountName:    a.Name,
				Classification: a.Classification,
			},
			Ledger: s.ledger,
		}
	}

	anomalies, err := s.fanOut(ctx, inputs, []AccountDetector{newDailyAnomalyDetector(s.cfg, sensitivity)})
	if err != nil {
		return nil, err
	}
	sortByConfidence(anomalies)
	s.recordInsights(anomalies)
	return anomalies, nil
}

func (s *service) GenerateComprehensiveInsights(ctx context.Context, startDate, endDate string) (result *insight.ComprehensiveInsights, err error) {
	ctx, span := s.startSpan(ctx, "analytics.GenerateComprehensiveInsights",
		attribute.String("start_date", startDate),
		attribute.String("end_date", endDate))
	defer func(started time.Time) { s.finish(span, "comprehensive", started, err) }(time.Now())

	r, err := ledger.ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	variances, err := s.analyzeVariances(ctx, r, true)
	if err != nil {
		return nil, err
	}
	trends, err := s.analyzeTrends(ctx, s.cfg.Analyzer.LookbackMonths)
	if err != nil {
		return nil, err
	}
	anomalies, err := s.detectAnomalies(ctx, r, s.cfg.Anomaly.DefaultSensitivity)
	if err != nil {
		return nil, err
	}

	return &insight.ComprehensiveInsights{
		Period: insight.Period{
			StartDate: r.Start.Format(ledger.DateLayout),
			EndDate:   r.End.Format(ledger.DateLayout),
		},
		GeneratedAt:      s.now().UTC(),
		Variances:        variances,
		Trends:           trends,
		Anomalies:        anomalies,
		SeveritySummary:  severityCounts(variances, anomalies),
		ExecutiveSummary: summarize(s.cfg.Summary, variances, anomalies, trends),
		TotalInsights:    len(variances) + len(anomalies),
	}, nil
}

// fanOut runs every detector against every input on a bounded worker pool.
// Results land in per-account slots so the output order depends only on the
// input order and detector order, never on scheduling.
func (s *service) fanOut(ctx context.Context, inputs []AccountInput, detectors []AccountDetector) ([]insight.VarianceInsight, error) {
	slots := make([][]insight.VarianceInsight, len(inputs))

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Workers)
	for i, in := range inputs {
		g.Go(func() error {
			var found []insight.VarianceInsight
			for _, d := range detectors {
				found = append(found, s.detect(ctx, d, in)...)
			}
			slots[i] = found
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := make([]insight.VarianceInsight, 0, len(inputs))
	for _, found := range slots {
		all = append(all, found...)
	}
	return all, nil
}

// detect runs one detector for one account. Query failures and panics are
// logged and counted, and the account contributes nothing for that detector.
func (s *service) detect(ctx context.Context, d AccountDetector, in AccountInput) (found []insight.VarianceInsight) {
	detector := string(d.Type())
	defer func() {
		if r := recover(); r != nil {
			found = nil
			s.accountFailed(detector, in.Aggregate.AccountID, fmt.Errorf("panic: %v", r))
		}
	}()

	found, err := d.Detect(ctx, in)
	if err != nil {
		s.accountFailed(detector, in.Aggregate.AccountID, err)
		return nil
	}
	return found
}

// detectPortfolio runs one portfolio detector. Query errors are returned, a
// panic is logged and counted like an account failure and yields nothing.
func (s *service) detectPortfolio(ctx context.Context, d PortfolioDetector, in PortfolioInput) (found []insight.VarianceInsight, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = nil, nil
			s.accountFailed(string(d.Type()), portfolioAccount, fmt.Errorf("panic: %v", r))
		}
	}()
	return d.Detect(ctx, in)
}

func (s *service) recoverAccount(detector, accountID string) {
	if r := recover(); r != nil {
		s.accountFailed(detector, accountID, fmt.Errorf("panic: %v", r))
	}
}

func (s *service) accountFailed(detector, accountID string, err error) {
	s.logger.Warn("account analysis failed, skipping",
		zap.String("detector", detector),
		zap.String("account_id", accountID),
		zap.Error(err))
	s.metrics.RecordAccountFailure(detector)
}

func (s *service) recordInsights(in []insight.VarianceInsight) {
	for _, v := range in {
		s.metrics.RecordInsight(string(v.VarianceType), string(v.Severity))
	}
}

func (s *service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *service) finish(span trace.Span, operation string, started time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.ObserveRun(operation, started, err)
}

// unavailable maps a failed top-level ledger query to DataUnavailable. Errors
// that already carry a type pass through unchanged.
func unavailable(query string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.NewDataUnavailableError(query).WithCause(err)
}
