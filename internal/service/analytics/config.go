package analytics

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
	"github.com/davidleathers/ledger-insights/internal/domain/insight"
)

// Config holds every threshold the engine uses. It is copied into the service at
// construction and never mutated afterwards.
type Config struct {
	Severity            SeverityThresholds `koanf:"severity"`
	ConfidenceThreshold float64            `koanf:"confidence_threshold" validate:"gte=0,lte=1"`
	Workers             int                `koanf:"workers" validate:"gte=1,lte=256"`

	Budget   BudgetConfig   `koanf:"budget"`
	Trend    TrendConfig    `koanf:"trend"`
	Seasonal SeasonalConfig `koanf:"seasonal"`
	Outlier  OutlierConfig  `koanf:"outlier"`
	Anomaly  AnomalyConfig  `koanf:"anomaly"`
	Ratio    RatioConfig    `koanf:"ratio"`
	Analyzer AnalyzerConfig `koanf:"analyzer"`
	Summary  SummaryConfig  `koanf:"summary"`
}

// SeverityThresholds is the shared |variance_percentage| table, evaluated top down
type SeverityThresholds struct {
	Critical float64 `koanf:"critical" validate:"gtfield=High"`
	High     float64 `koanf:"high" validate:"gtfield=Medium"`
	Medium   float64 `koanf:"medium" validate:"gt=0"`
}

// BudgetConfig drives the synthetic budget detector. The multipliers stand in
// for a real budget-planning integration; they are a known simplification.
type BudgetConfig struct {
	IncomeMultiplier  float64 `koanf:"income_multiplier" validate:"gt=0"`
	ExpenseMultiplier float64 `koanf:"expense_multiplier" validate:"gt=0"`
	Confidence        float64 `koanf:"confidence" validate:"gte=0,lte=1"`
}

type TrendConfig struct {
	LookbackDays  int     `koanf:"lookback_days" validate:"gte=1"`
	MinPoints     int     `koanf:"min_points" validate:"gte=2"`
	MinVariance   float64 `koanf:"min_variance" validate:"gte=0"`
	MaxConfidence float64 `koanf:"max_confidence" validate:"gte=0,lte=1"`
}

type SeasonalConfig struct {
	MinVariance float64 `koanf:"min_variance" validate:"gte=0"`
	Confidence  float64 `koanf:"confidence" validate:"gte=0,lte=1"`
}

// OutlierConfig applies to individual transactions. An account needs strictly
// more than MinTransactions entries.
type OutlierConfig struct {
	MinTransactions int     `koanf:"min_transactions" validate:"gte=1"`
	ZThreshold      float64 `koanf:"z_threshold" validate:"gt=0"`
	ZDivisor        float64 `koanf:"z_divisor" validate:"gt=0"`
	MaxConfidence   float64 `koanf:"max_confidence" validate:"gte=0,lte=1"`
}

// AnomalyConfig applies to daily aggregates. An account needs strictly more than MinDays days.
type AnomalyConfig struct {
	DefaultSensitivity float64 `koanf:"default_sensitivity" validate:"gt=0"`
	MinDays            int     `koanf:"min_days" validate:"gte=1"`
	ZDivisor           float64 `koanf:"z_divisor" validate:"gt=0"`
	MaxConfidence      float64 `koanf:"max_confidence" validate:"gte=0,lte=1"`
}

type RatioConfig struct {
	ExpectedProfitMargin   float64 `koanf:"expected_profit_margin" validate:"ne=0"`
	ProfitMarginTolerance  float64 `koanf:"profit_margin_tolerance" validate:"gte=0"`
	ProfitMarginConfidence float64 `koanf:"profit_margin_confidence" validate:"gte=0,lte=1"`
	ExpectedCurrentRatio   float64 `koanf:"expected_current_ratio" validate:"ne=0"`
	CurrentRatioTolerance  float64 `koanf:"current_ratio_tolerance" validate:"gte=0"`
	CurrentRatioConfidence float64 `koanf:"current_ratio_confidence" validate:"gte=0,lte=1"`
}

// AnalyzerConfig drives the multi-month trend characterization
type AnalyzerConfig struct {
	LookbackMonths          int     `koanf:"lookback_months" validate:"gte=1"`
	MinPoints               int     `koanf:"min_points" validate:"gte=2"`
	DirectionThreshold      float64 `koanf:"direction_threshold" validate:"gte=0,lte=1"`
	VolatileThreshold       float64 `koanf:"volatile_threshold" validate:"gte=0"`
	SeasonalMinPoints       int     `koanf:"seasonal_min_points" validate:"gte=2"`
	SeasonalVolatilityDelta float64 `koanf:"seasonal_volatility_delta" validate:"gte=0"`
}

type SummaryConfig struct {
	StrongTrend        float64 `koanf:"strong_trend" validate:"gte=0,lte=1"`
	TopConcerns        int     `koanf:"top_concerns" validate:"gte=0"`
	TopTrends          int     `koanf:"top_trends" validate:"gte=0"`
	TopRecommendations int     `koanf:"top_recommendations" validate:"gte=0"`
}

// DefaultConfig returns the reference thresholds
func DefaultConfig() Config {
	return Config{
		Severity: SeverityThresholds{
			Critical: 0.50,
			High:     0.25,
			Medium:   0.15,
		},
		ConfidenceThreshold: 0.7,
		Workers:             4,
		Budget: BudgetConfig{
			IncomeMultiplier:  1.1,
			ExpenseMultiplier: 0.9,
			Confidence:        0.8,
		},
		Trend: TrendConfig{
			LookbackDays:  180,
			MinPoints:     3,
			MinVariance:   0.15,
			MaxConfidence: 0.9,
		},
		Seasonal: SeasonalConfig{
			MinVariance: 0.20,
			Confidence:  0.75,
		},
		Outlier: OutlierConfig{
			MinTransactions: 10,
			ZThreshold:      2.5,
			ZDivisor:        5,
			MaxConfidence:   0.95,
		},
		Anomaly: AnomalyConfig{
			DefaultSensitivity: 2.0,
			MinDays:            7,
			ZDivisor:           5,
			MaxConfidence:      0.95,
		},
		Ratio: RatioConfig{
			ExpectedProfitMargin:   0.15,
			ProfitMarginTolerance:  0.05,
			ProfitMarginConfidence: 0.85,
			ExpectedCurrentRatio:   2.0,
			CurrentRatioTolerance:  0.5,
			CurrentRatioConfidence: 0.80,
		},
		Analyzer: AnalyzerConfig{
			LookbackMonths:          12,
			MinPoints:               3,
			DirectionThreshold:      0.3,
			VolatileThreshold:       0.5,
			SeasonalMinPoints:       12,
			SeasonalVolatilityDelta: 0.2,
		},
		Summary: SummaryConfig{
			StrongTrend:        0.5,
			TopConcerns:        3,
			TopTrends:          3,
			TopRecommendations: 5,
		},
	}
}

var configValidator = validator.New()

// Validate checks field ranges and the ordering of the severity table
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.NewValidationError("INVALID_ANALYSIS_CONFIG",
			fmt.Sprintf("invalid analysis configuration: %v", err)).WithCause(err)
	}
	return nil
}

// ClassifySeverity maps |variance_percentage| to a severity tier. First match wins
// from the top of the table, so the function is monotonic in the magnitude.
func (c Config) ClassifySeverity(variancePercentage float64) insight.Severity {
	v := variancePercentage
	if v < 0 {
		v = -v
	}
	switch {
	case v >= c.Severity.Critical:
		return insight.SeverityCritical
	case v >= c.Severity.High:
		return insight.SeverityHigh
	case v >= c.Severity.Medium:
		return insight.SeverityMedium
	default:
		return insight.SeverityLow
	}
}
