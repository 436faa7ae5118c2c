package analytics

import (
	"math"

	"github.com/davidleathers/ledger-insights/internal/domain/insight"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/stats"
)

// trendAnalyzer characterizes monthly series. It holds no state beyond the config.
type trendAnalyzer struct {
	cfg AnalyzerConfig
}

// analyze returns nil when the series is too short to characterize
func (a trendAnalyzer) analyze(account ledger.Account, monthly []ledger.PeriodAmount) *insight.TrendAnalysis {
	if len(monthly) < a.cfg.MinPoints {
		return nil
	}

	values := make([]float64, len(monthly))
	points := make([]insight.DataPoint, len(monthly))
	for i, p := range monthly {
		values[i] = p.Float()
		points[i] = insight.DataPoint{Period: p.Period, Amount: values[i]}
	}

	name := account.Name
	if name == "" {
		name = monthly[0].AccountName
	}

	strength := stats.TrendStrength(values)
	volatility := stats.Volatility(values)

	return &insight.TrendAnalysis{
		AccountID:       account.ID,
		AccountName:     name,
		TrendDirection:  a.direction(strength, volatility),
		TrendStrength:   math.Abs(strength),
		SeasonalPattern: a.seasonal(values),
		VolatilityScore: volatility,
		DataPoints:      points,
		Projections: map[string]float64{
			insight.ProjectionNextMonth:   stats.Extrapolate(values, 1),
			insight.ProjectionNextQuarter: stats.Extrapolate(values, 3),
		},
	}
}

func (a trendAnalyzer) direction(strength, volatility float64) insight.TrendDirection {
	switch {
	case strength > a.cfg.DirectionThreshold:
		return insight.TrendIncreasing
	case strength < -a.cfg.DirectionThreshold:
		return insight.TrendDecreasing
	case volatility > a.cfg.VolatileThreshold:
		return insight.TrendVolatile
	default:
		return insight.TrendStable
	}
}

// seasonal compares the volatility of the first and second half of the series.
// Similar volatility in both halves is read as a repeating pattern.
func (a trendAnalyzer) seasonal(values []float64) bool {
	n := len(values)
	if n < a.cfg.SeasonalMinPoints {
		return false
	}
	first := stats.Volatility(values[:n/2])
	second := stats.Volatility(values[n/2:])
	return math.Abs(first-second) < a.cfg.SeasonalVolatilityDelta
}
