package insight

import "time"

// TrendDirection characterizes a multi-month series
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendVolatile   TrendDirection = "volatile"
	TrendStable     TrendDirection = "stable"
)

// Projection keys
const (
	ProjectionNextMonth   = "next_month"
	ProjectionNextQuarter = "next_quarter"
)

// DataPoint is one (period, amount) pair used in a trend fit
type DataPoint struct {
	Period string  `json:"period"`
	Amount float64 `json:"amount"`
}

// TrendAnalysis characterizes one account over a lookback window
type TrendAnalysis struct {
	AccountID       string             `json:"account_id"`
	AccountName     string             `json:"account_name"`
	TrendDirection  TrendDirection     `json:"trend_direction"`
	TrendStrength   float64            `json:"trend_strength"`
	SeasonalPattern bool               `json:"seasonal_pattern"`
	VolatilityScore float64            `json:"volatility_score"`
	DataPoints      []DataPoint        `json:"data_points"`
	Projections     map[string]float64 `json:"projections"`
}

// SeverityCounts tallies insights per severity
type SeverityCounts struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// Add increments the counter for s
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityLow:
		c.Low++
	case SeverityMedium:
		c.Medium++
	case SeverityHigh:
		c.High++
	case SeverityCritical:
		c.Critical++
	}
}

// Total returns the sum of all counters
func (c SeverityCounts) Total() int {
	return c.Low + c.Medium + c.High + c.Critical
}

// ExecutiveSummary condenses ranked insights and trends for a board-level reader
type ExecutiveSummary struct {
	SeverityCounts     SeverityCounts `json:"severity_counts"`
	TrendingUp         int            `json:"trending_up"`
	TrendingDown       int            `json:"trending_down"`
	TopConcerns        []string       `json:"top_concerns"`
	KeyTrends          []string       `json:"key_trends"`
	TopRecommendations []string       `json:"top_recommendations"`
}

// Period is the analysed date range in YYYY-MM-DD form
type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ComprehensiveInsights is the composed output of every entry point
type ComprehensiveInsights struct {
	Period           Period            `json:"period"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Variances        []VarianceInsight `json:"variances"`
	Trends           []TrendAnalysis   `json:"trends"`
	Anomalies        []VarianceInsight `json:"anomalies"`
	SeveritySummary  SeverityCounts    `json:"severity_summary"`
	ExecutiveSummary ExecutiveSummary  `json:"executive_summary"`
	TotalInsights    int               `json:"total_insights"`
}
