package insight

import (
	"math"
	"slices"
)

// VarianceType identifies the detector that produced an insight
type VarianceType string

const (
	VarianceBudget   VarianceType = "budget"
	VarianceTrend    VarianceType = "trend"
	VarianceSeasonal VarianceType = "seasonal"
	VarianceOutlier  VarianceType = "outlier"
	VarianceRatio    VarianceType = "ratio"
)

// VarianceTypes lists every variance type in detector order
var VarianceTypes = []VarianceType{VarianceBudget, VarianceTrend, VarianceSeasonal, VarianceOutlier, VarianceRatio}

// Valid reports whether t is one of the closed set of variance types
func (t VarianceType) Valid() bool {
	return slices.Contains(VarianceTypes, t)
}

// Severity is an ordered insight severity
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists severities from lowest to highest
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Rank orders severities low < medium < high < critical. Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// VarianceInsight is the unit of output of every detector. Construct it with
// NewVarianceInsight so the derived fields stay consistent.
type VarianceInsight struct {
	VarianceType       VarianceType           `json:"variance_type"`
	Severity           Severity               `json:"severity"`
	AccountID          string                 `json:"account_id"`
	AccountName        string                 `json:"account_name"`
	ExpectedValue      float64                `json:"expected_value"`
	ActualValue        float64                `json:"actual_value"`
	VarianceAmount     float64                `json:"variance_amount"`
	VariancePercentage float64                `json:"variance_percentage"`
	Description        string                 `json:"description"`
	Recommendations    []string               `json:"recommendations"`
	ConfidenceScore    float64                `json:"confidence_score"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// Measure holds the expected/actual pair an insight is derived from. Base,
// when set, is the percentage denominator in place of |Expected|.
type Measure struct {
	Expected float64
	Actual   float64
	Base     float64
}

// Amount returns actual - expected
func (m Measure) Amount() float64 {
	return m.Actual - m.Expected
}

// Percentage returns (actual - expected) / |expected|, or 0 when the
// denominator is 0
func (m Measure) Percentage() float64 {
	base := m.Base
	if base == 0 {
		base = math.Abs(m.Expected)
	}
	if base == 0 {
		return 0
	}
	return m.Amount() / base
}

// NewVarianceInsight builds an insight from a measure. Slices and maps are
// copied so later mutation by the caller does not leak into the insight.
func NewVarianceInsight(
	varianceType VarianceType,
	severity Severity,
	account string,
	accountName string,
	m Measure,
	description string,
	recommendations []string,
	confidence float64,
	metadata map[string]interface{},
) VarianceInsight {
	recs := make([]string, len(recommendations))
	copy(recs, recommendations)

	var meta map[string]interface{}
	if len(metadata) > 0 {
		meta = make(map[string]interface{}, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
	}

	return VarianceInsight{
		VarianceType:       varianceType,
		Severity:           severity,
		AccountID:          account,
		AccountName:        accountName,
		ExpectedValue:      m.Expected,
		ActualValue:        m.Actual,
		VarianceAmount:     m.Amount(),
		VariancePercentage: m.Percentage(),
		Description:        description,
		Recommendations:    recs,
		ConfidenceScore:    clamp01(confidence),
		Metadata:           meta,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
