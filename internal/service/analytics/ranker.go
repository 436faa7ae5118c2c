package analytics

import (
	"fmt"
	"sort"

	"github.com/davidleathers/ledger-insights/internal/domain/insight"
)

// filterAndRank drops insights below the confidence threshold and orders the rest
// by severity then confidence, both descending. The sort is stable so equal
// insights keep their emission order.
func filterAndRank(in []insight.VarianceInsight, threshold float64) []insight.VarianceInsight {
	out := make([]insight.VarianceInsight, 0, len(in))
	for _, v := range in {
		if v.ConfidenceScore >= threshold {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].ConfidenceScore > out[j].ConfidenceScore
	})
	return out
}

func sortByConfidence(in []insight.VarianceInsight) {
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].ConfidenceScore > in[j].ConfidenceScore
	})
}

func severityCounts(groups ...[]insight.VarianceInsight) insight.SeverityCounts {
	var counts insight.SeverityCounts
	for _, g := range groups {
		for _, v := range g {
			counts.Add(v.Severity)
		}
	}
	return counts
}

// summarize builds the executive summary. It only looks at the structured
// fields of insights and trends, never at account semantics.
func summarize(cfg SummaryConfig, variances, anomalies []insight.VarianceInsight, trends []insight.TrendAnalysis) insight.ExecutiveSummary {
	summary := insight.ExecutiveSummary{
		SeverityCounts:     severityCounts(variances, anomalies),
		TopConcerns:        []string{},
		KeyTrends:          []string{},
		TopRecommendations: []string{},
	}

	all := make([]insight.VarianceInsight, 0, len(variances)+len(anomalies))
	all = append(all, variances...)
	all = append(all, anomalies...)

	for _, v := range all {
		if len(summary.TopConcerns) >= cfg.TopConcerns {
			break
		}
		if v.Severity == insight.SeverityCritical {
			summary.TopConcerns = append(summary.TopConcerns, v.Description)
		}
	}

	strong := make([]insight.TrendAnalysis, 0, len(trends))
	for _, t := range trends {
		if t.TrendStrength <= cfg.StrongTrend {
			continue
		}
		switch t.TrendDirection {
		case insight.TrendIncreasing:
			summary.TrendingUp++
			strong = append(strong, t)
		case insight.TrendDecreasing:
			summary.TrendingDown++
			strong = append(strong, t)
		}
	}
	sort.SliceStable(strong, func(i, j int) bool {
		return strong[i].TrendStrength > strong[j].TrendStrength
	})
	for i := 0; i < len(strong) && i < cfg.TopTrends; i++ {
		word := "upward"
		if strong[i].TrendDirection == insight.TrendDecreasing {
			word = "downward"
		}
		summary.KeyTrends = append(summary.KeyTrends, fmt.Sprintf("%s trending %s", strong[i].AccountName, word))
	}

	summary.TopRecommendations = topRecommendations(all, cfg.TopRecommendations)
	return summary
}

// topRecommendations returns the n most repeated recommendation strings. Ties go
// to the one seen first.
func topRecommendations(in []insight.VarianceInsight, n int) []string {
	type tally struct {
		text  string
		count int
		first int
	}
	index := make(map[string]int)
	var tallies []tally
	for _, v := range in {
		for _, r := range v.Recommendations {
			if i, ok := index[r]; ok {
				tallies[i].count++
				continue
			}
			index[r] = len(tallies)
			tallies = append(tallies, tally{text: r, count: 1, first: len(tallies)})
		}
	}
	sort.SliceStable(tallies, func(i, j int) bool {
		if tallies[i].count != tallies[j].count {
			return tallies[i].count > tallies[j].count
		}
		return tallies[i].first < tallies[j].first
	})

	out := make([]string, 0, n)
	for i := 0; i < len(tallies) && i < n; i++ {
		out = append(out, tallies[i].text)
	}
	return out
}
