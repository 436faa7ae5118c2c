// Package stats holds the float64 numeric primitives used by the insight engine.
// Every function is pure and allocation-free. Monetary values are converted from
// decimal before they reach this package.
package stats

import "math"

// Mean returns the arithmetic mean, or 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStdDev divides the sum of squared deviations by n
func PopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Sqrt(sumSquaredDeviations(values) / float64(len(values)))
}

// SampleStdDev divides the sum of squared deviations by n-1. It returns 0 when n < 2.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return math.Sqrt(sumSquaredDeviations(values) / float64(len(values)-1))
}

func sumSquaredDeviations(values []float64) float64 {
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss
}

// TrendStrength is the Pearson correlation between the index sequence 0..n-1
// and values. It returns 0 when n < 2 or either series has zero variance.
func TrendStrength(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	meanX := float64(n-1) / 2
	meanY := Mean(values)

	var sxy, sxx, syy float64
	for i, y := range values {
		dx := float64(i) - meanX
		dy := y - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	r := sxy / math.Sqrt(sxx*syy)
	// rounding can push a perfect fit fractionally past 1
	return math.Max(-1, math.Min(1, r))
}

// Volatility is the coefficient of variation: sample standard deviation over |mean|.
// It returns 0 when n < 2 or the mean is 0.
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return SampleStdDev(values) / math.Abs(mean)
}

// LinearFit returns the ordinary least squares slope and intercept of values
// against the index sequence. When the denominator is zero (n < 2) it returns
// (0, last value).
func LinearFit(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	if len(values) == 0 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, values[len(values)-1]
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// Extrapolate evaluates the fitted line periodsAhead steps past the last observed index
func Extrapolate(values []float64, periodsAhead int) float64 {
	slope, intercept := LinearFit(values)
	return slope*float64(len(values)-1+periodsAhead) + intercept
}

// ZScore returns |x - mean| / stdev. Callers must guard stdev == 0.
func ZScore(x, mean, stdev float64) float64 {
	return math.Abs(x-mean) / stdev
}
