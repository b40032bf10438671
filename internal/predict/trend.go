// Package predict fits a linear trend to a metric's daily values and projects
// it forward.
package predict

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/claude/wellcast/internal/models"
)

const (
	// MinPoints is the fewest values a series needs before a trend is fitted.
	MinPoints = 3

	maxSmoothingWindow = 7
	// trendThreshold is the slope dead-zone within which a series is stable.
	trendThreshold = 0.1

	minConfidence = 10
	maxConfidence = 100

	// Confidence factor weights. They sum to the maximum confidence.
	quantityWeight = 40
	fitWeight      = 30
	varianceWeight = 30
	// quantityDays is how many values earn the full quantity factor.
	quantityDays = 30
)

// Fit holds the regression statistics behind a prediction.
type Fit struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// Predict forecasts one metric from its ordered daily values.
func Predict(m models.Metric, values []float64) models.TrendPrediction {
	n := len(values)
	if n < MinPoints {
		return insufficient(m, values)
	}

	smoothed := Smooth(values, SmoothingWindow(n))
	fit := Regress(smoothed)

	trend := Classify(fit.Slope)
	return models.TrendPrediction{
		Metric:          m,
		CurrentValue:    round1(values[n-1]),
		Predicted7Days:  project(fit, n, 7),
		Predicted30Days: project(fit, n, 30),
		Trend:           trend,
		Confidence:      Confidence(n, fit.RSquared, values),
		Recommendation:  Recommendation(m, trend),
	}
}

func insufficient(m models.Metric, values []float64) models.TrendPrediction {
	var last float64
	if len(values) > 0 {
		last = round1(max(values[len(values)-1], 0))
	}
	return models.TrendPrediction{
		Metric:          m,
		CurrentValue:    last,
		Predicted7Days:  last,
		Predicted30Days: last,
		Trend:           models.TrendStable,
		Confidence:      minConfidence,
		Recommendation:  fmt.Sprintf("Log at least %d days of %s to see a trend prediction.", MinPoints, m.DisplayName()),
	}
}

// SmoothingWindow returns the moving-average window for a series of n values:
// a third of the series, rounded up, capped at one week.
func SmoothingWindow(n int) int {
	w := (n + 2) / 3
	return max(min(w, maxSmoothingWindow), 1)
}

// Smooth applies a trailing moving average. Early values average over the
// values available so far.
func Smooth(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Regress fits y = slope*x + intercept over x = 0..n-1 by ordinary least
// squares. R² is floored at 0; a flat series fits perfectly.
func Regress(ys []float64) Fit {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	r2 := 1.0
	if stat.PopVariance(ys, nil) > 0 {
		r2 = stat.RSquared(xs, ys, nil, intercept, slope)
		if math.IsNaN(r2) || r2 < 0 {
			r2 = 0
		}
	}
	return Fit{Slope: slope, Intercept: intercept, RSquared: r2}
}

// Classify maps a slope to a trend direction.
func Classify(slope float64) models.Trend {
	switch {
	case slope > trendThreshold:
		return models.TrendIncreasing
	case slope < -trendThreshold:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// Confidence scores a prediction from the amount of data, the fit quality and
// the spread of the raw values, clamped to [10, 100].
func Confidence(n int, rSquared float64, values []float64) int {
	quantity := math.Min(float64(n)/quantityDays, 1) * quantityWeight
	fitScore := rSquared * fitWeight

	normalizedVariance := 1.0
	if mean := stat.Mean(values, nil); mean != 0 {
		normalizedVariance = stat.PopVariance(values, nil) / (mean * mean)
	}
	spread := math.Max(0, varianceWeight-normalizedVariance*10)

	c := int(math.Round(quantity + fitScore + spread))
	return min(max(c, minConfidence), maxConfidence)
}

// Recommendation returns the templated advice for a metric's trend.
func Recommendation(m models.Metric, trend models.Trend) string {
	name := m.DisplayName()
	switch trend {
	case models.TrendIncreasing:
		return fmt.Sprintf("Your %s is trending up. Keep building on this momentum.", name)
	case models.TrendDecreasing:
		return fmt.Sprintf("Your %s is trending down. Consider small adjustments to get back on track.", name)
	default:
		return fmt.Sprintf("Your %s is holding steady. Consistency is key.", name)
	}
}

// project evaluates the fit days past the last value, floored at zero.
func project(f Fit, n, days int) float64 {
	x := float64(n - 1 + days)
	return round1(math.Max(f.Slope*x+f.Intercept, 0))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
