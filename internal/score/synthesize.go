// Package score reduces per-metric trend predictions to one overall wellness
// score with key factors and recommendations.
package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/claude/wellcast/internal/models"
)

const (
	baseScore  = 50
	baseWeight = 0.20

	increasingPoints = 15
	decreasingPoints = 10

	// highConfidence is the confidence above which a prediction is called out.
	highConfidence = 70
)

// NoDataFactor is the key factor reported when nothing has been logged.
const NoDataFactor = "No data logged yet"

// Weights is each metric's share of the overall score.
var Weights = map[models.Metric]float64{
	models.MetricWorkout:    0.25,
	models.MetricEnergy:     0.20,
	models.MetricHydration:  0.15,
	models.MetricMeditation: 0.15,
	models.MetricFasting:    0.10,
	models.MetricWeight:     0.15,
}

// declineAdvice is suggested when the keyed metric is trending down, in output order.
var declineAdvice = []struct {
	metric models.Metric
	text   string
}{
	{models.MetricEnergy, "Your energy is dipping. Prioritize sleep and look for ways to reduce stress."},
	{models.MetricWorkout, "Workout volume is falling. Try varying your routine to stay engaged."},
	{models.MetricHydration, "Hydration is slipping. Set reminders to drink water through the day."},
	{models.MetricMeditation, "Meditation has dropped off. Start small with five minutes a day."},
}

const maintainAdvice = "Keep up your current routine. Your habits are on track."

// Synthesize scores a set of predictions. Each increasing metric adds points
// and each decreasing one subtracts, scaled by its weight; weight loss counts
// in the user's favour.
func Synthesize(predictions []models.TrendPrediction) models.OverallWellness {
	score := float64(baseScore)
	var increasing, decreasing int
	var improving, declining, confident []string

	for _, p := range predictions {
		scale := Weights[p.Metric] / baseWeight
		name := p.Metric.DisplayName()

		switch p.Trend {
		case models.TrendIncreasing:
			increasing++
			improving = append(improving, name)
		case models.TrendDecreasing:
			decreasing++
			declining = append(declining, name)
		}

		switch favourable(p) {
		case models.TrendIncreasing:
			score += increasingPoints * scale
		case models.TrendDecreasing:
			score -= decreasingPoints * scale
		}

		if p.Confidence > highConfidence {
			confident = append(confident, name)
		}
	}

	overall := models.OverallStable
	switch {
	case increasing > decreasing:
		overall = models.OverallImproving
	case decreasing > increasing:
		overall = models.OverallDeclining
	}

	return models.OverallWellness{
		Score:           int(math.Round(math.Min(math.Max(score, 0), 100))),
		Trend:           overall,
		KeyFactors:      keyFactors(improving, declining, confident),
		Recommendations: recommendations(predictions),
	}
}

// favourable returns the trend as it affects the score. For weight a falling
// trend is an improvement.
func favourable(p models.TrendPrediction) models.Trend {
	if p.Metric != models.MetricWeight {
		return p.Trend
	}
	switch p.Trend {
	case models.TrendIncreasing:
		return models.TrendDecreasing
	case models.TrendDecreasing:
		return models.TrendIncreasing
	}
	return p.Trend
}

func keyFactors(improving, declining, confident []string) []string {
	factors := []string{}
	if len(improving) > 0 {
		factors = append(factors, "Improving: "+strings.Join(improving, ", "))
	}
	if len(declining) > 0 {
		factors = append(factors, "Declining: "+strings.Join(declining, ", "))
	}
	if len(confident) > 0 {
		factors = append(factors, fmt.Sprintf("High confidence predictions for %s", strings.Join(confident, ", ")))
	}
	if len(factors) == 0 {
		factors = append(factors, "All metrics are holding steady")
	}
	return factors
}

func recommendations(predictions []models.TrendPrediction) []string {
	trends := make(map[models.Metric]models.Trend, len(predictions))
	for _, p := range predictions {
		trends[p.Metric] = p.Trend
	}

	recs := []string{}
	for _, a := range declineAdvice {
		if trends[a.metric] == models.TrendDecreasing {
			recs = append(recs, a.text)
		}
	}
	if len(recs) == 0 {
		recs = append(recs, maintainAdvice)
	}
	return recs
}

// NoData is the overall result when no metric has any logged data.
func NoData() models.OverallWellness {
	return models.OverallWellness{
		Score:           baseScore,
		Trend:           models.OverallStable,
		KeyFactors:      []string{NoDataFactor},
		Recommendations: []string{"Start logging workouts, energy, hydration, meditation or fasting to see your wellness trends."},
	}
}
