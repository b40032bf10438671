package aggregate

import (
	"math"

	"github.com/claude/wellcast/internal/ingest"
	"github.com/claude/wellcast/internal/models"
)

// BuildDataPoints assembles one data point per axis date, in axis order.
// Metrics with no value on a date are zero; weight and measurements are only
// set on dates they were logged.
func BuildDataPoints(axis []string, s ingest.Series) []models.WellnessDataPoint {
	points := make([]models.WellnessDataPoint, 0, len(axis))
	for _, date := range axis {
		p := models.WellnessDataPoint{
			Date:              date,
			WorkoutReps:       int(math.Round(s.Workout[date])),
			EnergyLevel:       s.Energy[date],
			HydrationLevel:    s.Hydration[date],
			MeditationMinutes: s.Meditation[date],
			FastingHours:      s.Fasting[date],
		}
		if w, ok := s.Weight[date]; ok {
			p.Weight = &w
		}
		if m, ok := s.Measurements[date]; ok {
			p.Measurements = &m
		}
		points = append(points, p)
	}
	return points
}

// Values returns the metric's value for each point, in order. For weight only
// points with a logged weight contribute.
func Values(points []models.WellnessDataPoint, m models.Metric) []float64 {
	values := make([]float64, 0, len(points))
	for _, p := range points {
		if m == models.MetricWeight && p.Weight == nil {
			continue
		}
		values = append(values, p.Value(m))
	}
	return values
}
