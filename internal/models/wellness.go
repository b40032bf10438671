package models

// MetricSeries maps a YYYY-MM-DD date key to a non-negative value for one metric.
type MetricSeries map[string]float64

// BodyMeasurements are the optional circumference measurements logged alongside weight.
type BodyMeasurements struct {
	Chest  float64 `json:"chest,omitempty"`
	Waist  float64 `json:"waist,omitempty"`
	Biceps float64 `json:"biceps,omitempty"`
	Thighs float64 `json:"thighs,omitempty"`
}

// IsZero reports whether no measurement was logged.
func (b BodyMeasurements) IsZero() bool {
	return b == BodyMeasurements{}
}

// WellnessDataPoint is one day's composite record across all metrics.
type WellnessDataPoint struct {
	Date              string            `json:"date"`
	WorkoutReps       int               `json:"workoutReps"`
	EnergyLevel       float64           `json:"energyLevel"`
	HydrationLevel    float64           `json:"hydrationLevel"`
	MeditationMinutes float64           `json:"meditationMinutes"`
	FastingHours      float64           `json:"fastingHours"`
	Weight            *float64          `json:"weight,omitempty"`
	Measurements      *BodyMeasurements `json:"measurements,omitempty"`
}

// Value returns the data point's value for a core metric.
func (p WellnessDataPoint) Value(m Metric) float64 {
	switch m {
	case MetricWorkout:
		return float64(p.WorkoutReps)
	case MetricEnergy:
		return p.EnergyLevel
	case MetricHydration:
		return p.HydrationLevel
	case MetricMeditation:
		return p.MeditationMinutes
	case MetricFasting:
		return p.FastingHours
	case MetricWeight:
		if p.Weight != nil {
			return *p.Weight
		}
	}
	return 0
}

// Trend is the classified direction of a metric's recent slope.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// TrendPrediction is the forecast for a single metric.
type TrendPrediction struct {
	Metric          Metric  `json:"metric"`
	CurrentValue    float64 `json:"currentValue"`
	Predicted7Days  float64 `json:"predicted7Days"`
	Predicted30Days float64 `json:"predicted30Days"`
	Trend           Trend   `json:"trend"`
	Confidence      int     `json:"confidence"`
	Recommendation  string  `json:"recommendation"`
}

// OverallTrend is the qualitative direction of the composite wellness score.
type OverallTrend string

const (
	OverallImproving OverallTrend = "improving"
	OverallDeclining OverallTrend = "declining"
	OverallStable    OverallTrend = "stable"
)

// OverallWellness is the composite score and narrative across all metrics.
type OverallWellness struct {
	Score           int          `json:"score"`
	Trend           OverallTrend `json:"trend"`
	KeyFactors      []string     `json:"keyFactors"`
	Recommendations []string     `json:"recommendations"`
}

// WellnessPredictions is the complete pipeline result handed to the display layer.
type WellnessPredictions struct {
	Workout         TrendPrediction  `json:"workout"`
	Energy          TrendPrediction  `json:"energy"`
	Hydration       TrendPrediction  `json:"hydration"`
	Meditation      TrendPrediction  `json:"meditation"`
	Fasting         TrendPrediction  `json:"fasting"`
	Weight          *TrendPrediction `json:"weight,omitempty"`
	OverallWellness OverallWellness  `json:"overallWellness"`
}

// All returns every computed prediction in output order, weight last when present.
func (w *WellnessPredictions) All() []TrendPrediction {
	all := []TrendPrediction{w.Workout, w.Energy, w.Hydration, w.Meditation, w.Fasting}
	if w.Weight != nil {
		all = append(all, *w.Weight)
	}
	return all
}

// Get returns the prediction for a metric, or false when it was not computed.
func (w *WellnessPredictions) Get(m Metric) (TrendPrediction, bool) {
	for _, p := range w.All() {
		if p.Metric == m {
			return p, true
		}
	}
	return TrendPrediction{}, false
}
