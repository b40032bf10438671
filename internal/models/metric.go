package models

// Metric identifies one tracked wellness dimension.
type Metric string

const (
	MetricWorkout    Metric = "workout"
	MetricEnergy     Metric = "energy"
	MetricHydration  Metric = "hydration"
	MetricMeditation Metric = "meditation"
	MetricFasting    Metric = "fasting"
	MetricWeight     Metric = "weight"
)

// CoreMetrics are always predicted, in output order. Weight is optional and
// only predicted when enough measurements exist.
var CoreMetrics = []Metric{
	MetricWorkout,
	MetricEnergy,
	MetricHydration,
	MetricMeditation,
	MetricFasting,
}

var displayNames = map[Metric]string{
	MetricWorkout:    "workout volume",
	MetricEnergy:     "energy level",
	MetricHydration:  "hydration",
	MetricMeditation: "meditation practice",
	MetricFasting:    "fasting duration",
	MetricWeight:     "weight",
}

// DisplayName returns the human-readable name used in recommendation text.
func (m Metric) DisplayName() string {
	if name, ok := displayNames[m]; ok {
		return name
	}
	return string(m)
}

// ParseMetric resolves a metric name, reporting whether it is known.
func ParseMetric(s string) (Metric, bool) {
	m := Metric(s)
	_, ok := displayNames[m]
	return m, ok
}
