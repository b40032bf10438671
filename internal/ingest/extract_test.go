package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/claude/wellcast/internal/models"
)

// TestExtractWorkoutReps verifies per-day rep sums across the current and legacy shapes.
// Non-numeric counts contribute nothing rather than failing the day.
func TestExtractWorkoutReps(t *testing.T) {
	raw := []byte(`{
		"2024-05-01": {"pushups": 20, "squats": 30, "notes": "felt good"},
		"2024-05-02": 45,
		"2024-05-03": [{"reps": 10}, {"reps": "x"}, 5],
		"2024-05-04": {"pushups": "twenty"}
	}`)
	got, err := ExtractWorkoutReps(raw, time.UTC)
	if err != nil {
		t.Fatalf("ExtractWorkoutReps: %v", err)
	}
	want := models.MetricSeries{"2024-05-01": 50, "2024-05-02": 45, "2024-05-03": 15, "2024-05-04": 0}
	assertSeries(t, got, want)
}

// TestExtractWorkoutRepsRejectsArray verifies that the workout log must be date-keyed.
func TestExtractWorkoutRepsRejectsArray(t *testing.T) {
	if _, err := ExtractWorkoutReps([]byte(`[1,2]`), time.UTC); err == nil {
		t.Error("expected error for array workout log")
	}
}

// TestExtractEnergyLevels verifies numeric passthrough, zero for non-numbers and clamping.
func TestExtractEnergyLevels(t *testing.T) {
	raw := []byte(`{
		"2024-05-01": 7,
		"2024-05-02": "high",
		"2024-05-03": 14,
		"2024-05-04": {"level": 4}
	}`)
	got, err := ExtractEnergyLevels(raw, time.UTC)
	if err != nil {
		t.Fatalf("ExtractEnergyLevels: %v", err)
	}
	want := models.MetricSeries{"2024-05-01": 7, "2024-05-02": 0, "2024-05-03": 10, "2024-05-04": 4}
	assertSeries(t, got, want)
}

// TestExtractHydrationTotalOz verifies the canonical shape with a single logged day.
func TestExtractHydrationTotalOz(t *testing.T) {
	got, err := ExtractHydration([]byte(`{"2024-05-01": {"totalOz": 40, "entries": [{"amount": 8}]}}`), time.UTC)
	if err != nil {
		t.Fatalf("ExtractHydration: %v", err)
	}
	assertSeries(t, got, models.MetricSeries{"2024-05-01": 40})
}

// TestExtractMeditationSessions verifies grouping of session arrays by local day.
// The late-evening UTC timestamp belongs to the previous New York day.
func TestExtractMeditationSessions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	raw := []byte(`[
		{"date": "2024-05-01", "duration": 10},
		{"completedAt": "2024-05-02T01:30:00.000Z", "duration": 15},
		{"date": "2024/05/02", "duration": 5},
		{"completedAt": 1714608000000, "duration": 20},
		{"date": "2024-05-03", "duration": 0},
		{"date": "not a date", "duration": 30},
		"garbage"
	]`)
	got, err := ExtractMeditation(raw, loc)
	if err != nil {
		t.Fatalf("ExtractMeditation: %v", err)
	}
	// 1714608000000 ms is 2024-05-02T00:00Z, which is still May 1 in New York.
	want := models.MetricSeries{"2024-05-01": 45, "2024-05-02": 5}
	assertSeries(t, got, want)
}

// TestExtractMeditationDateMap verifies the legacy daily-aggregate map form.
func TestExtractMeditationDateMap(t *testing.T) {
	raw := []byte(`{
		"2024-05-01": 12,
		"2024-05-02": [{"duration": 5}, {"duration": 10}],
		"2024-05-03": {"totalMinutes": 25}
	}`)
	got, err := ExtractMeditation(raw, time.UTC)
	if err != nil {
		t.Fatalf("ExtractMeditation: %v", err)
	}
	assertSeries(t, got, models.MetricSeries{"2024-05-01": 12, "2024-05-02": 15, "2024-05-03": 25})
}

// TestExtractFasting verifies clock-time and duration sessions, the per-day
// maximum, and exclusion of sessions at or beyond 48 hours.
func TestExtractFasting(t *testing.T) {
	raw := []byte(`[
		{"startDate": "2024-05-01", "startTime": "20:00", "endDate": "2024-05-02", "endTime": "12:00"},
		{"startDate": "2024-05-01", "duration": 600},
		{"startDate": "2024-05-03", "startTime": "08:00", "endDate": "2024-05-05", "endTime": "10:00"},
		{"startDate": "2024-05-04", "duration": 2880},
		{"startDate": "2024-05-06", "startTime": "18:00"},
		{"startDate": "2024-05-07", "startTime": "12:00", "endTime": "08:00"},
		{"startDate": "2024-05-08", "startTime": "2024-05-08T06:00:00Z", "endTime": "2024-05-08T20:00:00Z"}
	]`)
	got, err := ExtractFasting(raw, time.UTC)
	if err != nil {
		t.Fatalf("ExtractFasting: %v", err)
	}
	// 2024-05-03 is a 50 hour session and must be dropped, not clamped.
	want := models.MetricSeries{"2024-05-01": 16, "2024-05-08": 14}
	assertSeries(t, got, want)
}

// TestExtractFastingDateMap verifies that a date-keyed map of sessions keys by the map key.
func TestExtractFastingDateMap(t *testing.T) {
	raw := []byte(`{"2024-05-01": {"duration": 900}, "2024-05-02": {"duration": "long"}}`)
	got, err := ExtractFasting(raw, time.UTC)
	if err != nil {
		t.Fatalf("ExtractFasting: %v", err)
	}
	assertSeries(t, got, models.MetricSeries{"2024-05-01": 15})
}

// TestExtractMeasurements verifies weight passthrough and body measurements in both shapes.
func TestExtractMeasurements(t *testing.T) {
	for name, raw := range map[string]string{
		"map":   `{"2024-05-01": {"weight": 180.5, "waist": 34}, "2024-05-02": {"weight": 179}}`,
		"array": `[{"date": "2024-05-01", "weight": 180.5, "waist": 34}, {"date": "2024-05-02", "weight": 179}, {"weight": 1}]`,
	} {
		t.Run(name, func(t *testing.T) {
			weight, measurements, err := ExtractMeasurements([]byte(raw), time.UTC)
			if err != nil {
				t.Fatalf("ExtractMeasurements: %v", err)
			}
			assertSeries(t, weight, models.MetricSeries{"2024-05-01": 180.5, "2024-05-02": 179})
			if len(measurements) != 1 || measurements["2024-05-01"].Waist != 34 {
				t.Errorf("measurements = %+v", measurements)
			}
		})
	}
}

// TestExtractorMalformedMetricIsolated verifies that one unparseable record
// empties only its own series.
func TestExtractorMalformedMetricIsolated(t *testing.T) {
	snap := Snapshot{
		"workoutLogs":   []byte(`{not json`),
		"hydrationLogs": []byte(`{"2024-05-01": {"totalOz": 40}}`),
		"fastingLogs":   []byte(`"oops"`),
	}
	e := NewExtractor(time.UTC, discardLogger())
	s := e.Extract(context.Background(), NewKVSource(snap, discardLogger()))

	if len(s.Workout) != 0 || len(s.Fasting) != 0 {
		t.Errorf("malformed series not emptied: workout=%v fasting=%v", s.Workout, s.Fasting)
	}
	assertSeries(t, s.Hydration, models.MetricSeries{"2024-05-01": 40})
	if s.Energy == nil || len(s.Energy) != 0 {
		t.Errorf("absent energy = %v, want empty non-nil series", s.Energy)
	}
}

// TestExtractorWeightThreshold verifies weight is only included with at least three logged days.
func TestExtractorWeightThreshold(t *testing.T) {
	e := NewExtractor(time.UTC, discardLogger())

	two := Snapshot{"bodyMeasurements": []byte(`{"2024-05-01": {"weight": 180}, "2024-05-02": {"weight": 179}}`)}
	if s := e.Extract(context.Background(), NewKVSource(two, discardLogger())); s.Weight != nil {
		t.Errorf("weight with two days = %v, want nil", s.Weight)
	}

	three := Snapshot{"measurements": []byte(`{"2024-05-01": {"weight": 180}, "2024-05-02": {"weight": 179}, "2024-05-03": {"weight": 178}}`)}
	s := e.Extract(context.Background(), NewKVSource(three, discardLogger()))
	if len(s.Weight) != 3 {
		t.Errorf("weight with three days = %v", s.Weight)
	}
	if s.Core(models.MetricWeight) == nil {
		t.Error("Core(weight) = nil")
	}
}

func assertSeries(t *testing.T, got, want models.MetricSeries) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("series = %v, want %v", got, want)
		return
	}
	for date, v := range want {
		if g, ok := got[date]; !ok || g != v {
			t.Errorf("series[%s] = %v (present=%v), want %v", date, g, ok, v)
		}
	}
}

// TestExtractTimestampKeysUseLocalDate verifies that every date-keyed metric
// truncates a timestamp key to the same local calendar day.
func TestExtractTimestampKeysUseLocalDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:30 in New York is already May 2 in UTC.
	const key = "2024-05-01T23:30:00-04:00"
	want := "2024-05-01"

	tests := []struct {
		name    string
		extract func([]byte, *time.Location) (models.MetricSeries, error)
		raw     string
		value   float64
	}{
		{"workout", ExtractWorkoutReps, `{"` + key + `": {"pushups": 10}}`, 10},
		{"energy", ExtractEnergyLevels, `{"` + key + `": 5}`, 5},
		{"hydration", ExtractHydration, `{"` + key + `": {"totalOz": 40}}`, 40},
		{"meditation", ExtractMeditation, `{"` + key + `": 15}`, 15},
		{"weight", func(raw []byte, loc *time.Location) (models.MetricSeries, error) {
			weight, _, err := ExtractMeasurements(raw, loc)
			return weight, err
		}, `{"` + key + `": {"weight": 180, "waist": 32}}`, 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.extract([]byte(tt.raw), loc)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			assertSeries(t, got, models.MetricSeries{want: tt.value})
		})
	}

	_, measurements, err := ExtractMeasurements([]byte(`{"`+key+`": {"waist": 32}}`), loc)
	if err != nil {
		t.Fatalf("ExtractMeasurements: %v", err)
	}
	if m, ok := measurements[want]; !ok || m.Waist != 32 {
		t.Errorf("measurements = %v, want waist 32 on %s", measurements, want)
	}
}
