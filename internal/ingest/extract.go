package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/wellcast/internal/models"
)

const (
	// maxFastingHours excludes sessions that were clearly never ended.
	maxFastingHours = 48
	// minOptionalPoints is how many logged days weight and measurements need
	// before they are included at all.
	minOptionalPoints = 3
	maxEnergyLevel    = 10
)

// Series holds one extracted MetricSeries per wellness dimension. Weight and
// Measurements are nil when fewer than three days were logged.
type Series struct {
	Workout      models.MetricSeries
	Energy       models.MetricSeries
	Hydration    models.MetricSeries
	Meditation   models.MetricSeries
	Fasting      models.MetricSeries
	Weight       models.MetricSeries
	Measurements map[string]models.BodyMeasurements
}

// Core returns the series for a core metric.
func (s Series) Core(m models.Metric) models.MetricSeries {
	switch m {
	case models.MetricWorkout:
		return s.Workout
	case models.MetricEnergy:
		return s.Energy
	case models.MetricHydration:
		return s.Hydration
	case models.MetricMeditation:
		return s.Meditation
	case models.MetricFasting:
		return s.Fasting
	case models.MetricWeight:
		return s.Weight
	}
	return nil
}

// Extractor turns raw stored records into metric series.
type Extractor struct {
	loc *time.Location
	log *slog.Logger
}

// NewExtractor creates an Extractor that keys timestamps by local calendar date in loc.
func NewExtractor(loc *time.Location, log *slog.Logger) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	return &Extractor{loc: loc, log: log}
}

// Extract reads every metric from src. A read or parse failure for one metric
// yields an empty series for that metric and never affects the others.
func (e *Extractor) Extract(ctx context.Context, src Source) Series {
	var s Series

	s.Workout = e.extract(ctx, models.MetricWorkout, src.WorkoutLogs, ExtractWorkoutReps)
	s.Energy = e.extract(ctx, models.MetricEnergy, src.EnergyLevels, ExtractEnergyLevels)
	s.Hydration = e.extract(ctx, models.MetricHydration, src.HydrationLogs, ExtractHydration)
	s.Meditation = e.extract(ctx, models.MetricMeditation, src.MeditationLogs, ExtractMeditation)
	s.Fasting = e.extract(ctx, models.MetricFasting, src.FastingLogs, ExtractFasting)

	raw, err := src.Measurements(ctx)
	if err != nil {
		e.log.Warn("measurements unavailable", "error", err)
		return s
	}
	if raw == nil {
		return s
	}
	weight, measurements, err := ExtractMeasurements(raw, e.loc)
	if err != nil {
		e.log.Warn("skipping malformed measurements", "error", err)
		return s
	}
	if len(weight) >= minOptionalPoints {
		s.Weight = weight
	}
	if len(measurements) >= minOptionalPoints {
		s.Measurements = measurements
	}
	return s
}

func (e *Extractor) extract(ctx context.Context, m models.Metric, read func(context.Context) ([]byte, error), parse func([]byte, *time.Location) (models.MetricSeries, error)) models.MetricSeries {
	raw, err := read(ctx)
	if err != nil {
		e.log.Warn("record unavailable", "metric", m, "error", err)
		return models.MetricSeries{}
	}
	if raw == nil {
		return models.MetricSeries{}
	}
	series, err := parse(raw, e.loc)
	if err != nil {
		e.log.Warn("skipping malformed record", "metric", m, "error", err)
		return models.MetricSeries{}
	}
	return series
}

// normalizeKey repairs a stored date key. Keys that cannot be repaired are
// returned unchanged and left for the date axis to reject.
func normalizeKey(key string, loc *time.Location) string {
	if k, err := models.NormalizeDateKey(key, loc); err == nil {
		return k
	}
	return key
}

// ExtractWorkoutReps sums rep counts per day. Each day is a {workoutId: reps}
// map; older records hold a plain total or an array of {reps} objects.
// Non-numeric counts contribute zero.
func ExtractWorkoutReps(raw []byte, loc *time.Location) (models.MetricSeries, error) {
	days, err := dateMap(raw)
	if err != nil {
		return nil, err
	}

	series := models.MetricSeries{}
	for key, value := range days {
		var total float64
		switch v := decodeAny(value).(type) {
		case map[string]any:
			for _, reps := range v {
				if n, ok := reps.(float64); ok && n > 0 {
					total += n
				}
			}
		case float64:
			total = v
		case []any:
			for _, item := range v {
				switch it := item.(type) {
				case float64:
					total += it
				case map[string]any:
					if n, ok := numberField(it, "reps"); ok {
						total += n
					}
				}
			}
		}
		series[normalizeKey(key, loc)] += max(total, 0)
	}
	return series, nil
}

// ExtractEnergyLevels reads the 1-10 energy rating per day. Non-numeric values
// become zero; out-of-range values are clamped.
func ExtractEnergyLevels(raw []byte, loc *time.Location) (models.MetricSeries, error) {
	days, err := dateMap(raw)
	if err != nil {
		return nil, err
	}

	series := models.MetricSeries{}
	for key, value := range days {
		var level float64
		switch v := decodeAny(value).(type) {
		case float64:
			level = v
		case map[string]any:
			if n, ok := numberField(v, "level"); ok {
				level = n
			} else if n, ok := numberField(v, "value"); ok {
				level = n
			}
		}
		level = min(max(level, 0), maxEnergyLevel)
		k := normalizeKey(key, loc)
		series[k] = max(series[k], level)
	}
	return series, nil
}

// ExtractHydration reads ounces per day, trying the known hydration fields in
// fallback order when totalOz is absent.
func ExtractHydration(raw []byte, loc *time.Location) (models.MetricSeries, error) {
	days, err := dateMap(raw)
	if err != nil {
		return nil, err
	}

	series := models.MetricSeries{}
	for key, value := range days {
		var oz float64
		switch v := decodeAny(value).(type) {
		case map[string]any:
			oz = hydrationOunces(v)
		case float64:
			oz = v
		}
		series[normalizeKey(key, loc)] += max(oz, 0)
	}
	return series, nil
}

// ExtractMeditation sums session minutes per local calendar day. The record is
// either an array of sessions or a date-keyed map of minutes, session arrays
// or {totalMinutes} objects.
func ExtractMeditation(raw []byte, loc *time.Location) (models.MetricSeries, error) {
	series := models.MetricSeries{}

	switch DetectContainerShape(raw) {
	case ShapeArray:
		items, err := decodeArray(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding meditation sessions: %w", err)
		}
		for _, item := range items {
			var s models.MeditationSession
			if err := json.Unmarshal(item, &s); err != nil {
				continue
			}
			key, ok := sessionDate(s, loc)
			if !ok {
				continue
			}
			if minutes, ok := models.Number(s.Duration); ok && minutes > 0 {
				series[key] += minutes
			}
		}

	case ShapeDateMap:
		days, err := decodeDateMap(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding meditation map: %w", err)
		}
		for key, value := range days {
			var minutes float64
			switch v := decodeAny(value).(type) {
			case float64:
				minutes = v
			case []any:
				for _, item := range v {
					switch it := item.(type) {
					case float64:
						minutes += it
					case map[string]any:
						if n, ok := numberField(it, "duration"); ok {
							minutes += n
						}
					}
				}
			case map[string]any:
				for _, name := range []string{"totalMinutes", "duration", "minutes"} {
					if n, ok := numberField(v, name); ok {
						minutes = n
						break
					}
				}
			}
			series[normalizeKey(key, loc)] += max(minutes, 0)
		}

	default:
		return nil, fmt.Errorf("unrecognized meditation record shape")
	}

	return series, nil
}

// sessionDate resolves a meditation session's local calendar date from its
// date field, falling back to completedAt.
func sessionDate(s models.MeditationSession, loc *time.Location) (string, bool) {
	if s.Date != "" {
		if key, err := models.NormalizeDateKey(s.Date, loc); err == nil {
			return key, true
		}
	}
	switch v := s.CompletedAt.(type) {
	case string:
		if key, err := models.NormalizeDateKey(v, loc); err == nil {
			return key, true
		}
	case float64:
		return models.DateKeyFromEpochMillis(v, loc), true
	}
	return "", false
}

// ExtractFasting keys each completed fasting session by its start date and
// keeps the longest session per day. Sessions of zero or negative length, or
// of 48 hours or more, are discarded.
func ExtractFasting(raw []byte, loc *time.Location) (models.MetricSeries, error) {
	var logs []models.FastingLog

	switch DetectContainerShape(raw) {
	case ShapeArray:
		items, err := decodeArray(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding fasting logs: %w", err)
		}
		for _, item := range items {
			var l models.FastingLog
			if err := json.Unmarshal(item, &l); err != nil {
				continue
			}
			logs = append(logs, l)
		}

	case ShapeDateMap:
		days, err := decodeDateMap(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding fasting map: %w", err)
		}
		for key, value := range days {
			var l models.FastingLog
			if err := json.Unmarshal(value, &l); err != nil {
				continue
			}
			if l.StartDate == "" {
				l.StartDate = key
			}
			logs = append(logs, l)
		}

	default:
		return nil, fmt.Errorf("unrecognized fasting record shape")
	}

	series := models.MetricSeries{}
	for _, l := range logs {
		key, hours, ok := fastingSession(l, loc)
		if !ok || hours <= 0 || hours >= maxFastingHours {
			continue
		}
		series[key] = max(series[key], hours)
	}
	return series, nil
}

// fastingSession computes a session's start date key and length in hours.
func fastingSession(l models.FastingLog, loc *time.Location) (string, float64, bool) {
	start, startOK := sessionTime(l.StartDate, l.StartTime, loc)
	end, endOK := sessionTime(l.EndDate, l.EndTime, loc)
	if l.EndDate == "" && !endOK {
		// Older records omit endDate when the fast ended on the start day.
		end, endOK = sessionTime(l.StartDate, l.EndTime, loc)
	}

	key := ""
	if l.StartDate != "" {
		if k, err := models.NormalizeDateKey(l.StartDate, loc); err == nil {
			key = k
		}
	}
	if key == "" && startOK {
		key = models.DateKey(start, loc)
	}
	if key == "" {
		return "", 0, false
	}

	if startOK && endOK {
		return key, end.Sub(start).Hours(), true
	}
	if minutes, ok := models.Number(l.Duration); ok {
		return key, minutes / 60, true
	}
	return "", 0, false
}

// sessionTime combines a date and a clock time, or parses clock as a full timestamp.
func sessionTime(date, clock string, loc *time.Location) (time.Time, bool) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return time.Time{}, false
	}
	if t, err := models.ParseTimestamp(clock, loc); err == nil {
		return t, true
	}
	key, err := models.NormalizeDateKey(date, loc)
	if err != nil {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, key+" "+clock, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractMeasurements reads the weight series and body measurements from a
// date-keyed map or an array of dated entries. Values are passed through as logged.
func ExtractMeasurements(raw []byte, loc *time.Location) (models.MetricSeries, map[string]models.BodyMeasurements, error) {
	entries := map[string]models.MeasurementEntry{}

	switch DetectContainerShape(raw) {
	case ShapeDateMap:
		days, err := decodeDateMap(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding measurements map: %w", err)
		}
		for key, value := range days {
			var e models.MeasurementEntry
			if err := json.Unmarshal(value, &e); err != nil {
				continue
			}
			entries[normalizeKey(key, loc)] = e
		}

	case ShapeArray:
		items, err := decodeArray(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding measurements array: %w", err)
		}
		for _, item := range items {
			var e models.MeasurementEntry
			if err := json.Unmarshal(item, &e); err != nil || e.Date == "" {
				continue
			}
			entries[normalizeKey(e.Date, loc)] = e
		}

	default:
		return nil, nil, fmt.Errorf("unrecognized measurements record shape")
	}

	weight := models.MetricSeries{}
	measurements := map[string]models.BodyMeasurements{}
	for key, e := range entries {
		if w, ok := models.Number(e.Weight); ok && w > 0 {
			weight[key] = w
		}
		var b models.BodyMeasurements
		b.Chest, _ = models.Number(e.Chest)
		b.Waist, _ = models.Number(e.Waist)
		b.Biceps, _ = models.Number(e.Biceps)
		b.Thighs, _ = models.Number(e.Thighs)
		if !b.IsZero() {
			measurements[key] = b
		}
	}
	return weight, measurements, nil
}

func dateMap(raw []byte) (map[string]json.RawMessage, error) {
	if DetectContainerShape(raw) != ShapeDateMap {
		return nil, fmt.Errorf("expected a date-keyed object")
	}
	days, err := decodeDateMap(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding date map: %w", err)
	}
	return days, nil
}
