package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/claude/wellcast/internal/models"
)

// ErrNotFound is returned by a KeyValue store when a key has never been written.
var ErrNotFound = errors.New("record not found")

// Source gives read-only access to the raw stored record for each metric.
// A nil slice with a nil error means the record does not exist.
type Source interface {
	WorkoutLogs(ctx context.Context) ([]byte, error)
	EnergyLevels(ctx context.Context) ([]byte, error)
	HydrationLogs(ctx context.Context) ([]byte, error)
	MeditationLogs(ctx context.Context) ([]byte, error)
	FastingLogs(ctx context.Context) ([]byte, error)
	Measurements(ctx context.Context) ([]byte, error)
}

// KeyValue is a local-storage style record store.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// RecordKeys lists the storage keys each metric has been persisted under,
// current key first. Later keys were written by older app versions.
var RecordKeys = map[models.Metric][]string{
	models.MetricWorkout:    {"workoutLogs", "dailyWorkoutLogs", "workout-logs"},
	models.MetricEnergy:     {"energyLevels", "energy-levels", "dailyEnergy"},
	models.MetricHydration:  {"hydrationLogs", "hydration-logs", "waterIntake"},
	models.MetricMeditation: {"meditationSessions", "meditationLogs", "meditation-history"},
	models.MetricFasting:    {"fastingLogs", "fastingHistory", "fasting-sessions"},
	models.MetricWeight:     {"bodyMeasurements", "measurements", "measurementLogs"},
}

// IsWellnessKey reports whether key is one of the known record keys.
func IsWellnessKey(key string) bool {
	for _, keys := range RecordKeys {
		for _, k := range keys {
			if k == key {
				return true
			}
		}
	}
	return false
}

// KVSource resolves each metric to the first populated key in RecordKeys.
type KVSource struct {
	kv  KeyValue
	log *slog.Logger
}

// Compile-time check: KVSource satisfies Source.
var _ Source = (*KVSource)(nil)

// NewKVSource wraps a KeyValue store as a Source.
func NewKVSource(kv KeyValue, log *slog.Logger) *KVSource {
	return &KVSource{kv: kv, log: log}
}

func (s *KVSource) read(ctx context.Context, m models.Metric) ([]byte, error) {
	for _, key := range RecordKeys[m] {
		data, err := s.kv.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		if isBlank(data) {
			continue
		}
		s.log.Debug("resolved record", "metric", m, "key", key, "bytes", len(data))
		return data, nil
	}
	return nil, nil
}

func (s *KVSource) WorkoutLogs(ctx context.Context) ([]byte, error) {
	return s.read(ctx, models.MetricWorkout)
}

func (s *KVSource) EnergyLevels(ctx context.Context) ([]byte, error) {
	return s.read(ctx, models.MetricEnergy)
}

func (s *KVSource) HydrationLogs(ctx context.Context) ([]byte, error) {
	return s.read(ctx, models.MetricHydration)
}

func (s *KVSource) MeditationLogs(ctx context.Context) ([]byte, error) {
	return s.read(ctx, models.MetricMeditation)
}

func (s *KVSource) FastingLogs(ctx context.Context) ([]byte, error) {
	return s.read(ctx, models.MetricFasting)
}

func (s *KVSource) Measurements(ctx context.Context) ([]byte, error) {
	return s.read(ctx, models.MetricWeight)
}

func isBlank(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Snapshot is an in-memory copy of a browser local-storage export.
type Snapshot map[string][]byte

// Compile-time check: Snapshot satisfies KeyValue.
var _ KeyValue = Snapshot(nil)

// Get returns the stored value for key.
func (s Snapshot) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Keys returns the snapshot's keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseSnapshot reads an export object. Local storage holds every value as a
// string, so string values are unwrapped to the serialized JSON they contain;
// any other JSON value is kept verbatim. Malformed inner values are kept as-is
// and rejected later by the extractor for that metric only.
func ParseSnapshot(r io.Reader) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}

	snap := make(Snapshot, len(raw))
	for key, value := range raw {
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) > 0 && trimmed[0] == '"' {
			var s string
			if err := json.Unmarshal(trimmed, &s); err != nil {
				return nil, fmt.Errorf("decoding value for %s: %w", key, err)
			}
			snap[key] = []byte(s)
			continue
		}
		snap[key] = []byte(trimmed)
	}
	return snap, nil
}
