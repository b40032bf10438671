package wellness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claude/wellcast/internal/ingest"
	"github.com/claude/wellcast/internal/models"
	"github.com/claude/wellcast/internal/storage"
)

// ErrNoPrediction is returned for a metric that has no prediction, such as
// weight with fewer than three logged days.
var ErrNoPrediction = errors.New("no prediction for metric")

// Store is the persistence the Service reads users' raw records from.
type Store interface {
	GetRecord(ctx context.Context, userID int, key string) ([]byte, error)
	ListRecords(ctx context.Context, userID int) ([]storage.RecordInfo, error)
}

// Compile-time check: *storage.DB satisfies Store.
var _ Store = (*storage.DB)(nil)

// Service runs the pipeline over a user's synced records.
type Service struct {
	store    Store
	pipeline *Pipeline
	log      *slog.Logger
}

// NewService creates a Service.
func NewService(store Store, pipeline *Pipeline, log *slog.Logger) *Service {
	return &Service{store: store, pipeline: pipeline, log: log}
}

// Pipeline returns the pipeline the service runs.
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

// Run computes the full result for a user. Malformed records degrade to empty
// series inside the pipeline; a store failure is returned as an error.
func (s *Service) Run(ctx context.Context, userID int) (Result, error) {
	records := &userRecords{store: s.store, userID: userID}
	res := s.pipeline.Run(ctx, ingest.NewKVSource(records, s.log))
	if records.err != nil {
		return Result{}, fmt.Errorf("reading records for user %d: %w", userID, records.err)
	}
	return res, nil
}

// GetPredictions returns a user's wellness predictions.
func (s *Service) GetPredictions(ctx context.Context, userID int) (*models.WellnessPredictions, error) {
	res, err := s.Run(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &res.Predictions, nil
}

// GetMetricTrend returns the prediction for one metric.
func (s *Service) GetMetricTrend(ctx context.Context, userID int, metric models.Metric) (*models.TrendPrediction, error) {
	res, err := s.Run(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, ok := res.Predictions.Get(metric)
	if !ok {
		return nil, fmt.Errorf("%s: %w", metric, ErrNoPrediction)
	}
	return &p, nil
}

// GetDataPoints returns the aggregated daily data points, limited to the most
// recent days when days is positive.
func (s *Service) GetDataPoints(ctx context.Context, userID, days int) ([]models.WellnessDataPoint, error) {
	res, err := s.Run(ctx, userID)
	if err != nil {
		return nil, err
	}
	points := res.DataPoints
	if days > 0 && len(points) > days {
		points = points[len(points)-days:]
	}
	return points, nil
}

// ListRecords returns the user's stored record keys.
func (s *Service) ListRecords(ctx context.Context, userID int) ([]storage.RecordInfo, error) {
	return s.store.ListRecords(ctx, userID)
}

// userRecords adapts one user's stored records to ingest.KeyValue. It keeps
// the first store failure so Run can report it.
type userRecords struct {
	store  Store
	userID int
	err    error
}

func (u *userRecords) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := u.store.GetRecord(ctx, u.userID, key)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, ingest.ErrNotFound
	}
	if err != nil && u.err == nil {
		u.err = err
	}
	return data, err
}
