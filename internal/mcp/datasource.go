package mcp

import (
	"context"

	"github.com/claude/wellcast/internal/models"
	"github.com/claude/wellcast/internal/storage"
	"github.com/claude/wellcast/internal/wellness"
)

// DataSource abstracts where predictions come from. Both *wellness.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetPredictions(ctx context.Context, userID int) (*models.WellnessPredictions, error)
	GetMetricTrend(ctx context.Context, userID int, metric models.Metric) (*models.TrendPrediction, error)
	GetDataPoints(ctx context.Context, userID, days int) ([]models.WellnessDataPoint, error)
	ListRecords(ctx context.Context, userID int) ([]storage.RecordInfo, error)
}

// Compile-time check: *wellness.Service satisfies DataSource.
var _ DataSource = (*wellness.Service)(nil)
