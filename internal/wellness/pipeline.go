// Package wellness runs the extraction, aggregation, prediction and scoring
// stages as one pipeline and binds it to stored per-user records.
package wellness

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/wellcast/internal/aggregate"
	"github.com/claude/wellcast/internal/ingest"
	"github.com/claude/wellcast/internal/models"
	"github.com/claude/wellcast/internal/predict"
	"github.com/claude/wellcast/internal/score"
)

// Options configures a Pipeline.
type Options struct {
	// WindowDays is how many of the most recent logged days are analysed.
	WindowDays int
	// Location is the timezone calendar dates are taken in.
	Location *time.Location
	// Now returns the current time; dates after today are ignored.
	Now func() time.Time
}

// Result is one pipeline run's output.
type Result struct {
	Predictions models.WellnessPredictions `json:"predictions"`
	DataPoints  []models.WellnessDataPoint `json:"dataPoints"`
}

// Pipeline computes wellness predictions from raw stored records. A run holds
// no state between calls, so one Pipeline may be shared across goroutines.
type Pipeline struct {
	opts      Options
	extractor *ingest.Extractor
	log       *slog.Logger
}

// NewPipeline creates a Pipeline, filling unset options with defaults.
func NewPipeline(opts Options, log *slog.Logger) *Pipeline {
	if opts.WindowDays <= 0 {
		opts.WindowDays = aggregate.DefaultWindowDays
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		opts:      opts,
		extractor: ingest.NewExtractor(opts.Location, log),
		log:       log,
	}
}

// Run reads every metric from src and returns the predictions with the data
// points they were computed from. It never fails: unreadable metrics count as
// empty, and no data at all yields the neutral no-data result.
func (p *Pipeline) Run(ctx context.Context, src ingest.Source) Result {
	series := p.extractor.Extract(ctx, src)

	all := make([]models.MetricSeries, 0, len(models.CoreMetrics)+2)
	for _, m := range models.CoreMetrics {
		all = append(all, series.Core(m))
	}
	// Days with only body measurements still get a data point.
	measured := make(models.MetricSeries, len(series.Measurements))
	for date := range series.Measurements {
		measured[date] = 0
	}
	all = append(all, series.Weight, measured)

	axis := aggregate.DateAxis(p.opts.Now(), p.opts.Location, p.opts.WindowDays, all...)
	points := aggregate.BuildDataPoints(axis, series)

	if len(points) == 0 {
		p.log.Debug("no wellness data logged")
		return Result{Predictions: empty(), DataPoints: points}
	}

	preds := models.WellnessPredictions{
		Workout:    predict.Predict(models.MetricWorkout, aggregate.Values(points, models.MetricWorkout)),
		Energy:     predict.Predict(models.MetricEnergy, aggregate.Values(points, models.MetricEnergy)),
		Hydration:  predict.Predict(models.MetricHydration, aggregate.Values(points, models.MetricHydration)),
		Meditation: predict.Predict(models.MetricMeditation, aggregate.Values(points, models.MetricMeditation)),
		Fasting:    predict.Predict(models.MetricFasting, aggregate.Values(points, models.MetricFasting)),
	}
	if series.Weight != nil {
		if values := aggregate.Values(points, models.MetricWeight); len(values) >= predict.MinPoints {
			w := predict.Predict(models.MetricWeight, values)
			preds.Weight = &w
		}
	}
	preds.OverallWellness = score.Synthesize(preds.All())

	p.log.Debug("wellness pipeline complete",
		"days", len(points),
		"score", preds.OverallWellness.Score,
		"trend", preds.OverallWellness.Trend,
	)
	return Result{Predictions: preds, DataPoints: points}
}

// empty is the complete result for a user with nothing logged.
func empty() models.WellnessPredictions {
	return models.WellnessPredictions{
		Workout:         predict.Predict(models.MetricWorkout, nil),
		Energy:          predict.Predict(models.MetricEnergy, nil),
		Hydration:       predict.Predict(models.MetricHydration, nil),
		Meditation:      predict.Predict(models.MetricMeditation, nil),
		Fasting:         predict.Predict(models.MetricFasting, nil),
		OverallWellness: score.NoData(),
	}
}
