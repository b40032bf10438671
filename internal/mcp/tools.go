package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/wellcast/internal/models"
	"github.com/claude/wellcast/internal/wellness"
)

// --- Tool definitions ---

var toolGetWellnessPredictions = mcp.NewTool("get_wellness_predictions",
	mcp.WithDescription("Predict 7-day and 30-day values for workout reps, energy level, hydration, meditation minutes, fasting hours and (when logged) weight. Each prediction carries its trend (increasing/decreasing/stable), a 10-100 confidence and a recommendation; the overall wellness score (0-100) summarizes them."),
)

var toolGetMetricTrend = mcp.NewTool("get_metric_trend",
	mcp.WithDescription("Trend prediction for a single wellness metric."),
	mcp.WithString("metric", mcp.Required(), mcp.Description("Metric to predict"),
		mcp.Enum("workout", "energy", "hydration", "meditation", "fasting", "weight")),
)

var toolGetDailyDataPoints = mcp.NewTool("get_daily_data_points",
	mcp.WithDescription("Daily wellness records (workout reps, energy 0-10, hydration oz, meditation minutes, fasting hours, weight) for the most recent logged days. Days with nothing logged are absent."),
	mcp.WithNumber("days", mcp.Description("Number of most recent logged days to return. Defaults to all (up to 60)."), mcp.Min(0)),
)

var toolListTrackedRecords = mcp.NewTool("list_tracked_records",
	mcp.WithDescription("List the raw records synced for this user, with size and last update time."),
)

// --- Tool handlers ---

func (h *handlers) getWellnessPredictions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	preds, err := h.ds.GetPredictions(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_wellness_predictions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(preds)
}

func (h *handlers) getMetricTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("metric")
	if err != nil {
		return mcp.NewToolResultError("metric parameter is required"), nil
	}
	metric, ok := models.ParseMetric(name)
	if !ok {
		return mcp.NewToolResultError("unknown metric: " + name), nil
	}

	p, err := h.ds.GetMetricTrend(ctx, UserIDFromContext(ctx), metric)
	if errors.Is(err, wellness.ErrNoPrediction) {
		return mcp.NewToolResultError("not enough " + metric.DisplayName() + " data for a prediction"), nil
	}
	if err != nil {
		h.log.Error("mcp get_metric_trend", "metric", metric, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(p)
}

func (h *handlers) getDailyDataPoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", 0)
	if days < 0 {
		return mcp.NewToolResultError("days must not be negative"), nil
	}

	points, err := h.ds.GetDataPoints(ctx, UserIDFromContext(ctx), days)
	if err != nil {
		h.log.Error("mcp get_daily_data_points", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(points)
}

func (h *handlers) listTrackedRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.ds.ListRecords(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_tracked_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(records)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
