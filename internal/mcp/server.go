// Package mcp exposes wellness predictions to MCP clients as tools and resources.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Wellcast", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Wellcast wellness trend server. Predicts workout, energy, hydration, meditation, fasting and weight trends from logged daily data and summarizes them as an overall wellness score. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetWellnessPredictions, Handler: h.getWellnessPredictions},
		server.ServerTool{Tool: toolGetMetricTrend, Handler: h.getMetricTrend},
		server.ServerTool{Tool: toolGetDailyDataPoints, Handler: h.getDailyDataPoints},
		server.ServerTool{Tool: toolListTrackedRecords, Handler: h.listTrackedRecords},
	)

	s.AddResources(
		server.ServerResource{Resource: resPredictions, Handler: h.predictions},
		server.ServerResource{Resource: resDataPoints, Handler: h.dataPoints},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resPredictions = mcp.NewResource(
	"wellcast://predictions",
	"Wellness Predictions",
	mcp.WithResourceDescription("Current trend predictions for every tracked metric plus the overall wellness score"),
	mcp.WithMIMEType("application/json"),
)

var resDataPoints = mcp.NewResource(
	"wellcast://data_points",
	"Daily Data Points",
	mcp.WithResourceDescription("The aggregated per-day wellness records the predictions are computed from"),
	mcp.WithMIMEType("application/json"),
)
