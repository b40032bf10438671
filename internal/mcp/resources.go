package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) predictions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	preds, err := h.ds.GetPredictions(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, preds)
}

func (h *handlers) dataPoints(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	points, err := h.ds.GetDataPoints(ctx, UserIDFromContext(ctx), 0)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, points)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
