package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/wellcast/internal/models"
	"github.com/claude/wellcast/internal/storage"
	"github.com/claude/wellcast/internal/wellness"
)

// HTTPClient implements DataSource by calling the wellcast REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// errNotFound marks a 404 from the remote service.
var errNotFound = errors.New("not found")

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("httpclient: %s: %w", path, errNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) GetPredictions(ctx context.Context, _ int) (*models.WellnessPredictions, error) {
	var preds models.WellnessPredictions
	if err := c.get(ctx, "/api/v1/predictions", nil, &preds); err != nil {
		return nil, err
	}
	return &preds, nil
}

func (c *HTTPClient) GetMetricTrend(ctx context.Context, _ int, metric models.Metric) (*models.TrendPrediction, error) {
	var p models.TrendPrediction
	err := c.get(ctx, "/api/v1/predictions/"+url.PathEscape(string(metric)), nil, &p)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("%s: %w", metric, wellness.ErrNoPrediction)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetDataPoints(ctx context.Context, _ int, days int) ([]models.WellnessDataPoint, error) {
	params := url.Values{}
	if days > 0 {
		params.Set("days", strconv.Itoa(days))
	}
	var points []models.WellnessDataPoint
	if err := c.get(ctx, "/api/v1/datapoints", params, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *HTTPClient) ListRecords(ctx context.Context, _ int) ([]storage.RecordInfo, error) {
	var records []storage.RecordInfo
	if err := c.get(ctx, "/api/v1/records", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
