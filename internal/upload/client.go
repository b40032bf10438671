package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// remoteRecord mirrors storage.RecordInfo without importing the storage package
// (which would pull in pgx and other server-side dependencies).
type remoteRecord struct {
	Key  string `json:"key"`
	Hash string `json:"hash"`
}

// syncReport mirrors server.SyncReport.
type syncReport struct {
	SyncID     string `json:"sync_id"`
	Received   int    `json:"received"`
	Changed    int    `json:"changed"`
	Skipped    int    `json:"skipped"`
	Errored    int    `json:"errored"`
	DurationMs int    `json:"duration_ms"`
}

// Client sends records to the Wellcast server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the Wellcast server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// FetchRecordHashes retrieves the content hash of every record the server
// already holds, keyed by record key.
func (c *Client) FetchRecordHashes(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/v1/records", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("records request failed (status %d): %s", resp.StatusCode, body)
	}

	var records []remoteRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	hashes := make(map[string]string, len(records))
	for _, r := range records {
		hashes[r.Key] = r.Hash
	}
	return hashes, nil
}

// PutRecord uploads one record value under key.
// Retries up to 3 times with exponential backoff on failure.
func (c *Client) PutRecord(ctx context.Context, key string, value []byte, syncID string) error {
	endpoint := c.serverURL + "/api/v1/records/" + url.PathEscape(key)

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(value))
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("X-Sync-ID", syncID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return nil
		}
		lastErr = fmt.Errorf("put %s failed (status %d): %s", key, resp.StatusCode, body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return lastErr
		}
	}

	return fmt.Errorf("after 3 attempts: %w", lastErr)
}

// reportSync records a finished run in the server's sync log.
func (c *Client) reportSync(ctx context.Context, report syncReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling sync report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/sync-logs", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Sync-ID", report.SyncID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reporting sync: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sync report failed (status %d): %s", resp.StatusCode, body)
	}
	return nil
}
