package upload

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/claude/wellcast/internal/ingest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeServer records PUTs and serves GET /api/v1/records from what it holds.
type fakeServer struct {
	mu      sync.Mutex
	records map[string][]byte
	syncIDs map[string]bool
	reports []syncReport
	puts    int
	failN   int             // fail the first failN PUTs with 503
	reject  map[string]bool // keys answered with 400
}

func newFakeServer() *fakeServer {
	return &fakeServer{records: map[string][]byte{}, syncIDs: map[string]bool{}}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/records":
		var out []remoteRecord
		for k, v := range f.records {
			out = append(out, remoteRecord{Key: k, Hash: HashRecord(v)})
		}
		json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/v1/records/"):
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.puts++
		if f.reject[strings.TrimPrefix(r.URL.Path, "/api/v1/records/")] {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if f.puts <= f.failN {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.records[strings.TrimPrefix(r.URL.Path, "/api/v1/records/")] = body
		f.syncIDs[r.Header.Get("X-Sync-ID")] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/sync-logs":
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var report syncReport
		if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.reports = append(f.reports, report)
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestUploader(t *testing.T, url, apiKey string, dryRun bool) *Uploader {
	t.Helper()
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	t.Cleanup(func() { state.Close() })

	client := NewClient(url, apiKey)
	client.backoff = time.Millisecond
	return New(client, state, url, dryRun, discardLogger())
}

var testSnapshot = ingest.Snapshot{
	"workoutLogs":  []byte(`{"2024-03-01":{"pushups":20}}`),
	"energyLevels": []byte(`{"2024-03-01":7}`),
	"theme":        []byte(`"dark"`),
}

// TestUploaderSendsWellnessRecordsOnce verifies that a second run with an
// unchanged export uploads nothing.
func TestUploaderSendsWellnessRecordsOnce(t *testing.T) {
	fake := newFakeServer()
	ts := httptest.NewServer(fake)
	defer ts.Close()

	u := newTestUploader(t, ts.URL, "secret", false)
	stats, err := u.Run(context.Background(), testSnapshot)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RecordsTotal != 2 || stats.RecordsUploaded != 2 || stats.RecordsSkipped != 0 {
		t.Errorf("first run stats = %+v", stats)
	}
	if len(stats.IgnoredKeys) != 1 || stats.IgnoredKeys[0] != "theme" {
		t.Errorf("IgnoredKeys = %v, want [theme]", stats.IgnoredKeys)
	}
	if string(fake.records["energyLevels"]) != `{"2024-03-01":7}` {
		t.Errorf("server energyLevels = %s", fake.records["energyLevels"])
	}
	if !fake.syncIDs[stats.SyncID] || len(fake.syncIDs) != 1 {
		t.Errorf("sync IDs seen by server = %v, want only %s", fake.syncIDs, stats.SyncID)
	}

	stats, err = u.Run(context.Background(), testSnapshot)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if stats.RecordsUploaded != 0 || stats.RecordsSkipped != 2 {
		t.Errorf("second run stats = %+v", stats)
	}
	if fake.puts != 2 {
		t.Errorf("server saw %d PUTs, want 2", fake.puts)
	}

	// Each run records its counts in the server's sync log.
	if len(fake.reports) != 2 {
		t.Fatalf("sync reports = %+v, want 2", fake.reports)
	}
	first, second := fake.reports[0], fake.reports[1]
	if first.Received != 2 || first.Changed != 2 || first.Skipped != 0 || first.Errored != 0 {
		t.Errorf("first report = %+v", first)
	}
	if second.SyncID != stats.SyncID || second.Changed != 0 || second.Skipped != 2 {
		t.Errorf("second report = %+v", second)
	}
	if first.SyncID == second.SyncID {
		t.Errorf("both runs reported sync ID %s", first.SyncID)
	}
}

// TestUploaderSkipsRecordsServerHas verifies that a fresh state database
// still skips records whose hash matches the server's copy.
func TestUploaderSkipsRecordsServerHas(t *testing.T) {
	fake := newFakeServer()
	fake.records["workoutLogs"] = testSnapshot["workoutLogs"]
	ts := httptest.NewServer(fake)
	defer ts.Close()

	u := newTestUploader(t, ts.URL, "secret", false)
	stats, err := u.Run(context.Background(), testSnapshot)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RecordsUploaded != 1 || stats.RecordsSkipped != 1 {
		t.Errorf("stats = %+v, want 1 uploaded and 1 skipped", stats)
	}
}

// TestUploaderRetriesServerErrors verifies transient 5xx responses are retried.
func TestUploaderRetriesServerErrors(t *testing.T) {
	fake := newFakeServer()
	fake.failN = 2
	ts := httptest.NewServer(fake)
	defer ts.Close()

	u := newTestUploader(t, ts.URL, "secret", false)
	stats, err := u.Run(context.Background(), ingest.Snapshot{"energyLevels": []byte(`{}`)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RecordsUploaded != 1 || stats.RecordsErrored != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if fake.puts != 3 {
		t.Errorf("server saw %d PUTs, want 3", fake.puts)
	}
}

// TestUploaderRejectedKeyNotRetried verifies that a 4xx fails the record
// immediately, leaves it unmarked in the state database and is counted in the
// sync log.
func TestUploaderRejectedKeyNotRetried(t *testing.T) {
	fake := newFakeServer()
	fake.reject = map[string]bool{"energyLevels": true}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	u := newTestUploader(t, ts.URL, "secret", false)
	stats, err := u.Run(context.Background(), ingest.Snapshot{"energyLevels": []byte(`{}`)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RecordsErrored != 1 || stats.RecordsUploaded != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if fake.puts != 1 {
		t.Errorf("server saw %d PUTs, want 1", fake.puts)
	}
	uploaded, err := u.state.IsUploaded(ts.URL, "energyLevels", HashRecord([]byte(`{}`)))
	if err != nil || uploaded {
		t.Errorf("IsUploaded = %v, %v; want false", uploaded, err)
	}
	if len(fake.reports) != 1 || fake.reports[0].Errored != 1 {
		t.Errorf("sync reports = %+v, want one with 1 errored", fake.reports)
	}
}

// TestUploaderFailsWhenSyncLogRejected verifies a run whose sync log cannot be
// recorded is reported as failed.
func TestUploaderFailsWhenSyncLogRejected(t *testing.T) {
	fake := newFakeServer()
	ts := httptest.NewServer(fake)
	defer ts.Close()

	u := newTestUploader(t, ts.URL, "wrong", false)
	if _, err := u.Run(context.Background(), ingest.Snapshot{}); err == nil {
		t.Fatal("expected error when the sync log is rejected")
	}
}

// TestUploaderDryRun verifies that dry-run mode never contacts the server.
func TestUploaderDryRun(t *testing.T) {
	u := newTestUploader(t, "http://127.0.0.1:1", "secret", true)
	u.client = nil

	stats, err := u.Run(context.Background(), testSnapshot)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RecordsUploaded != 2 {
		t.Errorf("RecordsUploaded = %d, want 2", stats.RecordsUploaded)
	}
}

// TestStateDBPerServer verifies upload state is tracked separately per server.
func TestStateDBPerServer(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	if err := state.MarkUploaded("https://a", "energyLevels", "h1"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		server, hash string
		want         bool
	}{
		{"https://a", "h1", true},
		{"https://a", "h2", false},
		{"https://b", "h1", false},
	}
	for _, tt := range tests {
		got, err := state.IsUploaded(tt.server, "energyLevels", tt.hash)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("IsUploaded(%s, %s) = %v, want %v", tt.server, tt.hash, got, tt.want)
		}
	}
}

// TestLoadExport verifies that an export file on disk is parsed into a snapshot.
func TestLoadExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(`{"energyLevels":"{\"2024-03-01\":7}"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := LoadExport(path)
	if err != nil {
		t.Fatalf("LoadExport: %v", err)
	}
	if string(snap["energyLevels"]) != `{"2024-03-01":7}` {
		t.Errorf("energyLevels = %s", snap["energyLevels"])
	}

	if _, err := LoadExport(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
