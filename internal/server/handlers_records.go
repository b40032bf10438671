package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/wellcast/internal/ingest"
	"github.com/claude/wellcast/internal/storage"
)

// SyncIDHeader carries the client's identifier for one sync run.
const SyncIDHeader = "X-Sync-ID"

// ImportResult summarizes a bulk record import.
type ImportResult struct {
	SyncID   string `json:"sync_id"`
	Received int    `json:"received"`
	Changed  int    `json:"changed"`
	Skipped  int    `json:"skipped"`
}

func (s *Server) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !ingest.IsWellnessKey(key) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown record key: " + key})
		return
	}

	value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxExportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}

	uid := userIDFromContext(r)
	changed, err := s.db.PutRecord(r.Context(), uid, key, value)
	if err != nil {
		s.log.Error("storing record", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.Debug("record stored", "key", key, "bytes", len(value), "changed", changed, "sync_id", r.Header.Get(SyncIDHeader))

	writeJSON(w, http.StatusOK, map[string]any{"key": key, "changed": changed})
}

func (s *Server) handleImportRecords(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	uid := userIDFromContext(r)
	syncID := r.Header.Get(SyncIDHeader)
	if syncID == "" {
		syncID = uuid.NewString()
	}

	snap, err := ingest.ParseSnapshot(http.MaxBytesReader(w, r.Body, maxExportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid export: " + err.Error()})
		return
	}

	records := make(map[string][]byte)
	for _, key := range snap.Keys() {
		if ingest.IsWellnessKey(key) {
			records[key] = snap[key]
		}
	}

	result := ImportResult{SyncID: syncID, Received: len(records)}
	changed, err := s.db.PutRecords(r.Context(), uid, records)
	result.Changed = changed
	result.Skipped = len(snap) - len(records)
	s.logSync(uid, "import", result, err, int(time.Since(start).Milliseconds()))

	if err != nil {
		s.log.Error("import error", "sync_id", syncID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.ListRecords(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, "limit", 50)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	logs, err := s.db.QuerySyncLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// SyncReport is a sync client's summary of one run of per-record uploads.
type SyncReport struct {
	SyncID     string `json:"sync_id"`
	Received   int    `json:"received"`
	Changed    int    `json:"changed"`
	Skipped    int    `json:"skipped"`
	Errored    int    `json:"errored"`
	DurationMs int    `json:"duration_ms"`
}

func (s *Server) handleReportSync(w http.ResponseWriter, r *http.Request) {
	var report SyncReport
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&report); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sync report: " + err.Error()})
		return
	}
	if report.SyncID == "" {
		report.SyncID = r.Header.Get(SyncIDHeader)
	}
	if report.SyncID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sync_id is required"})
		return
	}

	var syncErr error
	if report.Errored > 0 {
		syncErr = fmt.Errorf("%d records failed to upload", report.Errored)
	}
	result := ImportResult{
		SyncID:   report.SyncID,
		Received: report.Received,
		Changed:  report.Changed,
		Skipped:  report.Skipped,
	}
	if err := s.logSync(userIDFromContext(r), "sync", result, syncErr, report.DurationMs); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// logSync records a sync's outcome to the sync_logs table.
func (s *Server) logSync(uid int, source string, result ImportResult, importErr error, durationMs int) error {
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}

	l := storage.SyncLog{
		UserID:          uid,
		SyncID:          result.SyncID,
		Source:          source,
		Status:          status,
		RecordsReceived: result.Received,
		RecordsChanged:  result.Changed,
		RecordsSkipped:  result.Skipped,
		DurationMs:      &durationMs,
		ErrorMessage:    errMsg,
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.db.InsertSyncLog(ctx, l); err != nil {
		s.log.Error("failed to log sync", "sync_id", result.SyncID, "error", err)
		return err
	}
	return nil
}

// contextWithTimeout returns a background context with a 5-second timeout, so
// the log is written even if the client has gone away.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
