package upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/claude/wellcast/internal/ingest"
)

// Stats tracks sync progress.
type Stats struct {
	SyncID string

	RecordsTotal    int
	RecordsUploaded int
	RecordsSkipped  int
	RecordsErrored  int

	// IgnoredKeys lists export keys that are not wellness records.
	IgnoredKeys []string
}

// Uploader pushes the wellness records of a local-storage export to a
// Wellcast server, sending only records whose content changed since the last run.
type Uploader struct {
	client *Client
	state  *StateDB
	server string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. server identifies the destination in the state
// database; client may be nil in dry-run mode.
func New(client *Client, state *StateDB, server string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		server: server,
		dryRun: dryRun,
		log:    log,
	}
}

// LoadExport reads a local-storage export file from disk.
func LoadExport(path string) (ingest.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	snap, err := ingest.ParseSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return snap, nil
}

// Run executes one sync of snap.
// Unless in dry-run mode, the run ends by recording its counts in the
// server's sync log.
func (u *Uploader) Run(ctx context.Context, snap ingest.Snapshot) (*Stats, error) {
	start := time.Now()
	u.stats = Stats{SyncID: uuid.NewString()}

	// Server-side hashes let a fresh state dir skip records the server already has.
	var remote map[string]string
	if !u.dryRun {
		var err error
		remote, err = u.client.FetchRecordHashes(ctx)
		if err != nil {
			return &u.stats, fmt.Errorf("fetching record hashes: %w", err)
		}
		u.log.Info("fetched server records", "count", len(remote))
	}

	for _, key := range snap.Keys() {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		if !ingest.IsWellnessKey(key) {
			u.stats.IgnoredKeys = append(u.stats.IgnoredKeys, key)
			continue
		}
		u.stats.RecordsTotal++
		u.syncRecord(ctx, key, snap[key], remote)
	}

	if u.dryRun {
		return &u.stats, nil
	}
	err := u.client.reportSync(ctx, syncReport{
		SyncID:     u.stats.SyncID,
		Received:   u.stats.RecordsTotal,
		Changed:    u.stats.RecordsUploaded,
		Skipped:    u.stats.RecordsSkipped,
		Errored:    u.stats.RecordsErrored,
		DurationMs: int(time.Since(start).Milliseconds()),
	})
	if err != nil {
		return &u.stats, fmt.Errorf("recording sync log: %w", err)
	}
	return &u.stats, nil
}

func (u *Uploader) syncRecord(ctx context.Context, key string, value []byte, remote map[string]string) {
	hash := HashRecord(value)

	if remote[key] == hash {
		u.stats.RecordsSkipped++
		if err := u.state.MarkUploaded(u.server, key, hash); err != nil {
			u.log.Warn("state update failed", "key", key, "error", err)
		}
		return
	}

	uploaded, err := u.state.IsUploaded(u.server, key, hash)
	if err != nil {
		u.log.Warn("state check failed", "key", key, "error", err)
		u.stats.RecordsErrored++
		return
	}
	if uploaded {
		u.stats.RecordsSkipped++
		return
	}

	if u.dryRun {
		u.log.Info("would upload", "key", key, "bytes", len(value))
		u.stats.RecordsUploaded++
		return
	}

	if err := u.client.PutRecord(ctx, key, value, u.stats.SyncID); err != nil {
		u.log.Warn("upload failed", "key", key, "error", err)
		u.stats.RecordsErrored++
		return
	}
	if err := u.state.MarkUploaded(u.server, key, hash); err != nil {
		u.log.Warn("state update failed", "key", key, "error", err)
	}
	u.stats.RecordsUploaded++
	u.log.Debug("uploaded", "key", key, "bytes", len(value))
}
